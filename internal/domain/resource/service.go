package resource

import (
	"context"
	"strings"
)

// DefaultService is assumed when a gateway path does not name a service.
const DefaultService = "WEBSITE"

// services lists the service names the node recognises.
var services = map[string]struct{}{
	"AUTO_UPDATE": {}, "ARBITRARY_DATA": {}, "QCHAT_ATTACHMENT": {},
	"ATTACHMENT": {}, "FILE": {}, "FILES": {}, "CHAIN_DATA": {},
	"WEBSITE": {}, "GIT_REPOSITORY": {}, "IMAGE": {}, "THUMBNAIL": {},
	"QCHAT_IMAGE": {}, "VIDEO": {}, "AUDIO": {}, "QCHAT_AUDIO": {},
	"QCHAT_VOICE": {}, "VOICE": {}, "BLOG": {}, "BLOG_POST": {},
	"BLOG_COMMENT": {}, "DOCUMENT": {}, "LIST": {}, "PLAYLIST": {},
	"APP": {}, "METADATA": {}, "JSON": {}, "GIF_REPOSITORY": {},
	"STORE": {}, "PRODUCT": {}, "OFFER": {}, "COUPON": {}, "CODE": {},
	"PLUGIN": {}, "EXTENSION": {}, "GAME": {}, "ITEM": {}, "NFT": {},
	"DATABASE": {}, "SNAPSHOT": {}, "COMMENT": {}, "CHAIN_COMMENT": {},
	"MAIL": {}, "MESSAGE": {},
}

// IsService reports whether s names a known service, ignoring case.
func IsService(s string) bool {
	_, ok := services[strings.ToUpper(s)]
	return ok
}

// ParseGatewayPath resolves a gateway path of the form
// [SERVICE/]name[/identifier][/path]. The identifier is told apart from
// the path by the same chunk count lookup the scheme resolver uses.
func (r *Resolver) ParseGatewayPath(ctx context.Context, p string) (*Descriptor, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return nil, ErrIncomplete
	}

	d := &Descriptor{Service: DefaultService}
	if len(parts) > 1 && IsService(parts[0]) {
		d.Service = strings.ToUpper(parts[0])
		parts = parts[1:]
	}
	d.Name = parts[0]
	parts = parts[1:]

	if len(parts) > 0 && parts[0] != "" {
		isID, err := r.isIdentifier(ctx, d.Service, d.Name, parts[0])
		if err != nil {
			return nil, err
		}
		if isID {
			d.Identifier = parts[0]
			parts = parts[1:]
		}
	}

	d.Path = strings.Join(parts, "/")
	return d, nil
}
