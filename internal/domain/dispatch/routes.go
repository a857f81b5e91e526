package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

// Kind says how a routed action is answered.
type Kind int

const (
	// KindFetch answers with a call to the node API.
	KindFetch Kind = iota
	// KindLocal answers in-process from the page context.
	KindLocal
)

func (k Kind) String() string {
	if k == KindLocal {
		return "local"
	}
	return "fetch"
}

// ParamKind controls how a request field is written into a query string.
type ParamKind int

const (
	// Scalar writes the field's textual value.
	Scalar ParamKind = iota
	// Flag writes the field's truthiness as "true" or "false".
	Flag
	// List repeats the key once per element.
	List
)

// Param maps a request field to a query parameter.
type Param struct {
	Field string
	Key   string
	Kind  ParamKind
}

// Q is a scalar parameter named after its field.
func Q(field string) Param { return Param{Field: field, Key: field} }

// QAs is a scalar parameter with its own key.
func QAs(field, key string) Param { return Param{Field: field, Key: key} }

// F is a flag parameter.
func F(field, key string) Param { return Param{Field: field, Key: key, Kind: Flag} }

// L is a repeated parameter.
func L(field, key string) Param { return Param{Field: field, Key: key, Kind: List} }

// ShapeFunc converts a node response body into a reply envelope.
type ShapeFunc func(body string) message.Envelope

// Route describes how one action is served. Node calls are always GETs.
type Route struct {
	Action message.Action
	Kind   Kind
	// Paths are tried in order; the first whose required fields are all
	// present is used.
	Paths []Template
	Query []Param
	Shape ShapeFunc
}

// Target renders the node API path and query for req.
func (r Route) Target(req *message.Request) (string, error) {
	var (
		path string
		err  error
	)
	for _, t := range r.Paths {
		path, err = t.Render(req)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", err
	}

	if q := r.query(req); q != "" {
		path += "?" + q
	}
	return path, nil
}

// query keeps the declared parameter order.
func (r Route) query(req *message.Request) string {
	var parts []string
	add := func(key, value string) {
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}

	for _, p := range r.Query {
		switch p.Kind {
		case Flag:
			if v, ok := req.Bool(p.Field); ok {
				if v {
					add(p.Key, "true")
				} else {
					add(p.Key, "false")
				}
			}
		case List:
			for _, v := range req.Strings(p.Field) {
				add(p.Key, v)
			}
		default:
			if v, ok := req.Param(p.Field); ok {
				add(p.Key, v)
			}
		}
	}
	return strings.Join(parts, "&")
}

func (r Route) shape(body string) message.Envelope {
	if r.Shape != nil {
		return r.Shape(body)
	}
	return Shape(body)
}

// Table maps action tags to routes.
type Table map[message.Action]Route

// Lookup returns the route for an action.
func (t Table) Lookup(action message.Action) (Route, bool) {
	r, ok := t[action]
	return r, ok
}

func newTable(routes ...Route) Table {
	t := make(Table, len(routes))
	for _, r := range routes {
		t[r.Action] = r
	}
	return t
}

func get(action message.Action, path string, query ...Param) Route {
	return Route{Action: action, Kind: KindFetch, Paths: []Template{MustTemplate(path)}, Query: query}
}

func local(action message.Action) Route {
	return Route{Action: action, Kind: KindLocal}
}

// DirectRoutes addresses the node's resource paths.
var DirectRoutes = newTable(
	get(message.ActionGetAccountData, "/addresses/{address}"),
	get(message.ActionGetAccountNames, "/names/address/{address}"),
	get(message.ActionGetNameData, "/names/{name}"),
	local(message.ActionGetResourceURL),
	local(message.ActionLinkToResource),
	get(message.ActionListResources, "/arbitrary/resources",
		Q("service"), Q("name"), Q("identifier"),
		F("default", "default"), F("includeStatus", "includestatus"), F("includeMetadata", "includemetadata"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionSearchResources, "/arbitrary/resources/search",
		Q("service"), Q("query"), Q("identifier"), Q("name"), L("names", "name"),
		F("prefix", "prefix"), F("default", "default"),
		F("includeStatus", "includestatus"), F("includeMetadata", "includemetadata"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionFetchResource, "/arbitrary/{service}/{name}[/{identifier}]",
		Q("filepath"), F("rebuild", "rebuild"), Q("encoding")),
	get(message.ActionGetResourceStatus, "/arbitrary/resource/status/{service}/{name}[/{identifier}]"),
	get(message.ActionGetResourceProperties, "/arbitrary/resource/properties/{service}/{name}/{identifier=default}"),
	get(message.ActionSearchChatMessages, "/chat/messages",
		Q("before"), Q("after"), Q("txGroupId"), L("involving", "involving"),
		Q("reference"), QAs("chatReference", "chatreference"), F("hasChatReference", "haschatreference"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionListGroups, "/groups",
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionGetBalance, "/addresses/balance/{address}", Q("assetId")),
	get(message.ActionGetAT, "/at/{atAddress}"),
	get(message.ActionGetATData, "/at/{atAddress}/data"),
	get(message.ActionListATs, "/at/byfunction/{codeHash58}",
		Q("isExecutable"), Q("limit"), Q("offset"), F("reverse", "reverse")),
	Route{
		Action: message.ActionFetchBlock,
		Kind:   KindFetch,
		Paths:  []Template{MustTemplate("/blocks/{signature}"), MustTemplate("/blocks/byheight/{height}")},
		Query:  []Param{Q("includeOnlineSignatures")},
	},
	get(message.ActionFetchBlockRange, "/blocks/range/{height}",
		Q("count"), Q("reverse"), Q("includeOnlineSignatures")),
	get(message.ActionSearchTransactions, "/transactions/search",
		Q("startBlock"), Q("blockLimit"), Q("txGroupId"), L("txType", "txType"),
		Q("address"), Q("confirmationStatus"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionGetPrice, "/crosschain/price/{blockchain}",
		Q("maxtrades"), Q("inverse")),
)

// AppsRoutes addresses the consolidated /apps query convention. Actions it
// does not list are forwarded to the UI layer.
var AppsRoutes = newTable(
	get(message.ActionGetAccountData, "/apps/account", Q("address")),
	get(message.ActionGetAccountNames, "/apps/account/names", Q("address")),
	get(message.ActionGetNameData, "/apps/name", Q("name")),
	local(message.ActionGetResourceURL),
	local(message.ActionLinkToResource),
	get(message.ActionSearchChatMessages, "/apps/chatmessages",
		Q("before"), Q("after"), Q("txGroupId"), L("involving", "involving"),
		Q("reference"), Q("chatReference"), F("hasChatReference", "hasChatReference"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionListResources, "/apps/resources",
		Q("service"), Q("identifier"), F("default", "default"), Q("nameListFilter"),
		F("includeStatus", "includeStatus"), F("includeMetadata", "includeMetadata"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionGetResourceStatus, "/apps/resourcestatus",
		Q("service"), Q("name"), Q("identifier")),
	get(message.ActionFetchResource, "/apps/resource",
		Q("service"), Q("name"), Q("identifier"), Q("filepath"), F("rebuild", "rebuild")),
	get(message.ActionListGroups, "/apps/groups",
		Q("limit"), Q("offset"), F("reverse", "reverse")),
	get(message.ActionGetBalance, "/apps/balance", Q("assetId"), Q("address")),
	get(message.ActionGetAT, "/apps/at", Q("atAddress")),
	get(message.ActionGetATData, "/apps/atdata", Q("atAddress")),
	get(message.ActionListATs, "/apps/ats",
		Q("codeHash58"), F("isExecutable", "isExecutable"),
		Q("limit"), Q("offset"), F("reverse", "reverse")),
)

// Convention names a route table.
type Convention string

const (
	ConventionDirect Convention = "direct"
	ConventionApps   Convention = "apps"
)

// ParseConvention validates a configured convention name.
func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ConventionDirect, nil
	case ConventionDirect, ConventionApps:
		return c, nil
	default:
		return "", fmt.Errorf("unknown route convention %q", s)
	}
}

// TableFor returns the route table for a convention, defaulting to direct.
func TableFor(c Convention) Table {
	if c == ConventionApps {
		return AppsRoutes
	}
	return DirectRoutes
}
