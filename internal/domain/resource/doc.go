// Package resource addresses retrievable units of content.
//
// A Descriptor (service, name, identifier, path) is turned into a URL path
// by Build, using the template that matches the page's view context:
//
//	fetch:     /arbitrary/SERVICE/name[/identifier][?filepath=path]
//	render:    /render/SERVICE/name[/path][?identifier=identifier]
//	gateway:   /SERVICE/name[/identifier][/path]
//	domainMap: /name[/path]
//
// Link URLs (those the user navigates to) additionally carry the theme.
//
// The Resolver turns qortal:// links back into descriptors. Whether the
// segment after the name is an identifier or part of the path cannot be told
// from the link alone, so one status lookup against the node API decides:
// the segment is an identifier only if the node reports chunks for it.
package resource
