// Package render serves resource files through the bridge.
//
// Files are fetched from the node API. HTML (by default any file matching
// **/*.{html,htm}) is decoded to UTF-8, parsed with goquery and rewritten:
// relative links get the page prefix, qortal:// images point at their data
// URL, and the page context plus the bridge shim are injected into <head>.
// Every response carries a Content-Security-Policy header.
package render
