// Package intercept rewrites and redirects references inside rendered app
// content.
//
// Anchor clicks on qortal:// links become LINK_TO_QDN_RESOURCE requests.
// Clicks on external absolute links are always suppressed, since apps may
// not navigate off the node. Image sources using the scheme are rewritten to
// fetch URLs, both when a document loads and whenever a src changes.
package intercept
