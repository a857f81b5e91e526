// Package ui connects bridge sessions to the privileged UI layer.
//
// Requests that need a user (signing, payments, account access) are
// delivered to the attached UI with a fresh id. The UI answers with that id
// and the Hub hands the envelope to the original reply channel.
package ui
