// Package resilience guards calls to the node API with a circuit breaker.
//
// A closed breaker lets calls through and counts outcomes per window. When
// Trip says so it opens and fails calls fast for Cooldown, then half-opens
// and admits Trials calls; if they all succeed it closes, one failure opens
// it again.
//
//	b := resilience.New("node", resilience.Settings{Cooldown: 10 * time.Second})
//	body, err := resilience.Do(b, func() (string, error) { return fetch(ctx) })
package resilience
