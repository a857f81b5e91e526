// Package session assembles the bridge for each page.
//
// Opening a session builds the page's URL builder and scheme resolver, a
// dispatcher over the node API, a correlator in front of it and the link
// interceptor. UI-bound requests go to the UI layer, or in gateway mode to
// the gateway filter, which refuses the restricted ones and shows the page a
// notice.
//
//	s := manager.Open(page.New(page.ViewRender, "WEBSITE", "alice", "", "", ""), sink)
//	defer manager.Close(s.ID)
//	result, err := s.Request(ctx, message.NewRequest(message.ActionGetNameData, map[string]any{"name": "alice"}))
package session
