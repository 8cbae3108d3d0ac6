// Package app is the facility finder: its route table, its views and the
// HTTP shell that serves them.
//
// The route table has six routes. The about view is lazy: its template is
// fetched from the asset source on first navigation. The detail routes
// forward their id to the view.
//
// The shell renders the page for any request path on the server and serves
// live navigation on {base}/ws. Each WebSocket connection gets its own
// router.Session; the browser sends
//
//	{"op": "navigate", "path": "/facility/42"}
//
// and receives a "state" message with the rendered view for every state the
// session publishes, including the placeholder shown while a lazy view
// loads.
package app
