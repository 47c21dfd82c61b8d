// Package bridge exposes a connection manager to remote front-ends over a
// websocket.
//
// Clients connect to /ws and receive JSON messages:
//
//	{"type":"snapshot","properties":{"battery":{"global":"80"}},"status":{...}}
//	{"type":"change","kind":"set","category":"battery","key":"global","value":"75"}
//	{"type":"state","status":{"state":"backoff","attempt":2,...}}
//
// and may send commands, each answered by a result carrying the same id:
//
//	{"type":"command","id":"1","group":"anc","prop":"mode","value":"cancellation"}
//	{"type":"result","id":"1","ok":true}
//
// A store reset is delivered as a fresh snapshot. GET /status returns the
// current status as JSON.
//
// With Config.TLS set the same endpoints are served over wss:// and
// https://; see NewTLSConfig.
package bridge
