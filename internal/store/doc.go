// Package store holds the live device properties decoded by handlers.
//
// Properties are string values addressed by (category, key), for example
// ("battery", "left") or ("anc", "mode"). A Store is safe for concurrent
// use: the connection worker writes while front-ends read, and a reader
// never observes a half-written value.
//
// Front-ends that want push updates call Subscribe. Delivery is
// best-effort: a subscriber whose buffer is full misses events rather
// than stalling the writer, and can recover with Snapshot.
package store
