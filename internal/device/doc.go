// Package device turns decoded packets into properties and semantic
// commands into packets.
//
// # Handlers
//
// A Handler owns a slice of device functionality (battery, noise control,
// gestures, ...). It declares the command ids it claims, the queries it
// wants sent when a session starts, and how a packet updates the
// property store. Handlers that accept user commands also implement
// Setter.
//
// Handlers are stateful and not safe for concurrent use. The connection
// worker calls them from a single goroutine, and a fresh set is built for
// every connection attempt.
//
// # Dispatch
//
// A Dispatcher fans each inbound packet out to every handler that claims
// its id, in profile order. A handler that fails or panics is reported as
// a *HandlerFault and the remaining handlers still run. Packets nobody
// claims are logged and otherwise ignored.
//
// # Commands
//
// Front-ends address commands as (group, property, value), for example
// ("anc", "mode", "cancellation"). The group is the handler Name.
//
//	out, err := dispatcher.Submit(device.Command{Group: "anc", Prop: "mode", Value: "awareness"})
package device
