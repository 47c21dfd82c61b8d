// Package connection keeps a session with one pair of earbuds alive.
//
// A Manager owns a single worker goroutine that dials the device, runs
// the accessory handshake when the profile needs it, feeds inbound
// packets through the profile's handlers, and forwards commands
// submitted by front-ends. Failures move the state machine to Backoff and
// the worker retries with exponential delays until Stop is called.
//
//	m := connection.New(connection.Options{
//	    Address:  addr,
//	    Name:     "HUAWEI FreeBuds Pro 3",
//	    Registry: profile.Default(),
//	})
//	m.Start(ctx)
//	defer m.Stop()
//
//	err := m.Submit(device.Command{Group: "anc", Prop: "mode", Value: "awareness"})
//
// # States
//
//	Disconnected -> Connecting -> [Handshaking] -> Connected
//	      ^              |              |              |
//	      |              +------> Backoff <------------+
//	      +------------------------- stop (from any state)
//
// The property store is cleared whenever a session ends so front-ends
// never show stale values. The "state" category survives and mirrors the
// current Status.
package connection
