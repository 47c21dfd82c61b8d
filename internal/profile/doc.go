// Package profile maps Bluetooth device names to the transport and the
// handler set used to talk to them.
//
// A Profile is built fresh on every Match, so handler state never leaks
// between sessions:
//
//	reg := profile.Default()
//	p := reg.Match("HUAWEI FreeBuds Pro 3", "AA:BB:CC:DD:EE:FF")
//	disp := device.NewDispatcher(store.New(), p.Handlers...)
//
// Matching tries exact names first, then substring patterns (the AirPods
// family), and finally falls back to a generic probe profile that logs
// every packet it cannot classify.
package profile
