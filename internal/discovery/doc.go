// Package discovery advertises and finds budsctl bridges on the local
// network over multicast DNS.
//
// A bridge started with "budsctl serve" registers itself as a
// "_budsctl._tcp" service. Its TXT records describe the connected
// earbuds:
//
//	profile=HUAWEI FreeBuds Pro 3
//	device=AA:BB:CC:DD:EE:FF
//	version=v1.2.0
//
// # Usage Example
//
//	adv, err := discovery.Advertise("living-room", 8765, discovery.Info{
//	    Profile: "HUAWEI FreeBuds Pro 3",
//	    Device:  "AA:BB:CC:DD:EE:FF",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
//	bridges, err := discovery.ScanForBridges(5 * time.Second)
//	for _, b := range bridges {
//	    fmt.Println(b.Instance, b.URL())
//	}
//
// # Network Requirements
//
// Multicast must be allowed on the interface and UDP port 5353 must be open.
package discovery
