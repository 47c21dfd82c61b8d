// Package bluez talks to the BlueZ daemon over the system D-Bus to list
// paired devices and to bounce a device's baseband link when the control
// channel stops answering.
//
// Only Linux is supported. On other platforms Dial returns ErrUnsupported.
package bluez
