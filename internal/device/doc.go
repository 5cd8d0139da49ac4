// Package device manages one paired robot peripheral at a time: its connection state
// machine, the transport socket behind it and the per-header frame decoders that turn
// its inbound byte stream into protocol frames.
//
// The package only depends on the Transport and Adapter contracts declared in
// transport.go; concrete Bluetooth stacks live in the go-ble and rfcomm subpackages.
package device
