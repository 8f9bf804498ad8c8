package pasori

// Transport abstracts the byte channel between the host and a reader,
// decoupling protocol/device-model logic from the concrete I/O stack
// (spec.md §4.5). Two implementations exist: TransportUSB (C7, real
// hardware) and MockTransport (tests).
type Transport interface {
	// Send transmits data to the device.
	Send(data []byte) error
	// Receive reads up to a bounded buffer, failing with a timeout error
	// once timeoutMs elapses with no data received.
	Receive(timeoutMs int) ([]byte, error)
	// Reset performs a transport-level (soft) reset.
	Reset() error
	// DeviceType reports the detected hardware generation.
	DeviceType() DeviceType

	// ControlWrite performs a vendor control transfer with default
	// request/value/index parameters.
	ControlWrite(data []byte) error
	// ControlRead performs a vendor control read with default parameters.
	ControlRead(timeoutMs int) ([]byte, error)

	// VendorControlWrite performs an explicit vendor control transfer.
	VendorControlWrite(request byte, value, index uint16, data []byte) error
	// VendorControlRead performs an explicit vendor control read.
	VendorControlRead(request byte, value, index uint16, timeoutMs int) ([]byte, error)

	// InEndpoint reports the discovered IN endpoint address, if any.
	InEndpoint() (addr byte, ok bool)
	// OutEndpoint reports the discovered OUT endpoint address, if any.
	OutEndpoint() (addr byte, ok bool)
	// ClearHalt clears a stall condition on the given endpoint address.
	ClearHalt(addr byte) error
}

// DefaultControlWrite implements the Transport trait's default
// control_write: route to Send. Go interfaces have no default methods, so
// concrete transports call this helper explicitly where they want the
// fallback behavior (spec.md §4.5).
func DefaultControlWrite(t Transport, data []byte) error {
	return t.Send(data)
}

// DefaultControlRead implements the default control_read: route to Receive.
func DefaultControlRead(t Transport, timeoutMs int) ([]byte, error) {
	return t.Receive(timeoutMs)
}

// DefaultVendorControlWrite implements the default vendor_control_write:
// route to ControlWrite, discarding request/value/index.
func DefaultVendorControlWrite(t Transport, data []byte) error {
	return t.ControlWrite(data)
}

// DefaultVendorControlRead implements the default vendor_control_read: route
// to ControlRead, discarding request/value/index.
func DefaultVendorControlRead(t Transport, timeoutMs int) ([]byte, error) {
	return t.ControlRead(timeoutMs)
}
