package pasori

// S310 init handshake constants (spec.md §4.7.1, §6), grounded on
// original_source/libpafe/src/device/models/s310/config.rs.
const (
	s310InitAttempts  int    = 2
	s310InitRequest   byte   = 0x01
	s310InitValue     uint16 = 0
	s310InitIndex     uint16 = 0
	s310ReadTimeoutMs int    = 200
)

var s310InitPayload = []byte{0x54}

// S310Model drives the original PaSoRi generation, which needs no command
// envelope: the generic FeliCa wire frame is sent as-is (spec.md §4.7.1).
type S310Model struct {
	baseModel
}

// Initialize performs up to s310InitAttempts rounds of
// vendor_control_write(0x54) + vendor_control_read(200ms); any non-empty
// reply means success (spec.md §4.7.1).
func (m *S310Model) Initialize(t Transport) error {
	const op = "S310Model.Initialize"
	var lastErr error
	for attempt := 0; attempt < s310InitAttempts; attempt++ {
		if err := t.VendorControlWrite(s310InitRequest, s310InitValue, s310InitIndex, s310InitPayload); err != nil {
			return err
		}
		resp, err := t.VendorControlRead(s310InitRequest, s310InitValue, s310InitIndex, s310ReadTimeoutMs)
		if err == nil && len(resp) > 0 {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return lastErr
	}
	return NewTimeoutError(op, s310ReadTimeoutMs)
}

var _ DeviceModel = (*S310Model)(nil)
