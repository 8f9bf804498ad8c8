package pasori

// S320 init handshake constants (spec.md §4.7.2, §6), grounded on
// original_source/libpafe/src/device/models/s320/config.rs.
const (
	s320InitAttempts  int    = 3
	s320Init1Request  byte   = 0x01
	s320Init1Value    uint16 = 0
	s320Init1Index    uint16 = 0
	s320Init2Request  byte   = 0x02
	s320Init2Value    uint16 = 0
	s320Init2Index    uint16 = 0
	s320ReadTimeoutMs int    = 200
)

var (
	s320InitPayload1 = []byte{0x5C, 0x01}
	s320InitPayload2 = []byte{0x5C, 0x02}
)

// S320Model drives the second PaSoRi generation: a two-phase vendor-control
// handshake with a plain-receive fallback, no command envelope (spec.md
// §4.7.2).
type S320Model struct {
	baseModel
}

// Initialize runs up to s320InitAttempts rounds of
// vendor_control_write(0x5C 0x01) + vendor_control_read(200ms), falling back
// to a plain Receive when the control read fails or returns nothing. On
// success, issues vendor_control_write(0x5C 0x02) as a finalization step
// (spec.md §4.7.2).
func (m *S320Model) Initialize(t Transport) error {
	const op = "S320Model.Initialize"
	ok := false
	var lastErr error
	for attempt := 0; attempt < s320InitAttempts; attempt++ {
		if err := t.VendorControlWrite(s320Init1Request, s320Init1Value, s320Init1Index, s320InitPayload1); err != nil {
			return err
		}
		resp, err := t.VendorControlRead(s320Init1Request, s320Init1Value, s320Init1Index, s320ReadTimeoutMs)
		if err == nil && len(resp) > 0 {
			ok = true
			break
		}

		resp2, err2 := t.Receive(s320ReadTimeoutMs)
		if err2 == nil && len(resp2) > 0 {
			ok = true
			break
		}
		lastErr = err2
	}
	if !ok {
		if lastErr != nil {
			return lastErr
		}
		return NewTimeoutError(op, s320ReadTimeoutMs)
	}

	return t.VendorControlWrite(s320Init2Request, s320Init2Value, s320Init2Index, s320InitPayload2)
}

var _ DeviceModel = (*S320Model)(nil)
