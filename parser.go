package pasori

import "encoding/binary"

// ensureLen fails unless data has at least min bytes.
func ensureLen(op string, data []byte, min int) error {
	if len(data) < min {
		return NewInvalidLengthError(op, min, len(data))
	}
	return nil
}

// leUint16At reads a little-endian u16 at idx, bounds-checked.
func leUint16At(op string, data []byte, idx int) (uint16, error) {
	if err := ensureLen(op, data, idx+2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[idx : idx+2]), nil
}

// sliceAt returns data[idx:idx+n], bounds-checked.
func sliceAt(op string, data []byte, idx, n int) ([]byte, error) {
	if err := ensureLen(op, data, idx+n); err != nil {
		return nil, err
	}
	return data[idx : idx+n], nil
}

// idmAt parses an IDm (8 bytes) at start, bounds-checked.
func idmAt(op string, data []byte, start int) (IDm, error) {
	s, err := sliceAt(op, data, start, 8)
	if err != nil {
		return IDm{}, err
	}
	return NewIDm(s)
}

// pmmAt parses a PMm (8 bytes) at start, bounds-checked.
func pmmAt(op string, data []byte, start int) (PMm, error) {
	s, err := sliceAt(op, data, start, 8)
	if err != nil {
		return PMm{}, err
	}
	return NewPMm(s)
}

// byteAt reads a single byte at idx, bounds-checked.
func byteAt(op string, data []byte, idx int) (byte, error) {
	if err := ensureLen(op, data, idx+1); err != nil {
		return 0, err
	}
	return data[idx], nil
}

// expectResponseCode fails with UnexpectedResponse unless data's first byte
// equals expected.
func expectResponseCode(op string, data []byte, expected byte) error {
	actual, err := byteAt(op, data, 0)
	if err != nil {
		return err
	}
	if actual != expected {
		return NewUnexpectedResponseError(op, int(expected), int(actual))
	}
	return nil
}
