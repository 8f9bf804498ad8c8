package pasori

// Wire frame layout constants (spec.md §4.2, §6).
var feliCaPreamble = [3]byte{0x00, 0x00, 0xFF}

const (
	feliCaPostamble  = 0x00
	feliCaMinFrame   = 7 // preamble(3) + len(1) + lcs(1) + dcs(1) + postamble(1)
	feliCaMaxPayload = 255
)

// EncodeFrame wraps payload in a full FeliCa wire frame:
//
//	00 00 FF | LEN | LCS | PAYLOAD | DCS | 00
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > feliCaMaxPayload {
		return nil, NewInvalidLengthError("EncodeFrame", feliCaMaxPayload, len(payload))
	}
	n := byte(len(payload))
	out := make([]byte, 0, feliCaMinFrame+len(payload))
	out = append(out, feliCaPreamble[:]...)
	out = append(out, n, LCS(n))
	out = append(out, payload...)
	out = append(out, DCS(payload), feliCaPostamble)
	return out, nil
}

// DecodeFrame validates frame and returns a copy of its payload. After a
// minimum-length check, checks run in this order, matching the original
// decoder: preamble, then LCS (validated before the payload is indexed),
// then overall length, then DCS, then postamble.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < feliCaMinFrame {
		return nil, NewInvalidLengthError("DecodeFrame", feliCaMinFrame, len(frame))
	}
	if frame[0] != feliCaPreamble[0] || frame[1] != feliCaPreamble[1] || frame[2] != feliCaPreamble[2] {
		return nil, NewFrameFormatError("DecodeFrame", "invalid preamble")
	}

	n := frame[3]
	lcsActual := frame[4]
	lcsExpected := LCS(n)
	if lcsActual != lcsExpected {
		return nil, NewChecksumMismatchError("DecodeFrame", int(lcsExpected), int(lcsActual))
	}

	required := feliCaMinFrame + int(n)
	if len(frame) != required {
		return nil, NewInvalidLengthError("DecodeFrame", required, len(frame))
	}

	payloadStart := 5
	payloadEnd := payloadStart + int(n)
	payload := frame[payloadStart:payloadEnd]

	dcsActual := frame[payloadEnd]
	dcsExpected := DCS(payload)
	if dcsActual != dcsExpected {
		return nil, NewChecksumMismatchError("DecodeFrame", int(dcsExpected), int(dcsActual))
	}

	if frame[payloadEnd+1] != feliCaPostamble {
		return nil, NewFrameFormatError("DecodeFrame", "invalid postamble")
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
