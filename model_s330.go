package pasori

// S330 PN53x-envelope constants (spec.md §4.7.3, §6).
var (
	s330RFOnPayload       = []byte{0xD4, 0x32, 0x01, 0x01}
	s330GetVersionPayload = []byte{0xD4, 0x02}
)

const s330ReadTimeoutMs = 200

// brty (bit-rate/type) parameter per CardType, for PN53x InListPassiveTarget
// (spec.md §4.7.3).
func brtyFor(cardType CardType) byte {
	switch cardType {
	case CardTypeA:
		return 0x00
	case CardTypeB:
		return 0x03
	default: // CardTypeF
		return 0x01
	}
}

// S330Model drives the third PaSoRi generation, whose onboard PN53x-
// compatible controller wraps every FeliCa command/response in its own
// envelope (spec.md §4.7.3), grounded on
// original_source/libpafe/src/device/models/s330/mod.rs (the richer,
// authoritative version per spec.md §9's dedup note).
type S330Model struct{}

// Initialize is best-effort (spec.md §4.7.3): RF-on is written then read
// back with a short timeout, ignoring any error; GetVersion is written but
// deliberately not read, so it can't consume a later queued response.
func (m *S330Model) Initialize(t Transport) error {
	_ = t.VendorControlWrite(0x00, 0, 0, s330RFOnPayload)
	_, _ = t.VendorControlRead(0x00, 0, 0, s330ReadTimeoutMs)

	_ = t.VendorControlWrite(0x00, 0, 0, s330GetVersionPayload)
	return nil
}

// WrapCommand envelopes a command per spec.md §4.7.3: forward unchanged if
// already PN53x-wrapped, use InListPassiveTarget for Polling, and
// InCommunicateThru for everything else.
func (m *S330Model) WrapCommand(framed, payload []byte) []byte {
	if len(framed) > 0 && framed[0] == pn53xHostPrefix {
		return append([]byte(nil), framed...)
	}

	if len(payload) > 0 && payload[0] == cmdCodePolling {
		out := make([]byte, 0, 4+len(payload))
		out = append(out, 0xD4, 0x4A, 0x01, 0x01)
		out = append(out, payload...)
		return out
	}

	out := make([]byte, 0, 3+len(payload))
	out = append(out, 0xD4, 0x42, byte(len(payload)))
	out = append(out, payload...)
	return out
}

// UnwrapResponse strips the PN53x envelope via the extractor (C9); if
// nothing is found, the raw bytes are returned unchanged so the caller can
// signal an unexpected response (spec.md §4.7.3).
func (m *S330Model) UnwrapResponse(expectedCmd byte, raw []byte) ([]byte, error) {
	if inner := ExtractFelicaFromPN532Response(raw, expectedCmd); inner != nil {
		return inner, nil
	}
	return append([]byte(nil), raw...), nil
}

// ExtractCandidateFrames is the decode-failure recovery hook, delegating
// directly to the C9 extractor's multi-frame scan.
func (m *S330Model) ExtractCandidateFrames(raw []byte, expectedCmd byte) [][]byte {
	return ExtractAllFelicaFramesFromPN532Response(raw, expectedCmd)
}

// ListPassiveTargets performs multi-target discovery per spec.md §4.7.3:
// build `D4 4A <max> <brty>` (appending a Polling payload for Type-F), send
// it via vendor control, then parse the PN53x InListPassiveTarget reply
// according to card_type.
func (m *S330Model) ListPassiveTargets(t Transport, cardType CardType, systemCode SystemCode, max byte, timeoutMs int) ([]Card, error) {
	brty := brtyFor(cardType)
	cmd := []byte{0xD4, 0x4A, max, brty}
	if cardType == CardTypeF {
		cmd = append(cmd, 0xFF, 0xFF, 0x00, 0x00)
		cmd = append(cmd, Polling{SystemCode: systemCode, RequestCode: 0, TimeSlot: 0}.Encode()...)
	}

	if err := t.VendorControlWrite(0x00, 0, 0, cmd); err != nil {
		return nil, err
	}
	raw, err := t.VendorControlRead(0x00, 0, 0, timeoutMs)
	if err != nil {
		return nil, err
	}

	if cardType == CardTypeA || cardType == CardTypeB {
		return parseInListPassiveTargetAB(raw, cardType), nil
	}
	return m.parseInListPassiveTargetF(raw), nil
}

// parseInListPassiveTargetAB parses a PN53x InListPassiveTarget reply for
// Type-A/Type-B targets (spec.md §4.7.3):
//
//	D5 4B NbTg [Tg SENS_RES(2) SEL_RES(1) UID_LEN UID...]...         (Type-A)
//	D5 4B NbTg [Tg ATQB(12) ATTRIB_RES_LEN [ATTRIB_RES]]...          (Type-B)
func parseInListPassiveTargetAB(raw []byte, cardType CardType) []Card {
	var out []Card
	if len(raw) < 3 || raw[0] != pn53xDevicePrefix || raw[1] != pn53xRespInListPassiveTarget {
		return out
	}
	nbTg := int(raw[2])
	pos := 3
	for i := 0; i < nbTg; i++ {
		if pos >= len(raw) {
			break
		}
		pos++ // skip Tg (target number)

		if cardType == CardTypeB {
			if pos+12 > len(raw) {
				break
			}
			var atqb ATQB
			copy(atqb[:], raw[pos:pos+12])
			pos += 12
			out = append(out, NewTypeBCard(atqb.PUPI(), atqb))
			if pos < len(raw) {
				attribLen := int(raw[pos])
				pos += 1 + attribLen
			}
		} else {
			if pos+3 >= len(raw) {
				break
			}
			pos += 3 // skip SENS_RES(2) + SEL_RES(1)
			uidLen := int(raw[pos])
			pos++
			if pos+uidLen > len(raw) {
				break
			}
			uid := make(UID, uidLen)
			copy(uid, raw[pos:pos+uidLen])
			pos += uidLen
			out = append(out, NewTypeACard(uid))
		}
	}
	return out
}

// parseInListPassiveTargetF extracts and decodes FeliCa Polling responses
// embedded in the PN53x reply, converting each to a Type-F Card, applying
// the two-stage decode-then-recover chain spec.md §4.8 requires before
// dropping a candidate.
func (m *S330Model) parseInListPassiveTargetF(raw []byte) []Card {
	const expectedCmd = cmdCodePolling
	var out []Card
	for _, frame := range ExtractAllFelicaFramesFromPN532Response(raw, expectedCmd) {
		if card, ok := decodePollingCandidate(frame, expectedCmd); ok {
			out = append(out, card)
			continue
		}

		// Recovery #1: if the candidate looks like a PN53x response region
		// (starts with 0xD5), feed it through the extractor once more.
		if len(frame) > 0 && frame[0] == pn53xDevicePrefix {
			if inner := ExtractFelicaFromPN532Response(frame, expectedCmd); inner != nil {
				if card, ok := decodePollingCandidate(inner, expectedCmd); ok {
					out = append(out, card)
					continue
				}
			}
		}

		// Recovery #2: the candidate may be an unframed payload; try
		// wrapping it as a FeliCa frame and decoding that.
		if rewrapped, err := EncodeFrame(frame); err == nil {
			if card, ok := decodePollingCandidate(rewrapped, expectedCmd); ok {
				out = append(out, card)
			}
		}
	}
	return out
}

// decodePollingCandidate runs C3.decode + C5.decode against frame and
// converts a successful PollingResponse into a Type-F Card.
func decodePollingCandidate(frame []byte, expectedCmd byte) (Card, bool) {
	resp, err := decodeFrameAndResponse(expectedCmd, frame)
	if err != nil {
		return Card{}, false
	}
	pr, ok := resp.(PollingResponse)
	if !ok {
		return Card{}, false
	}
	return NewTypeFCard(pr.IDm, pr.PMm, pr.SystemCode), true
}

var _ DeviceModel = (*S330Model)(nil)
