package pasori

// pn53xDevicePrefix marks a PN53x response envelope (device -> host).
const pn53xDevicePrefix = 0xD5

// pn53xRespInListPassiveTarget is the PN53x InListPassiveTarget response code.
const pn53xRespInListPassiveTarget = 0x4B

// ExtractFelicaFromPN532Response attempts to locate a single inner FeliCa
// wire frame inside a raw PN53x/RCS956 response buffer (spec.md §4.8,
// grounded on rcs956/extractor.rs). It returns nil when no plausible frame
// could be located.
func ExtractFelicaFromPN532Response(raw []byte, expectedCmd byte) []byte {
	if pos, total, ok := findExplicitPreambleFrame(raw, 0); ok {
		frame := raw[pos : pos+total]
		payload, err := DecodeFrame(frame)
		if err != nil {
			return nil
		}
		if len(payload) > 0 && payload[0] == pn53xDevicePrefix {
			expectedResp := expectedCmd + 1
			if rel := indexByte(payload[1:], expectedResp); rel >= 0 {
				idx := 1 + rel
				inner, err := EncodeFrame(payload[idx:])
				if err == nil {
					return inner
				}
			}
			return nil
		}
		return append([]byte(nil), frame...)
	}

	if len(raw) > 0 && raw[0] == pn53xDevicePrefix {
		expectedResp := expectedCmd + 1
		if len(raw) > 3 {
			if pos := indexByte(raw[3:], expectedResp); pos >= 0 {
				idx := 3 + pos
				frame, err := EncodeFrame(raw[idx:])
				if err == nil {
					return frame
				}
			}
		}
	}
	return nil
}

// ExtractAllFelicaFramesFromPN532Response extracts every candidate FeliCa
// wire frame embedded in a raw PN53x/RCS956 response buffer (spec.md §4.8,
// grounded on rcs956/multi_frame.rs: primary preamble scan, then a
// D5-region fallback scan with InListPassiveTarget-aware partitioning).
func ExtractAllFelicaFramesFromPN532Response(raw []byte, expectedCmd byte) [][]byte {
	var out [][]byte
	expectedResp := expectedCmd + 1

	i := 0
	for i+3 < len(raw) {
		if !hasPreambleAt(raw, i) {
			i++
			continue
		}
		length := int(raw[i+3])
		if length == 0 {
			i++
			continue
		}
		total := 7 + length
		if i+total > len(raw) {
			break
		}
		candidate := raw[i : i+total]
		if payload, err := DecodeFrame(candidate); err == nil {
			if len(payload) > 0 && payload[0] == pn53xDevicePrefix {
				if rel := indexByte(payload[1:], expectedResp); rel >= 0 {
					idx := 1 + rel
					if inner, err := EncodeFrame(payload[idx:]); err == nil {
						out = append(out, inner)
					}
				}
			} else {
				out = append(out, append([]byte(nil), candidate...))
			}
		}
		i += total
	}

	if len(out) > 0 {
		return out
	}

	for _, region := range extractD5Regions(raw) {
		if frames, ok := extractFramesFromRegion(region, expectedResp); ok {
			out = append(out, frames...)
			continue
		}

		if len(region) >= 3 && region[1] == pn53xRespInListPassiveTarget {
			ntg := int(region[2])
			remainder := region[3:]
			if ntg > 0 && len(remainder) > 0 {
				if parts, ok := partitionUnframedTargets(remainder, expectedResp, ntg); ok {
					for _, part := range parts {
						if frame, err := EncodeFrame(part); err == nil {
							out = append(out, frame)
						}
					}
					continue
				}
			}
			if len(region) > 3 {
				if pos := indexByte(region[3:], expectedResp); pos >= 0 {
					idx := 3 + pos
					if frame, err := EncodeFrame(region[idx:]); err == nil {
						out = append(out, frame)
						continue
					}
				}
			}
		} else {
			if pos := indexByte(region, expectedResp); pos >= 0 {
				if frame, err := EncodeFrame(region[pos:]); err == nil {
					out = append(out, frame)
					continue
				}
			}
		}

		if len(region) > 3 {
			for start := 3; start < len(region); start++ {
				if frame, err := EncodeFrame(region[start:]); err == nil {
					out = append(out, frame)
					break
				}
			}
		}
	}

	return out
}

// extractFramesFromRegion extracts one or more concatenated explicit-preamble
// FeliCa frames from a single D5 region, mirroring multi_frame.rs's inner
// while-loop. ok is false when the region contains no preamble at all.
func extractFramesFromRegion(region []byte, expectedResp byte) ([][]byte, bool) {
	relPos := -1
	for p := 0; p+3 <= len(region); p++ {
		if hasPreambleAt(region, p) {
			relPos = p
			break
		}
	}
	if relPos < 0 {
		return nil, false
	}

	var out [][]byte
	extracted := false
	for relPos+3 < len(region) {
		length := int(region[relPos+3])
		total := 7 + length
		if total == 0 || relPos+total > len(region) {
			break
		}
		candidate := region[relPos : relPos+total]
		if payload, err := DecodeFrame(candidate); err == nil {
			if len(payload) > 0 && payload[0] == pn53xDevicePrefix {
				if rel := indexByte(payload[1:], expectedResp); rel >= 0 {
					idx := 1 + rel
					if inner, err := EncodeFrame(payload[idx:]); err == nil {
						out = append(out, inner)
					}
				}
			} else {
				out = append(out, append([]byte(nil), candidate...))
			}
		}
		extracted = true
		relPos += total

		if relPos+3 <= len(region) && hasPreambleAt(region, relPos) {
			continue
		}
		next := -1
		for p := relPos; p+3 <= len(region); p++ {
			if hasPreambleAt(region, p) {
				next = p
				break
			}
		}
		if next < 0 {
			break
		}
		relPos = next
	}
	return out, extracted
}

// extractD5Regions splits raw into maximal contiguous regions each starting
// at a byte equal to the PN53x device prefix (0xD5).
func extractD5Regions(raw []byte) [][]byte {
	var regions [][]byte
	i := 0
	for i < len(raw) {
		if raw[i] != pn53xDevicePrefix {
			i++
			continue
		}
		start := i
		i++
		for i < len(raw) && raw[i] != pn53xDevicePrefix {
			i++
		}
		if i > start {
			regions = append(regions, raw[start:i])
		}
	}
	return regions
}

// partitionUnframedTargets attempts to split rem into exactly `targets`
// contiguous chunks, each starting with expectedResp and individually
// wrappable by EncodeFrame, using a greedy-longest-prefix backtracking
// search (spec.md §4.8 fallback step 2).
func partitionUnframedTargets(rem []byte, expectedResp byte, targets int) ([][]byte, bool) {
	if targets == 0 {
		if len(rem) == 0 {
			return nil, true
		}
		return nil, false
	}
	if targets == 1 {
		if len(rem) > 0 && rem[0] == expectedResp {
			if _, err := EncodeFrame(rem); err == nil {
				return [][]byte{rem}, true
			}
		}
		return nil, false
	}

	maxLen := len(rem) - (targets - 1)
	if maxLen < 1 {
		return nil, false
	}
	for length := maxLen; length >= 1; length-- {
		candidate := rem[:length]
		if len(candidate) == 0 || candidate[0] != expectedResp {
			continue
		}
		if _, err := EncodeFrame(candidate); err != nil {
			continue
		}
		if rest, ok := partitionUnframedTargets(rem[length:], expectedResp, targets-1); ok {
			out := make([][]byte, 0, 1+len(rest))
			out = append(out, candidate)
			out = append(out, rest...)
			return out, true
		}
	}
	return nil, false
}

// hasPreambleAt reports whether raw[i:i+3] equals the FeliCa preamble.
func hasPreambleAt(raw []byte, i int) bool {
	if i+3 > len(raw) {
		return false
	}
	return raw[i] == feliCaPreamble[0] && raw[i+1] == feliCaPreamble[1] && raw[i+2] == feliCaPreamble[2]
}

// findExplicitPreambleFrame locates the first complete (length-validated)
// FeliCa frame starting from offset, skipping zero-length ACK preambles.
func findExplicitPreambleFrame(raw []byte, from int) (pos, total int, ok bool) {
	for p := from; p+3 <= len(raw); p++ {
		if !hasPreambleAt(raw, p) {
			continue
		}
		if p+3 >= len(raw) {
			return 0, 0, false
		}
		length := int(raw[p+3])
		if length == 0 {
			continue
		}
		t := 7 + length
		if p+t > len(raw) {
			return 0, 0, false
		}
		return p, t, true
	}
	return 0, 0, false
}

// indexByte returns the first index of b in buf, or -1.
func indexByte(buf []byte, b byte) int {
	for i, c := range buf {
		if c == b {
			return i
		}
	}
	return -1
}
