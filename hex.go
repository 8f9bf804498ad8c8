package pasori

import "encoding/hex"

// BytesToHex renders b as a contiguous lowercase hex string, e.g.
// "deadbeef00112233". Supplements the core codec with the diagnostic
// pretty-printing spec.md places out of scope for the hard algorithmic
// core (see SPEC_FULL.md "Supplemented features").
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// BytesToHexSpaced renders b as a space-separated lowercase hex string, e.g.
// "de ad be ef".
func BytesToHexSpaced(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out := make([]byte, 0, len(b)*3-1)
	for i, v := range b {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, hex.EncodeToString([]byte{v})...)
	}
	return string(out)
}
