package pasori

import "testing"

func TestBytesToHex(t *testing.T) {
	got := BytesToHex([]byte{0xde, 0xad, 0xbe, 0xef})
	if got != "deadbeef" {
		t.Errorf("got %q", got)
	}
}

func TestBytesToHexEmpty(t *testing.T) {
	if got := BytesToHex(nil); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestBytesToHexSpaced(t *testing.T) {
	got := BytesToHexSpaced([]byte{0xde, 0xad, 0xbe, 0xef})
	if got != "de ad be ef" {
		t.Errorf("got %q", got)
	}
}

func TestBytesToHexSpacedSingleByte(t *testing.T) {
	if got := BytesToHexSpaced([]byte{0x01}); got != "01" {
		t.Errorf("got %q", got)
	}
}

func TestBytesToHexSpacedEmpty(t *testing.T) {
	if got := BytesToHexSpaced(nil); got != "" {
		t.Errorf("got %q", got)
	}
}
