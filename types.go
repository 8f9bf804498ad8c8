package pasori

import "encoding/binary"

// IDm is the 8-byte manufacture identifier returned in a Polling response.
type IDm [8]byte

// NewIDm validates b is exactly 8 bytes and returns an IDm copy of it.
func NewIDm(b []byte) (IDm, error) {
	var idm IDm
	if len(b) != 8 {
		return idm, NewInvalidLengthError("NewIDm", 8, len(b))
	}
	copy(idm[:], b)
	return idm, nil
}

// Bytes returns a copy of idm's 8 bytes.
func (idm IDm) Bytes() []byte {
	b := make([]byte, 8)
	copy(b, idm[:])
	return b
}

// Hex returns idm as a lowercase hex string, e.g. "deadbeef00112233".
func (idm IDm) Hex() string {
	return BytesToHex(idm[:])
}

// PMm is the 8-byte manufacture parameter returned in a Polling response.
type PMm [8]byte

// NewPMm validates b is exactly 8 bytes and returns a PMm copy of it.
func NewPMm(b []byte) (PMm, error) {
	var pmm PMm
	if len(b) != 8 {
		return pmm, NewInvalidLengthError("NewPMm", 8, len(b))
	}
	copy(pmm[:], b)
	return pmm, nil
}

// Bytes returns a copy of pmm's 8 bytes.
func (pmm PMm) Bytes() []byte {
	b := make([]byte, 8)
	copy(b, pmm[:])
	return b
}

// Hex returns pmm as a lowercase hex string.
func (pmm PMm) Hex() string {
	return BytesToHex(pmm[:])
}

// SystemCode identifies a FeliCa system on a card.
type SystemCode uint16

// Named system codes used to filter Polling/discovery.
const (
	SystemCodeAny    SystemCode = 0xFFFF
	SystemCodeCommon SystemCode = 0xFE00
	SystemCodeSuica  SystemCode = 0x0003
)

// LE returns the little-endian wire encoding of sc.
func (sc SystemCode) LE() [2]byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(sc))
	return b
}

// SystemCodeFromLE decodes a little-endian system code.
func SystemCodeFromLE(b [2]byte) SystemCode {
	return SystemCode(binary.LittleEndian.Uint16(b[:]))
}

// ServiceCode identifies a file service on a card.
type ServiceCode uint16

// LE returns the little-endian wire encoding of svc.
func (svc ServiceCode) LE() [2]byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(svc))
	return b
}

// BlockData is the fixed 16-byte payload of one FeliCa block.
type BlockData [16]byte

// NewBlockData validates b is exactly 16 bytes and returns a BlockData copy of it.
func NewBlockData(b []byte) (BlockData, error) {
	var bd BlockData
	if len(b) != 16 {
		return bd, NewInvalidLengthError("NewBlockData", 16, len(b))
	}
	copy(bd[:], b)
	return bd, nil
}

// Hex returns bd as a space-separated hex dump, e.g. "61 61 61 ...".
func (bd BlockData) Hex() string {
	return BytesToHexSpaced(bd[:])
}

// ASCIISafe renders bd as printable ASCII, substituting '.' for any
// non-graphic, non-space byte. Useful for quick eyeballing of block contents.
func (bd BlockData) ASCIISafe() string {
	out := make([]byte, len(bd))
	for i, b := range bd {
		if (b >= 0x21 && b <= 0x7E) || b == ' ' {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// AccessMode selects how a block is accessed within a FeliCa service.
type AccessMode uint8

const (
	AccessModeCashBackOrDecrement     AccessMode = 0
	AccessModeDirectAccessOrDecrement AccessMode = 1
	AccessModeDirectAccessOrRead      AccessMode = 2
)

// BlockElement describes one block access within a Read/Write command.
type BlockElement struct {
	ServiceIndex uint8
	AccessMode   AccessMode
	BlockNumber  uint16
}

// Encode renders the block element in its FeliCa wire form. The 3-byte form
// is used when BlockNumber fits in one byte; otherwise the 2-byte element
// form is emitted (high bit of the access-mode byte set, per the FeliCa
// 2-byte block-list-element convention) so no information is silently
// dropped (spec.md §9 Open Question, resolved here).
func (be BlockElement) Encode() []byte {
	if be.BlockNumber <= 0xFF {
		return []byte{be.ServiceIndex, byte(be.AccessMode), byte(be.BlockNumber)}
	}
	out := make([]byte, 4)
	out[0] = be.ServiceIndex
	out[1] = byte(be.AccessMode) | 0x80
	binary.LittleEndian.PutUint16(out[2:4], be.BlockNumber)
	return out
}

// DeviceType identifies the PaSoRi hardware generation.
type DeviceType int

const (
	DeviceTypeS310 DeviceType = iota + 1
	DeviceTypeS320
	DeviceTypeS330
)

// USBVendorID is Sony's vendor id, shared by all three PaSoRi generations.
const USBVendorID = 0x054C

// Known USB product ids, keyed by hardware generation.
const (
	USBProductIDS310 = 0x006C
	USBProductIDS320 = 0x01BB
	USBProductIDS330 = 0x02E1
)

// DeviceTypeFromProductID maps a USB product id to a DeviceType. ok is false
// for an unrecognized product id.
func DeviceTypeFromProductID(pid int) (dt DeviceType, ok bool) {
	switch pid {
	case USBProductIDS310:
		return DeviceTypeS310, true
	case USBProductIDS320:
		return DeviceTypeS320, true
	case USBProductIDS330:
		return DeviceTypeS330, true
	default:
		return 0, false
	}
}

func (dt DeviceType) String() string {
	switch dt {
	case DeviceTypeS310:
		return "S310"
	case DeviceTypeS320:
		return "S320"
	case DeviceTypeS330:
		return "S330"
	default:
		return "unknown"
	}
}

// CardType identifies the contactless target family of a Card.
type CardType int

const (
	CardTypeF CardType = iota + 1
	CardTypeA
	CardTypeB
)

func (ct CardType) String() string {
	switch ct {
	case CardTypeF:
		return "TypeF"
	case CardTypeA:
		return "TypeA"
	case CardTypeB:
		return "TypeB"
	default:
		return "unknown"
	}
}

// UID is a variable-length identifier carried by ISO 14443 Type-A/B targets.
type UID []byte

// Hex returns uid as a lowercase hex string.
func (uid UID) Hex() string {
	return BytesToHex(uid)
}

// ATQB is the 12-byte Answer To reQuest type B payload returned by a Type-B
// target during InListPassiveTarget. Bytes 1..5 are the PUPI, used as the
// Type-B card's UID (spec.md §4.7.3).
type ATQB [12]byte

// PUPI returns the 4-byte pseudo-unique PICC identifier embedded in the ATQB.
func (a ATQB) PUPI() UID {
	uid := make(UID, 4)
	copy(uid, a[1:5])
	return uid
}
