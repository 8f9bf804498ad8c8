package pasori

// Command codes, the first payload byte of every FeliCa command (spec.md §4.3).
const (
	cmdCodePolling                = 0x00
	cmdCodeRequestService         = 0x02
	cmdCodeRequestResponse        = 0x04
	cmdCodeReadWithoutEncryption  = 0x06
	cmdCodeWriteWithoutEncryption = 0x08
	cmdCodeSearchServiceCode      = 0x0A
	cmdCodeRequestSystemCode      = 0x0C
)

// Command is the closed family of seven FeliCa commands this driver
// supports. Represented as an interface with one struct per case per
// spec.md §9 ("interface with N implementations maps cleanly").
type Command interface {
	// CommandCode returns the FeliCa command code (the first encoded byte).
	CommandCode() byte
	// Encode renders the command's raw payload (command code + parameters).
	Encode() []byte
}

// Polling requests all Type-F targets matching system_code to respond.
type Polling struct {
	SystemCode  SystemCode
	RequestCode byte
	TimeSlot    byte
}

func (c Polling) CommandCode() byte { return cmdCodePolling }

func (c Polling) Encode() []byte {
	le := c.SystemCode.LE()
	return []byte{cmdCodePolling, le[0], le[1], c.RequestCode, c.TimeSlot}
}

// RequestService asks a card to report service/area versions for node_codes.
type RequestService struct {
	IDm       IDm
	NodeCodes []uint16
}

func (c RequestService) CommandCode() byte { return cmdCodeRequestService }

func (c RequestService) Encode() []byte {
	buf := make([]byte, 0, 1+8+1+2*len(c.NodeCodes))
	buf = append(buf, cmdCodeRequestService)
	buf = append(buf, c.IDm[:]...)
	buf = append(buf, byte(len(c.NodeCodes)))
	for _, n := range c.NodeCodes {
		buf = append(buf, byte(n), byte(n>>8))
	}
	return buf
}

// RequestResponse asks a card to report its current mode.
type RequestResponse struct {
	IDm IDm
}

func (c RequestResponse) CommandCode() byte { return cmdCodeRequestResponse }

func (c RequestResponse) Encode() []byte {
	buf := make([]byte, 0, 1+8)
	buf = append(buf, cmdCodeRequestResponse)
	buf = append(buf, c.IDm[:]...)
	return buf
}

// ReadWithoutEncryption reads blocks from one or more services without
// mutual authentication.
type ReadWithoutEncryption struct {
	IDm      IDm
	Services []ServiceCode
	Blocks   []BlockElement
}

func (c ReadWithoutEncryption) CommandCode() byte { return cmdCodeReadWithoutEncryption }

func (c ReadWithoutEncryption) Encode() []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, cmdCodeReadWithoutEncryption)
	buf = append(buf, c.IDm[:]...)
	buf = append(buf, byte(len(c.Services)))
	for _, svc := range c.Services {
		le := svc.LE()
		buf = append(buf, le[0], le[1])
	}
	buf = append(buf, byte(len(c.Blocks)))
	for _, blk := range c.Blocks {
		buf = append(buf, blk.Encode()...)
	}
	return buf
}

// WriteWithoutEncryption writes one or more blocks without mutual
// authentication. A single-block write is the N=1 case of the same shape
// (spec.md §4.3: "A single Write accepts one or many blocks").
type WriteWithoutEncryption struct {
	IDm      IDm
	Services []ServiceCode
	Blocks   []BlockElement
	Data     []BlockData
}

func (c WriteWithoutEncryption) CommandCode() byte { return cmdCodeWriteWithoutEncryption }

func (c WriteWithoutEncryption) Encode() []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, cmdCodeWriteWithoutEncryption)
	buf = append(buf, c.IDm[:]...)
	buf = append(buf, byte(len(c.Services)))
	for _, svc := range c.Services {
		le := svc.LE()
		buf = append(buf, le[0], le[1])
	}
	buf = append(buf, byte(len(c.Blocks)))
	for _, blk := range c.Blocks {
		buf = append(buf, blk.Encode()...)
	}
	for _, d := range c.Data {
		buf = append(buf, d[:]...)
	}
	return buf
}

// SearchServiceCode enumerates a card's service codes by index.
type SearchServiceCode struct {
	IDm   IDm
	Index uint16
}

func (c SearchServiceCode) CommandCode() byte { return cmdCodeSearchServiceCode }

func (c SearchServiceCode) Encode() []byte {
	buf := make([]byte, 0, 1+8+2)
	buf = append(buf, cmdCodeSearchServiceCode)
	buf = append(buf, c.IDm[:]...)
	buf = append(buf, byte(c.Index), byte(c.Index>>8))
	return buf
}

// RequestSystemCode asks a card to report all system codes it hosts.
type RequestSystemCode struct {
	IDm IDm
}

func (c RequestSystemCode) CommandCode() byte { return cmdCodeRequestSystemCode }

func (c RequestSystemCode) Encode() []byte {
	buf := make([]byte, 0, 1+8)
	buf = append(buf, cmdCodeRequestSystemCode)
	buf = append(buf, c.IDm[:]...)
	return buf
}
