package pasori

// Card is the tagged variant over the three contactless target families
// spec.md §3 describes: Type-F (IDm/PMm/SystemCode), Type-A (UID), and
// Type-B (UID/ATQB). Only Type-F supports the read/write/service
// operations below; the other variants fail with an unsupported-operation
// error. Represented as a flat struct with a discriminant field rather than
// an interface, since (unlike Command/Response) callers need to construct
// and compare Card values directly without a method-dispatch seam.
type Card struct {
	Type CardType

	// Populated only when Type == CardTypeF.
	IDm        IDm
	PMm        PMm
	SystemCode SystemCode

	// Populated only when Type == CardTypeA or CardTypeB.
	UID UID
	// Populated only when Type == CardTypeB.
	ATQB ATQB
}

// NewTypeFCard builds a Type-F Card, as produced by Polling or multi-target
// discovery.
func NewTypeFCard(idm IDm, pmm PMm, systemCode SystemCode) Card {
	return Card{Type: CardTypeF, IDm: idm, PMm: pmm, SystemCode: systemCode}
}

// NewTypeACard builds a Type-A Card from a discovered UID.
func NewTypeACard(uid UID) Card {
	return Card{Type: CardTypeA, UID: uid}
}

// NewTypeBCard builds a Type-B Card from a discovered UID and its ATQB.
func NewTypeBCard(uid UID, atqb ATQB) Card {
	return Card{Type: CardTypeB, UID: uid, ATQB: atqb}
}

// CardBuilder is a fluent constructor for a Type-F Card, useful for tests
// and for callers who already know a card's identity from a prior Polling
// result cached elsewhere (SPEC_FULL.md "Supplemented features", grounded
// on original_source/libpafe/src/card/builder.rs).
type CardBuilder struct {
	idm        []byte
	pmm        []byte
	systemCode SystemCode
}

// NewCardBuilder starts a fluent Type-F Card construction.
func NewCardBuilder() *CardBuilder {
	return &CardBuilder{}
}

// IDm sets the card's IDm bytes. Validated at Build().
func (b *CardBuilder) IDm(idm []byte) *CardBuilder {
	b.idm = idm
	return b
}

// PMm sets the card's PMm bytes. Validated at Build().
func (b *CardBuilder) PMm(pmm []byte) *CardBuilder {
	b.pmm = pmm
	return b
}

// SystemCode sets the card's system code.
func (b *CardBuilder) SystemCode(sc SystemCode) *CardBuilder {
	b.systemCode = sc
	return b
}

// Build validates the accumulated IDm/PMm lengths and returns the Type-F Card.
func (b *CardBuilder) Build() (Card, error) {
	idm, err := NewIDm(b.idm)
	if err != nil {
		return Card{}, err
	}
	pmm, err := NewPMm(b.pmm)
	if err != nil {
		return Card{}, err
	}
	return NewTypeFCard(idm, pmm, b.systemCode), nil
}

// CardInfo is a flattened, display-friendly snapshot of a Card
// (SPEC_FULL.md "Supplemented features", grounded on
// original_source/libpafe/src/card/info.rs).
type CardInfo struct {
	CardTypeName  string
	IDMHex        string
	SystemCodeHex string
	UIDHex        string
}

// NewCardInfo derives a display snapshot from c.
func NewCardInfo(c Card) CardInfo {
	info := CardInfo{CardTypeName: c.Type.String()}
	switch c.Type {
	case CardTypeF:
		info.IDMHex = c.IDm.Hex()
		info.SystemCodeHex = BytesToHex(c.SystemCode.LE2())
	case CardTypeA, CardTypeB:
		info.UIDHex = c.UID.Hex()
	}
	return info
}

// LE2 returns sc's little-endian wire encoding as a 2-byte slice, a
// display-friendly counterpart to LE()'s fixed-size array (used by
// CardInfo's hex rendering).
func (sc SystemCode) LE2() []byte {
	le := sc.LE()
	return le[:]
}

// idmMismatch reports whether the IDm on resp differs from the card's own,
// the "unexpected-response error" spec.md §4.10 requires on an IDm mismatch.
func idmMismatch(op string, card Card, respIDm IDm) error {
	if card.IDm == respIDm {
		return nil
	}
	return NewUnexpectedResponseError(op, 0, 0)
}

func requireTypeF(op string, c Card) error {
	if c.Type != CardTypeF {
		return NewUnsupportedOperationError(op, "operation requires a Type-F card")
	}
	return nil
}

// ReadBlocks reads blocks from one or more services without mutual
// authentication (spec.md §4.10).
func (c Card) ReadBlocks(d *InitializedDevice, services []ServiceCode, blocks []BlockElement) ([]BlockData, error) {
	const op = "Card.ReadBlocks"
	if err := requireTypeF(op, c); err != nil {
		return nil, err
	}
	resp, err := d.Execute(ReadWithoutEncryption{IDm: c.IDm, Services: services, Blocks: blocks}, DefaultReadTimeoutMs)
	if err != nil {
		return nil, err
	}
	rr, ok := resp.(ReadResponse)
	if !ok {
		return nil, NewUnexpectedResponseError(op, int(respCodeReadWithoutEncryption), int(resp.ResponseCode()))
	}
	if err := idmMismatch(op, c, rr.IDm); err != nil {
		return nil, err
	}
	return rr.Blocks, nil
}

// ReadSingle reads exactly one block from one service.
func (c Card) ReadSingle(d *InitializedDevice, service ServiceCode, block uint16) (BlockData, error) {
	blocks, err := c.ReadBlocks(d, []ServiceCode{service}, []BlockElement{{ServiceIndex: 0, AccessMode: AccessModeDirectAccessOrRead, BlockNumber: block}})
	if err != nil {
		return BlockData{}, err
	}
	if len(blocks) == 0 {
		return BlockData{}, NewInvalidLengthError("Card.ReadSingle", 1, 0)
	}
	return blocks[0], nil
}

// WriteBlocks writes one or more blocks, given parallel block/data slices,
// without mutual authentication (spec.md §4.10).
func (c Card) WriteBlocks(d *InitializedDevice, service ServiceCode, blockNumbers []uint16, data []BlockData) error {
	const op = "Card.WriteBlocks"
	if err := requireTypeF(op, c); err != nil {
		return err
	}
	if len(blockNumbers) != len(data) {
		return NewInvalidLengthError(op, len(blockNumbers), len(data))
	}
	blocks := make([]BlockElement, len(blockNumbers))
	for i, bn := range blockNumbers {
		blocks[i] = BlockElement{ServiceIndex: 0, AccessMode: AccessModeDirectAccessOrRead, BlockNumber: bn}
	}
	resp, err := d.Execute(WriteWithoutEncryption{IDm: c.IDm, Services: []ServiceCode{service}, Blocks: blocks, Data: data}, DefaultReadTimeoutMs)
	if err != nil {
		return err
	}
	wr, ok := resp.(WriteResponse)
	if !ok {
		return NewUnexpectedResponseError(op, int(respCodeWriteWithoutEncryption), int(resp.ResponseCode()))
	}
	return idmMismatch(op, c, wr.IDm)
}

// WriteSingle writes exactly one block to one service.
func (c Card) WriteSingle(d *InitializedDevice, service ServiceCode, block uint16, data BlockData) error {
	return c.WriteBlocks(d, service, []uint16{block}, []BlockData{data})
}

// RequestServiceVersions asks the card for service/area key version numbers
// of the given node codes.
func (c Card) RequestServiceVersions(d *InitializedDevice, nodeCodes []uint16) ([]uint16, error) {
	const op = "Card.RequestServiceVersions"
	if err := requireTypeF(op, c); err != nil {
		return nil, err
	}
	resp, err := d.Execute(RequestService{IDm: c.IDm, NodeCodes: nodeCodes}, DefaultReadTimeoutMs)
	if err != nil {
		return nil, err
	}
	rsr, ok := resp.(RequestServiceResponse)
	if !ok {
		return nil, NewUnexpectedResponseError(op, int(respCodeRequestService), int(resp.ResponseCode()))
	}
	if err := idmMismatch(op, c, rsr.IDm); err != nil {
		return nil, err
	}
	return rsr.Versions, nil
}

// RequestResponseMode asks the card for its current mode byte.
func (c Card) RequestResponseMode(d *InitializedDevice) (byte, error) {
	const op = "Card.RequestResponseMode"
	if err := requireTypeF(op, c); err != nil {
		return 0, err
	}
	resp, err := d.Execute(RequestResponse{IDm: c.IDm}, DefaultReadTimeoutMs)
	if err != nil {
		return 0, err
	}
	rrr, ok := resp.(RequestResponseResponse)
	if !ok {
		return 0, NewUnexpectedResponseError(op, int(respCodeRequestResponse), int(resp.ResponseCode()))
	}
	if err := idmMismatch(op, c, rrr.IDm); err != nil {
		return 0, err
	}
	return rrr.Mode, nil
}

// RequestSystemCodes asks the card for every system code it hosts.
func (c Card) RequestSystemCodes(d *InitializedDevice) ([]SystemCode, error) {
	const op = "Card.RequestSystemCodes"
	if err := requireTypeF(op, c); err != nil {
		return nil, err
	}
	resp, err := d.Execute(RequestSystemCode{IDm: c.IDm}, DefaultReadTimeoutMs)
	if err != nil {
		return nil, err
	}
	rscr, ok := resp.(RequestSystemCodeResponse)
	if !ok {
		return nil, NewUnexpectedResponseError(op, int(respCodeRequestSystemCode), int(resp.ResponseCode()))
	}
	if err := idmMismatch(op, c, rscr.IDm); err != nil {
		return nil, err
	}
	return rscr.SystemCodes, nil
}

// Services returns a lazy sequence (Go 1.23+ range-over-func iterator) that
// issues SearchServiceCode with index 0, 1, 2, ..., yields each present
// service code, and stops on the first absent response or any error
// (yielded once, then the sequence ends). The iterator exclusively borrows
// d for its lifetime: d.Execute refuses any other call while the sequence
// is being ranged over, matching spec.md §9's "no second operation on the
// handle can occur while the iterator is live" (enforced here with a plain
// busy flag rather than Rust's borrow checker).
func (c Card) Services(d *InitializedDevice) func(yield func(ServiceCode, error) bool) {
	return func(yield func(ServiceCode, error) bool) {
		const op = "Card.Services"
		if err := requireTypeF(op, c); err != nil {
			yield(0, err)
			return
		}

		d.busy = true
		defer func() { d.busy = false }()

		for idx := uint16(0); ; idx++ {
			resp, err := d.execute(SearchServiceCode{IDm: c.IDm, Index: idx}, DefaultReadTimeoutMs)
			if err != nil {
				yield(0, err)
				return
			}
			sr, ok := resp.(SearchServiceCodeResponse)
			if !ok {
				yield(0, NewUnexpectedResponseError(op, int(respCodeSearchServiceCode), int(resp.ResponseCode())))
				return
			}
			if err := idmMismatch(op, c, sr.IDm); err != nil {
				yield(0, err)
				return
			}
			if sr.AreaOrServiceCode == nil {
				return
			}
			if !yield(ServiceCode(*sr.AreaOrServiceCode), nil) {
				return
			}
		}
	}
}
