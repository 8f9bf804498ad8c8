package pasori

import "testing"

func TestS310ModelInitSendsAndReceives(t *testing.T) {
	m := NewMockTransport(DeviceTypeS310)
	m.PushResponse([]byte{0xAB})
	model := &S310Model{}
	if err := model.Initialize(m); err != nil {
		t.Fatal(err)
	}
	if len(m.VendorCalls) != 1 {
		t.Fatalf("vendor calls = %d", len(m.VendorCalls))
	}
	vc := m.VendorCalls[0]
	if vc.Request != s310InitRequest || vc.Value != s310InitValue || vc.Index != s310InitIndex {
		t.Errorf("got %+v", vc)
	}
	if len(vc.Data) != 1 || vc.Data[0] != 0x54 {
		t.Errorf("got payload %v", vc.Data)
	}
}

func TestS310ModelInitFailsOnTimeout(t *testing.T) {
	m := NewMockTransport(DeviceTypeS310)
	model := &S310Model{}
	err := model.Initialize(m)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestS320ModelInitSendsSequence(t *testing.T) {
	m := NewMockTransport(DeviceTypeS320)
	m.PushResponse([]byte{0xAA})
	model := &S320Model{}
	if err := model.Initialize(m); err != nil {
		t.Fatal(err)
	}
	if len(m.VendorCalls) != 2 {
		t.Fatalf("vendor calls = %d", len(m.VendorCalls))
	}
	if string(m.VendorCalls[0].Data) != string([]byte{0x5C, 0x01}) {
		t.Errorf("got %v", m.VendorCalls[0].Data)
	}
	if string(m.VendorCalls[1].Data) != string([]byte{0x5C, 0x02}) {
		t.Errorf("got %v", m.VendorCalls[1].Data)
	}
}

func TestS320ModelInitFailsOnTimeout(t *testing.T) {
	m := NewMockTransport(DeviceTypeS320)
	model := &S320Model{}
	err := model.Initialize(m)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestS320ModelFallbackToReceiveOnControlFail(t *testing.T) {
	m := NewMockTransport(DeviceTypeS320)
	m.ControlFailures = 1
	m.PushResponse([]byte{0xBB})
	model := &S320Model{}
	if err := model.Initialize(m); err != nil {
		t.Fatal(err)
	}
	if len(m.VendorCalls) != 2 {
		t.Fatalf("vendor calls = %d", len(m.VendorCalls))
	}
}

func TestS330ModelSendsRCS956Init(t *testing.T) {
	m := NewMockTransport(DeviceTypeS330)
	m.PushResponse([]byte{0x00})
	model := &S330Model{}
	if err := model.Initialize(m); err != nil {
		t.Fatal(err)
	}
	if len(m.Sent) < 1 {
		t.Fatal("expected at least one send")
	}
	if string(m.Sent[0]) != string([]byte{0xD4, 0x32, 0x01, 0x01}) {
		t.Errorf("got %v", m.Sent[0])
	}
}

func TestS330ModelWrapCommandPolling(t *testing.T) {
	model := &S330Model{}
	payload := Polling{SystemCode: 0xFFFF, RequestCode: 0, TimeSlot: 0}.Encode()
	framed, err := EncodeFrame(payload)
	if err != nil {
		t.Fatal(err)
	}
	wrapped := model.WrapCommand(framed, payload)
	want := []byte{0xD4, 0x4A, 0x01, 0x01}
	for i, b := range want {
		if wrapped[i] != b {
			t.Fatalf("got %v", wrapped)
		}
	}
}

func TestS330ModelWrapCommandNonPollingUsesInCommunicateThru(t *testing.T) {
	model := &S330Model{}
	cmd := RequestResponse{IDm: IDm{1, 2, 3, 4, 5, 6, 7, 8}}
	payload := cmd.Encode()
	framed, err := EncodeFrame(payload)
	if err != nil {
		t.Fatal(err)
	}
	wrapped := model.WrapCommand(framed, payload)
	if wrapped[0] != 0xD4 || wrapped[1] != 0x42 || wrapped[2] != byte(len(payload)) {
		t.Fatalf("got %v", wrapped)
	}
}

func TestS330ModelWrapCommandForwardsAlreadyWrapped(t *testing.T) {
	model := &S330Model{}
	already := []byte{0xD4, 0x42, 0x01, 0x00}
	wrapped := model.WrapCommand(already, []byte{0x00})
	if string(wrapped) != string(already) {
		t.Errorf("got %v", wrapped)
	}
}

func TestS330ModelListPassiveTargetsMultipleCards(t *testing.T) {
	idm1 := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	pmm1 := [8]byte{9, 10, 11, 12, 13, 14, 15, 16}
	idm2 := [8]byte{21, 22, 23, 24, 25, 26, 27, 28}
	pmm2 := [8]byte{29, 30, 31, 32, 33, 34, 35, 36}

	p1 := append([]byte{0x01}, idm1[:]...)
	p1 = append(p1, pmm1[:]...)
	p1 = append(p1, 0x0b, 0x0a)
	f1, err := EncodeFrame(p1)
	if err != nil {
		t.Fatal(err)
	}

	p2 := append([]byte{0x01}, idm2[:]...)
	p2 = append(p2, pmm2[:]...)
	p2 = append(p2, 0x11, 0x11)
	f2, err := EncodeFrame(p2)
	if err != nil {
		t.Fatal(err)
	}

	pn := append([]byte{0xD5, 0x4B, 0x02}, f1...)
	pn = append(pn, f2...)

	m := NewMockTransport(DeviceTypeS330)
	m.PushResponse(pn)

	model := &S330Model{}
	cards, err := model.ListPassiveTargets(m, CardTypeF, 0x0A0B, 2, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards", len(cards))
	}
	if cards[0].IDm != IDm(idm1) || cards[1].IDm != IDm(idm2) {
		t.Errorf("got %+v", cards)
	}
}

func TestS330ModelListPassiveTargetsTypeA(t *testing.T) {
	raw := []byte{0xD5, 0x4B, 0x01, 0x01, 0x00, 0x04, 0x20, 0x04, 0xDE, 0xAD, 0xBE, 0xEF}
	m := NewMockTransport(DeviceTypeS330)
	m.PushResponse(raw)

	model := &S330Model{}
	cards, err := model.ListPassiveTargets(m, CardTypeA, 0, 1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 1 || cards[0].Type != CardTypeA {
		t.Fatalf("got %+v", cards)
	}
	if cards[0].UID.Hex() != "deadbeef" {
		t.Errorf("got %s", cards[0].UID.Hex())
	}
}

func TestS330ModelRealCaptureRecovery(t *testing.T) {
	// Concrete scenario 6 (spec.md §8): a real S330 capture with a leading
	// PN53x ACK frame and an unframed InListPassiveTarget payload.
	data := []byte{
		0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00,
		0x00, 0x00, 0xFF, 0x16, 0xEA,
		0xD5, 0x4B, 0x01,
		0x01, 0x12, 0x01, 0x01, 0x01, 0x01, 0x12, 0xEC,
		0x23, 0xAA, 0x1F, 0x01, 0x36, 0x42, 0x82, 0x47,
		0x45, 0x9A,
		0xFF, 0xBE, 0x00,
	}

	model := &S330Model{}
	cards := model.parseInListPassiveTargetF(data)
	if len(cards) < 1 {
		t.Fatalf("expected at least one recovered card, got %d", len(cards))
	}
	c := cards[0]
	wantIDm := [8]byte{0x01, 0x12, 0x01, 0x01, 0x01, 0x01, 0x12, 0xEC}
	wantPMm := [8]byte{0x23, 0xAA, 0x1F, 0x01, 0x36, 0x42, 0x82, 0x47}
	if c.IDm != IDm(wantIDm) {
		t.Errorf("idm = %x, want %x", c.IDm, wantIDm)
	}
	if c.PMm != PMm(wantPMm) {
		t.Errorf("pmm = %x, want %x", c.PMm, wantPMm)
	}
	if c.SystemCode != 0x9A45 {
		t.Errorf("system code = %04X, want 9A45", uint16(c.SystemCode))
	}
}
