package pasori

import "testing"

func TestDecodeResponsePollingOK(t *testing.T) {
	data := []byte{0x01}
	data = append(data, 1, 2, 3, 4, 5, 6, 7, 8)
	data = append(data, 9, 10, 11, 12, 13, 14, 15, 16)
	sc := SystemCode(0x0A0B).LE()
	data = append(data, sc[0], sc[1])

	resp, err := DecodeResponse(cmdCodePolling, data)
	if err != nil {
		t.Fatal(err)
	}
	pr, ok := resp.(PollingResponse)
	if !ok {
		t.Fatalf("got %T", resp)
	}
	if pr.IDm.Hex() != "0102030405060708" {
		t.Errorf("idm = %s", pr.IDm.Hex())
	}
	if pr.PMm.Hex() != "090a0b0c0d0e0f10" {
		t.Errorf("pmm = %s", pr.PMm.Hex())
	}
	if pr.SystemCode != 0x0A0B {
		t.Errorf("system code = %#x", pr.SystemCode)
	}
}

func TestDecodeResponseReadSingleBlock(t *testing.T) {
	data := []byte{0x07}
	data = append(data, 1, 2, 3, 4, 5, 6, 7, 8)
	data = append(data, 0x00, 0x00, 0x01)
	block := make([]byte, 16)
	for i := range block {
		block[i] = 0x99
	}
	data = append(data, block...)

	resp, err := DecodeResponse(cmdCodeReadWithoutEncryption, data)
	if err != nil {
		t.Fatal(err)
	}
	rr, ok := resp.(ReadResponse)
	if !ok {
		t.Fatalf("got %T", resp)
	}
	if rr.Status1 != 0 || rr.Status2 != 0 {
		t.Errorf("status = (%d,%d)", rr.Status1, rr.Status2)
	}
	if len(rr.Blocks) != 1 {
		t.Fatalf("got %d blocks", len(rr.Blocks))
	}
	for _, b := range rr.Blocks[0] {
		if b != 0x99 {
			t.Fatalf("got block %v", rr.Blocks[0])
		}
	}
}

func TestDecodeResponseWriteStatusError(t *testing.T) {
	data := []byte{0x09}
	data = append(data, 1, 2, 3, 4, 5, 6, 7, 8)
	data = append(data, 0xA4, 0x00)

	_, err := DecodeResponse(cmdCodeWriteWithoutEncryption, data)
	var e *Error
	if !errorsAs(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Code != ErrCodeFelicaStatus || e.Status1 != 0xA4 || e.Status2 != 0x00 {
		t.Errorf("got %+v", e)
	}
}

func TestDecodeResponseWriteBlockStatusError(t *testing.T) {
	data := []byte{0x09}
	data = append(data, 1, 2, 3, 4, 5, 6, 7, 8)
	data = append(data, 0x00, 0x00, 0xA4, 0x00)

	_, err := DecodeResponse(cmdCodeWriteWithoutEncryption, data)
	if CodeOf(err) != ErrCodeFelicaBlockStatus {
		t.Fatalf("expected block status error, got %v", err)
	}
}

func TestDecodeResponseSearchServiceCode(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		data := []byte{0x0B}
		data = append(data, 9, 8, 7, 6, 5, 4, 3, 2)
		data = append(data, 0)
		resp, err := DecodeResponse(cmdCodeSearchServiceCode, data)
		if err != nil {
			t.Fatal(err)
		}
		sr := resp.(SearchServiceCodeResponse)
		if sr.AreaOrServiceCode != nil {
			t.Errorf("expected nil, got %v", *sr.AreaOrServiceCode)
		}
	})

	t.Run("found", func(t *testing.T) {
		data := []byte{0x0B}
		data = append(data, 1, 2, 3, 4, 5, 6, 7, 8)
		data = append(data, 1, 0x34, 0x12)
		resp, err := DecodeResponse(cmdCodeSearchServiceCode, data)
		if err != nil {
			t.Fatal(err)
		}
		sr := resp.(SearchServiceCodeResponse)
		if sr.AreaOrServiceCode == nil || *sr.AreaOrServiceCode != 0x1234 {
			t.Errorf("got %v", sr.AreaOrServiceCode)
		}
	})
}

func TestDecodeResponseUnexpectedCode(t *testing.T) {
	data := []byte{0x00}
	data = append(data, 1, 2, 3, 4, 5, 6, 7, 8)
	data = append(data, 9, 10, 11, 12, 13, 14, 15, 16)
	data = append(data, 0x0b, 0x0a)
	_, err := DecodeResponse(cmdCodePolling, data)
	if CodeOf(err) != ErrCodeUnexpectedResponse {
		t.Fatalf("expected unexpected response error, got %v", err)
	}
}

func TestDecodeResponseNoPanicOnRandomPayloads(t *testing.T) {
	cmds := []byte{cmdCodePolling, cmdCodeReadWithoutEncryption, cmdCodeWriteWithoutEncryption,
		cmdCodeRequestService, cmdCodeRequestResponse, cmdCodeRequestSystemCode, cmdCodeSearchServiceCode}
	lengths := []int{0, 1, 2, 5, 9, 10, 11, 12, 19, 20, 63}
	for _, cmd := range cmds {
		for _, n := range lengths {
			buf := make([]byte, n)
			for i := range buf {
				buf[i] = byte(i)
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("cmd=%#x len=%d panicked: %v", cmd, n, r)
					}
				}()
				_, _ = DecodeResponse(cmd, buf)
			}()
		}
	}
}

// errorsAs is a tiny local alias so tests read a bit more like the teacher's,
// avoiding a direct "errors" import duplicated across every test file.
func errorsAs(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
