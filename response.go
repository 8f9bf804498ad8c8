package pasori

// Response codes, command_code + 1 (spec.md §4.4).
const (
	respCodePolling                = cmdCodePolling + 1
	respCodeRequestService         = cmdCodeRequestService + 1
	respCodeRequestResponse        = cmdCodeRequestResponse + 1
	respCodeReadWithoutEncryption  = cmdCodeReadWithoutEncryption + 1
	respCodeWriteWithoutEncryption = cmdCodeWriteWithoutEncryption + 1
	respCodeSearchServiceCode      = cmdCodeSearchServiceCode + 1
	respCodeRequestSystemCode      = cmdCodeRequestSystemCode + 1
)

// Response is the closed family of seven FeliCa responses, mirroring Command.
type Response interface {
	// ResponseCode returns the FeliCa response code this variant decodes.
	ResponseCode() byte
}

// PollingResponse carries the identity of a target that answered Polling.
type PollingResponse struct {
	IDm        IDm
	PMm        PMm
	SystemCode SystemCode
}

func (PollingResponse) ResponseCode() byte { return respCodePolling }

// RequestServiceResponse carries service/area key version numbers.
type RequestServiceResponse struct {
	IDm      IDm
	Versions []uint16
}

func (RequestServiceResponse) ResponseCode() byte { return respCodeRequestService }

// RequestResponseResponse carries a card's current mode byte.
type RequestResponseResponse struct {
	IDm  IDm
	Mode byte
}

func (RequestResponseResponse) ResponseCode() byte { return respCodeRequestResponse }

// ReadResponse carries the blocks read, once the (0,0) status check has passed.
type ReadResponse struct {
	IDm     IDm
	Status1 byte
	Status2 byte
	Blocks  []BlockData
}

func (ReadResponse) ResponseCode() byte { return respCodeReadWithoutEncryption }

// WriteResponse carries the per-block status pairs, once it is established
// none of them signals an error.
type WriteResponse struct {
	IDm      IDm
	Statuses [][2]byte
}

func (WriteResponse) ResponseCode() byte { return respCodeWriteWithoutEncryption }

// SearchServiceCodeResponse carries the service/area code found at the
// requested index, or none if the index is beyond the card's service list.
type SearchServiceCodeResponse struct {
	IDm               IDm
	AreaOrServiceCode *uint16
}

func (SearchServiceCodeResponse) ResponseCode() byte { return respCodeSearchServiceCode }

// RequestSystemCodeResponse carries every system code hosted by the card.
type RequestSystemCodeResponse struct {
	IDm         IDm
	SystemCodes []SystemCode
}

func (RequestSystemCodeResponse) ResponseCode() byte { return respCodeRequestSystemCode }

// DecodeResponse dispatches payload (including its response-code byte) to the
// decoder for expectedCmd, after verifying the response code matches
// expectedCmd+1. No decoder in this file may panic on any input; every path
// is bounds-checked (spec.md Property 5).
func DecodeResponse(expectedCmd byte, payload []byte) (Response, error) {
	const op = "DecodeResponse"
	if err := ensureLen(op, payload, 1); err != nil {
		return nil, err
	}
	expectedResp := expectedCmd + 1
	if err := expectResponseCode(op, payload, expectedResp); err != nil {
		return nil, err
	}

	switch expectedCmd {
	case cmdCodePolling:
		return decodePolling(payload)
	case cmdCodeReadWithoutEncryption:
		return decodeRead(payload)
	case cmdCodeWriteWithoutEncryption:
		return decodeWrite(payload)
	case cmdCodeRequestService:
		return decodeRequestService(payload)
	case cmdCodeRequestResponse:
		return decodeRequestResponse(payload)
	case cmdCodeRequestSystemCode:
		return decodeRequestSystemCode(payload)
	case cmdCodeSearchServiceCode:
		return decodeSearchServiceCode(payload)
	default:
		var actual byte
		if len(payload) > 0 {
			actual = payload[0]
		}
		return nil, NewUnexpectedResponseError(op, int(expectedResp), int(actual))
	}
}

// decodePolling decodes response code 0x01: idm(8), pmm(8), system_code(2).
func decodePolling(data []byte) (Response, error) {
	const op, minLen = "decodePolling", 1+8+8+2
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	pmm, err := pmmAt(op, data, 9)
	if err != nil {
		return nil, err
	}
	sc, err := leUint16At(op, data, 17)
	if err != nil {
		return nil, err
	}
	return PollingResponse{IDm: idm, PMm: pmm, SystemCode: SystemCode(sc)}, nil
}

// decodeRead decodes response code 0x07: idm(8), status1, status2, block_count, blocks(16*N).
func decodeRead(data []byte) (Response, error) {
	const op, minLen = "decodeRead", 1+8+1+1+1
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	status1, err := byteAt(op, data, 9)
	if err != nil {
		return nil, err
	}
	status2, err := byteAt(op, data, 10)
	if err != nil {
		return nil, err
	}
	if status1 != 0 || status2 != 0 {
		return nil, NewFelicaStatusError(op, status1, status2)
	}
	blockCountByte, err := byteAt(op, data, 11)
	if err != nil {
		return nil, err
	}
	blockCount := int(blockCountByte)
	needed := 12 + blockCount*16
	if err := ensureLen(op, data, needed); err != nil {
		return nil, err
	}
	blocks := make([]BlockData, 0, blockCount)
	for i := 0; i < blockCount; i++ {
		offset := 12 + i*16
		s, err := sliceAt(op, data, offset, 16)
		if err != nil {
			return nil, err
		}
		bd, err := NewBlockData(s)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, bd)
	}
	return ReadResponse{IDm: idm, Status1: status1, Status2: status2, Blocks: blocks}, nil
}

// decodeWrite decodes response code 0x09: idm(8), status pairs (2 each, >= 1).
func decodeWrite(data []byte) (Response, error) {
	const op, minLen = "decodeWrite", 1+8+2
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	remaining := len(data) - 9
	if remaining < 2 || remaining%2 != 0 {
		return nil, NewInvalidLengthError(op, minLen, len(data))
	}
	count := remaining / 2
	statuses := make([][2]byte, count)
	for i := 0; i < count; i++ {
		off := 9 + i*2
		s1, err := byteAt(op, data, off)
		if err != nil {
			return nil, err
		}
		s2, err := byteAt(op, data, off+1)
		if err != nil {
			return nil, err
		}
		statuses[i] = [2]byte{s1, s2}
	}
	for i, pair := range statuses {
		if pair[0] != 0 || pair[1] != 0 {
			if len(statuses) == 1 {
				return nil, NewFelicaStatusError(op, pair[0], pair[1])
			}
			return nil, NewFelicaBlockStatusError(op, i, pair[0], pair[1])
		}
	}
	return WriteResponse{IDm: idm, Statuses: statuses}, nil
}

// decodeRequestService decodes response code 0x03: idm(8), count(1), versions(2*N).
func decodeRequestService(data []byte) (Response, error) {
	const op, minLen = "decodeRequestService", 1+8+1
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	countByte, err := byteAt(op, data, 9)
	if err != nil {
		return nil, err
	}
	count := int(countByte)
	needed := 10 + count*2
	if err := ensureLen(op, data, needed); err != nil {
		return nil, err
	}
	versions := make([]uint16, count)
	for i := 0; i < count; i++ {
		v, err := leUint16At(op, data, 10+i*2)
		if err != nil {
			return nil, err
		}
		versions[i] = v
	}
	return RequestServiceResponse{IDm: idm, Versions: versions}, nil
}

// decodeRequestResponse decodes response code 0x05: idm(8), mode(1).
func decodeRequestResponse(data []byte) (Response, error) {
	const op, minLen = "decodeRequestResponse", 1+8+1
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	mode, err := byteAt(op, data, 9)
	if err != nil {
		return nil, err
	}
	return RequestResponseResponse{IDm: idm, Mode: mode}, nil
}

// decodeRequestSystemCode decodes response code 0x0D: idm(8), count(1), codes(2*N).
func decodeRequestSystemCode(data []byte) (Response, error) {
	const op, minLen = "decodeRequestSystemCode", 1+8+1
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	countByte, err := byteAt(op, data, 9)
	if err != nil {
		return nil, err
	}
	count := int(countByte)
	needed := 10 + count*2
	if err := ensureLen(op, data, needed); err != nil {
		return nil, err
	}
	codes := make([]SystemCode, count)
	for i := 0; i < count; i++ {
		v, err := leUint16At(op, data, 10+i*2)
		if err != nil {
			return nil, err
		}
		codes[i] = SystemCode(v)
	}
	return RequestSystemCodeResponse{IDm: idm, SystemCodes: codes}, nil
}

// decodeSearchServiceCode decodes response code 0x0B: idm(8), present_flag(1),
// optional service code (2, only if present_flag != 0).
func decodeSearchServiceCode(data []byte) (Response, error) {
	const op, minLen = "decodeSearchServiceCode", 1+8+1
	if err := ensureLen(op, data, minLen); err != nil {
		return nil, err
	}
	idm, err := idmAt(op, data, 1)
	if err != nil {
		return nil, err
	}
	present, err := byteAt(op, data, 9)
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return SearchServiceCodeResponse{IDm: idm}, nil
	}
	if err := ensureLen(op, data, minLen+2); err != nil {
		return nil, err
	}
	code, err := leUint16At(op, data, 10)
	if err != nil {
		return nil, err
	}
	return SearchServiceCodeResponse{IDm: idm, AreaOrServiceCode: &code}, nil
}
