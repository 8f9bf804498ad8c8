package pasori

import (
	"log"

	"github.com/google/uuid"
)

// Device is the uninitialized type-state handle: it owns a Transport and
// knows its DeviceType, but exposes nothing that talks FeliCa yet (spec.md
// §4.9, §9 "Type-state vs runtime state" — Go has no phantom types, so the
// two states are distinct structs sharing no methods).
type Device struct {
	transport Transport
	devType   DeviceType
	sessionID uuid.UUID
	logger    *log.Logger
}

// Open wraps an already-opened Transport in an uninitialized Device handle.
// The transport's reported DeviceType is cached for the handle's lifetime.
func Open(t Transport) *Device {
	return &Device{
		transport: t,
		devType:   t.DeviceType(),
		sessionID: uuid.New(),
	}
}

// SetLogger attaches an optional debug logger used only for the best-effort
// steps whose errors the handle itself swallows (the S330 post-ACK
// follow-up read, and closing the transport after a failed
// initialization); errors swallowed inside the models and the transport
// are not logged. Diagnostics are
// tagged with the handle's session id so concurrent pasorictl runs against
// different readers can be told apart, grounded on how the teacher tags
// client sessions with uuid.New() in server/consumerserver/server.go. A nil
// logger (the default) keeps the library silent, matching SPEC_FULL.md's
// "library itself stays silent" ambient-logging rule.
func (d *Device) SetLogger(l *log.Logger) {
	d.logger = l
}

func (d *Device) debugf(format string, args ...interface{}) {
	if d.logger == nil {
		return
	}
	d.logger.Printf("[session %s] "+format, append([]interface{}{d.sessionID}, args...)...)
}

// DeviceType reports the detected hardware generation.
func (d *Device) DeviceType() DeviceType {
	return d.devType
}

// Initialize performs transport.Reset() then the model-specific handshake
// (spec.md §4.9: "call transport.reset() then model.initialize(transport)";
// on error the handle and its transport are released"). On success it
// returns the initialized handle; on failure the transport is closed if it
// supports io.Closer-style cleanup via Close(), and the error is returned.
func (d *Device) Initialize() (*InitializedDevice, error) {
	if err := d.transport.Reset(); err != nil {
		d.release()
		return nil, err
	}

	model := CreateModelFor(d.devType)
	if err := model.Initialize(d.transport); err != nil {
		d.release()
		return nil, err
	}

	return &InitializedDevice{
		transport: d.transport,
		devType:   d.devType,
		model:     model,
		sessionID: d.sessionID,
		logger:    d.logger,
	}, nil
}

// release best-effort closes the transport on initialization failure.
// Closing is itself best-effort (spec.md §7): a Close error here would only
// ever compound an already-surfaced initialization error.
func (d *Device) release() {
	type closer interface{ Close() error }
	if c, ok := d.transport.(closer); ok {
		if err := c.Close(); err != nil {
			d.debugf("transport close on init failure: %v", err)
		}
	}
}

// InitializedDevice is the post-handshake type-state: the only handle that
// may execute FeliCa commands (spec.md §4.9). It exclusively owns its
// transport (spec.md §5): busy tracks whether a Services() iterator (C11)
// currently holds exclusive use of the handle, so a second call to Execute
// while the iterator is live fails loudly instead of interleaving requests
// on the same transport.
type InitializedDevice struct {
	transport Transport
	devType   DeviceType
	model     DeviceModel
	sessionID uuid.UUID
	logger    *log.Logger

	busy bool
}

func (d *InitializedDevice) debugf(format string, args ...interface{}) {
	if d.logger == nil {
		return
	}
	d.logger.Printf("[session %s] "+format, append([]interface{}{d.sessionID}, args...)...)
}

// DeviceType reports the detected hardware generation.
func (d *InitializedDevice) DeviceType() DeviceType {
	return d.devType
}

// DefaultReadTimeoutMs is the library-wide default receive timeout
// (spec.md §6).
const DefaultReadTimeoutMs = 1000

// Execute sends command, awaits its response, and decodes it, per spec.md
// §4.9 steps 1-7: build payload+frame, let the active model wrap it for
// transmission, send/receive, apply the S330 ACK-follow-up quirk, unwrap any
// device envelope, decode the FeliCa frame and then the response — and, only
// on an S330, retry via the model's extractor before giving up.
func (d *InitializedDevice) Execute(cmd Command, timeoutMs int) (Response, error) {
	if d.busy {
		return nil, NewUnsupportedOperationError("Execute", "device handle is exclusively borrowed by a live Services iterator")
	}
	return d.execute(cmd, timeoutMs)
}

// execute is Execute's body without the busy check, so a live Services
// iterator (which holds the "lock" by setting busy) can still drive
// commands through the same handle it exclusively borrows.
func (d *InitializedDevice) execute(cmd Command, timeoutMs int) (Response, error) {
	payload := cmd.Encode()
	framed, err := EncodeFrame(payload)
	if err != nil {
		return nil, err
	}

	toSend := d.model.WrapCommand(framed, payload)
	if err := d.transport.Send(toSend); err != nil {
		return nil, err
	}

	raw, err := d.transport.Receive(timeoutMs)
	if err != nil {
		return nil, err
	}

	if d.devType == DeviceTypeS330 && len(raw) == len(felicaACKFrame) && [6]byte(raw[:6]) == felicaACKFrame {
		if more, err := d.transport.Receive(timeoutMs); err == nil {
			raw = append(raw, more...)
		} else {
			d.debugf("post-ACK follow-up receive: %v", err)
		}
	}

	cmdCode := cmd.CommandCode()
	inner, err := d.model.UnwrapResponse(cmdCode, raw)
	if err == nil {
		if resp, decErr := decodeFrameAndResponse(cmdCode, inner); decErr == nil {
			return resp, nil
		} else {
			err = decErr
		}
	}

	if d.devType != DeviceTypeS330 {
		return nil, err
	}

	for _, candidate := range d.model.ExtractCandidateFrames(raw, cmdCode) {
		if resp, decErr := decodeFrameAndResponse(cmdCode, candidate); decErr == nil {
			return resp, nil
		}
	}
	return nil, err
}

// decodeFrameAndResponse runs C3.decode then C5.decode against a candidate
// FeliCa wire frame.
func decodeFrameAndResponse(cmdCode byte, frame []byte) (Response, error) {
	payload, err := DecodeFrame(frame)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(cmdCode, payload)
}

// Polling issues a Polling command (request_code=0, time_slot=0) with the
// library-wide default timeout and returns the single Type-F Card that
// answered, failing with a polling-failed error if no target responded
// (spec.md §4.9).
func (d *InitializedDevice) Polling(systemCode SystemCode) (Card, error) {
	return d.PollingWithTimeout(systemCode, DefaultReadTimeoutMs)
}

// PollingWithTimeout is Polling with an explicit per-call receive timeout,
// for callers (such as cmd/pasorictl) that expose the timeout as a
// configuration knob rather than accepting the library default.
func (d *InitializedDevice) PollingWithTimeout(systemCode SystemCode, timeoutMs int) (Card, error) {
	resp, err := d.Execute(Polling{SystemCode: systemCode, RequestCode: 0, TimeSlot: 0}, timeoutMs)
	if err != nil {
		if IsTimeout(err) {
			return Card{}, NewPollingFailedError("Polling")
		}
		return Card{}, err
	}
	pr, ok := resp.(PollingResponse)
	if !ok {
		return Card{}, NewUnexpectedResponseError("Polling", int(respCodePolling), int(resp.ResponseCode()))
	}
	return NewTypeFCard(pr.IDm, pr.PMm, pr.SystemCode), nil
}

// ListPassiveTargets delegates multi-target discovery to the active model
// (spec.md §4.9); only the S330 model supports any CardType.
func (d *InitializedDevice) ListPassiveTargets(cardType CardType, systemCode SystemCode, max byte, timeoutMs int) ([]Card, error) {
	return d.model.ListPassiveTargets(d.transport, cardType, systemCode, max, timeoutMs)
}

// Close releases the underlying transport, if it supports closing.
func (d *InitializedDevice) Close() error {
	type closer interface{ Close() error }
	if c, ok := d.transport.(closer); ok {
		return c.Close()
	}
	return nil
}
