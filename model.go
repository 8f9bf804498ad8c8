package pasori

// DeviceModel is a capability bundle specialized for one PaSoRi hardware
// generation (spec.md §4.7), grounded on
// original_source/libpafe/src/device/models/mod.rs's DeviceModel trait.
type DeviceModel interface {
	// Initialize performs the model-specific handshake over transport.
	Initialize(t Transport) error

	// WrapCommand envelopes a raw command for transmission, given both its
	// fully framed wire form and its raw payload. The default behavior
	// (models that don't override it) is to return framed unchanged.
	WrapCommand(framed, payload []byte) []byte

	// UnwrapResponse strips any device-specific envelope from raw bytes,
	// returning the inner FeliCa frame ready for C3/C5 decoding.
	UnwrapResponse(expectedCmd byte, raw []byte) ([]byte, error)

	// ListPassiveTargets performs multi-target discovery. Models that don't
	// support it return an unsupported-operation error.
	ListPassiveTargets(t Transport, cardType CardType, systemCode SystemCode, max byte, timeoutMs int) ([]Card, error)

	// ExtractCandidateFrames is the decode-failure recovery hook (spec.md
	// §4.8/§4.9 step 7). The default is no candidates.
	ExtractCandidateFrames(raw []byte, expectedCmd byte) [][]byte
}

// CreateModelFor returns the DeviceModel implementation for devType,
// falling back to NoopModel for unrecognized generations (spec.md §4.7.4).
func CreateModelFor(devType DeviceType) DeviceModel {
	switch devType {
	case DeviceTypeS310:
		return &S310Model{}
	case DeviceTypeS320:
		return &S320Model{}
	case DeviceTypeS330:
		return &S330Model{}
	default:
		return &NoopModel{}
	}
}

// baseModel supplies the default WrapCommand/UnwrapResponse/
// ListPassiveTargets/ExtractCandidateFrames behavior every model inherits
// unless it overrides them, mirroring the Rust trait's default methods
// (Go has no default interface methods, so each concrete model embeds
// this and overrides only what it needs).
type baseModel struct{}

func (baseModel) WrapCommand(framed, _ []byte) []byte { return append([]byte(nil), framed...) }

func (baseModel) UnwrapResponse(_ byte, raw []byte) ([]byte, error) {
	return append([]byte(nil), raw...), nil
}

func (baseModel) ListPassiveTargets(_ Transport, _ CardType, _ SystemCode, _ byte, _ int) ([]Card, error) {
	return nil, NewUnsupportedOperationError("ListPassiveTargets", "model does not support multi-target discovery")
}

func (baseModel) ExtractCandidateFrames(_ []byte, _ byte) [][]byte { return nil }

// NoopModel is used for unrecognized device types: initialization is a
// no-op, wrap/unwrap are identity, and multi-target discovery is
// unsupported (spec.md §4.7.4).
type NoopModel struct {
	baseModel
}

func (m *NoopModel) Initialize(_ Transport) error { return nil }

var _ DeviceModel = (*NoopModel)(nil)
