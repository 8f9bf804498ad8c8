package pasori

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/gousb"
)

// felicaACKFrame is the 6-byte PN53x ACK, identical in both directions.
var felicaACKFrame = [6]byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}

// pn53xHostPrefix marks a PN53x command envelope (host -> device).
const pn53xHostPrefix = 0xD4

// stepBackoff replays a fixed sequence of delays, then refuses further
// retries. It implements backoff.BackOff so the USB transport's "three
// attempts, progressive backoff ~20/40/60ms" policy (spec.md §4.6) is
// expressed as a cenkalti/backoff policy and driven by retryWithBackoff.
type stepBackoff struct {
	delays []time.Duration
	next   int
}

func newStepBackoff(delays ...time.Duration) *stepBackoff {
	return &stepBackoff{delays: delays}
}

func (b *stepBackoff) Reset() { b.next = 0 }

func (b *stepBackoff) NextBackOff() time.Duration {
	if b.next >= len(b.delays) {
		return backoff.Stop
	}
	d := b.delays[b.next]
	b.next++
	return d
}

// retryWithBackoff drives op to completion against bo, sleeping through
// clock between attempts rather than backoff.Retry's own real-time sleep —
// this is what lets the transport's retry/backoff policy be exercised with a
// FakeClock in tests instead of real delays (SPEC_FULL.md's ambient-stack
// clock note).
func retryWithBackoff(clock Clock, bo backoff.BackOff, op func() error) error {
	bo.Reset()
	for {
		err := op()
		if err == nil {
			return nil
		}
		d := bo.NextBackOff()
		if d == backoff.Stop {
			return err
		}
		clock.Sleep(d)
	}
}

// TransportUSB is the real Transport implementation, driving a PaSoRi over
// USB via github.com/google/gousb (grounded on
// _examples/guiperry-HASHER/internal/driver/device/usb_device.go, adapted
// for multi-generation VID/PID matching and the retry/ACK-follow-up/
// clear_halt semantics spec.md §4.6 requires).
type TransportUSB struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface

	epIn  *gousb.InEndpoint
	epOut *gousb.OutEndpoint

	devType DeviceType
	clock   Clock
}

// OpenUSB enumerates attached USB devices, opens the first PaSoRi found,
// claims its interface(s), and discovers its endpoints (spec.md §4.6 "On
// open").
func OpenUSB() (*TransportUSB, error) {
	const op = "OpenUSB"
	ctx := gousb.NewContext()

	var found *gousb.Device
	var devType DeviceType
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if found != nil {
			return false
		}
		if int(desc.Vendor) != USBVendorID {
			return false
		}
		dt, ok := DeviceTypeFromProductID(int(desc.Product))
		if !ok {
			return false
		}
		devType = dt
		return true
	})
	for _, d := range devs {
		if found == nil {
			found = d
		} else {
			d.Close()
		}
	}
	if err != nil {
		ctx.Close()
		return nil, NewTransportError(op, err)
	}
	if found == nil {
		ctx.Close()
		return nil, NewDeviceNotFoundError(op)
	}

	_ = found.SetAutoDetach(true)

	config, err := found.Config(1)
	if err != nil {
		found.Close()
		ctx.Close()
		return nil, NewTransportError(op, err)
	}

	intf, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		found.Close()
		ctx.Close()
		return nil, NewTransportError(op, err)
	}

	t := &TransportUSB{
		ctx:     ctx,
		device:  found,
		config:  config,
		intf:    intf,
		devType: devType,
		clock:   NewRealClock(),
	}
	t.discoverEndpoints()
	return t, nil
}

// discoverEndpoints walks the claimed interface's alt-setting descriptor and
// remembers the first IN and first OUT endpoint address found (spec.md
// §4.6 step 3). PaSoRi readers expose a single alt setting with exactly one
// endpoint of each direction, so the first match is always the right one.
func (t *TransportUSB) discoverEndpoints() {
	for _, epDesc := range t.intf.Setting.Endpoints {
		if epDesc.Direction == gousb.EndpointDirectionIn && t.epIn == nil {
			if ep, err := t.intf.InEndpoint(epDesc.Number); err == nil {
				t.epIn = ep
			}
		}
		if epDesc.Direction == gousb.EndpointDirectionOut && t.epOut == nil {
			if ep, err := t.intf.OutEndpoint(epDesc.Number); err == nil {
				t.epOut = ep
			}
		}
	}
}

func (t *TransportUSB) DeviceType() DeviceType { return t.devType }

func (t *TransportUSB) InEndpoint() (byte, bool) {
	if t.epIn == nil {
		return 0, false
	}
	return byte(t.epIn.Desc.Address), true
}

func (t *TransportUSB) OutEndpoint() (byte, bool) {
	if t.epOut == nil {
		return 0, false
	}
	return byte(t.epOut.Desc.Address), true
}

// Send implements spec.md §4.6 "On send": bulk-or-interrupt write on the OUT
// endpoint with up to three progressively backed-off retries and a
// clear_halt between attempts, or a vendor control write when no OUT
// endpoint was discovered.
func (t *TransportUSB) Send(data []byte) error {
	const op = "TransportUSB.Send"
	if t.epOut == nil {
		return t.VendorControlWrite(0, 0, 0, data)
	}

	bo := newStepBackoff(20*time.Millisecond, 40*time.Millisecond, 60*time.Millisecond)
	var lastErr error
	attempt := 0
	err := retryWithBackoff(t.clock, bo, func() error {
		attempt++
		if attempt > 1 {
			_ = t.ClearHalt(byte(t.epOut.Desc.Address))
		}
		if attempt == 1 && len(data) > 0 && data[0] == pn53xHostPrefix {
			if framed, ferr := EncodeFrame(data); ferr == nil {
				if _, werr := t.epOut.Write(framed); werr == nil {
					return nil
				}
			}
		}
		if _, werr := t.epOut.Write(data); werr == nil {
			return nil
		} else {
			lastErr = werr
		}
		return lastErr
	})
	if err != nil {
		return NewTransportError(op, err)
	}
	return nil
}

// Receive implements spec.md §4.6 "On receive": bulk-or-interrupt read on
// the IN endpoint with the same retry policy, plus the S330 ACK
// follow-up-read quirk, or a vendor control read when no IN endpoint was
// discovered.
func (t *TransportUSB) Receive(timeoutMs int) ([]byte, error) {
	const op = "TransportUSB.Receive"
	if t.epIn == nil {
		return t.VendorControlRead(0, 0, 0, timeoutMs)
	}

	buf := make([]byte, feliCaMaxPayload+16)
	bo := newStepBackoff(20*time.Millisecond, 40*time.Millisecond, 60*time.Millisecond)
	var n int
	attempt := 0
	err := retryWithBackoff(t.clock, bo, func() error {
		attempt++
		if attempt > 1 {
			_ = t.ClearHalt(byte(t.epIn.Desc.Address))
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
		read, rerr := t.epIn.ReadContext(ctx, buf)
		if rerr == nil {
			n = read
			return nil
		}
		return rerr
	})
	if err != nil {
		return nil, NewTimeoutError(op, timeoutMs)
	}

	out := append([]byte(nil), buf[:n]...)
	if t.devType == DeviceTypeS330 && len(out) == len(felicaACKFrame) && [6]byte(out[:6]) == felicaACKFrame {
		more, rerr := t.receiveOnce(timeoutMs)
		if rerr == nil {
			out = append(out, more...)
		}
	}
	return out, nil
}

// receiveOnce issues a single best-effort read with no retry, used for the
// S330 ACK-frame follow-up read.
func (t *TransportUSB) receiveOnce(timeoutMs int) ([]byte, error) {
	buf := make([]byte, feliCaMaxPayload+16)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()
	n, err := t.epIn.ReadContext(ctx, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Reset is a straight pass-through to the USB stack's device reset
// (spec.md §4.6: "clear_halt and reset are straight pass-throughs to the
// USB stack"), resolving in favor of a real reset over a no-op.
func (t *TransportUSB) Reset() error {
	if err := t.device.Reset(); err != nil {
		return NewTransportError("TransportUSB.Reset", err)
	}
	return nil
}

// ClearHalt clears a stalled endpoint via the standard USB CLEAR_FEATURE
// (ENDPOINT_HALT) control request. gousb (v1.1.3) exposes no ClearHalt
// method on Device or Endpoint, so this issues the control transfer
// directly instead of depending on that unimplemented upstream API.
func (t *TransportUSB) ClearHalt(addr byte) error {
	const (
		stdClearFeature  = 0x01
		featEndpointHalt = 0x00
	)
	rType := uint8(gousb.ControlOut | gousb.ControlStandard | gousb.ControlEndpoint)
	if _, err := t.device.Control(rType, stdClearFeature, featEndpointHalt, uint16(addr), nil); err != nil {
		return NewTransportError("TransportUSB.ClearHalt", err)
	}
	return nil
}

func (t *TransportUSB) ControlWrite(data []byte) error {
	return DefaultControlWrite(t, data)
}

func (t *TransportUSB) ControlRead(timeoutMs int) ([]byte, error) {
	return DefaultControlRead(t, timeoutMs)
}

// VendorControlWrite issues an explicit vendor (type=Vendor, recipient=Device)
// host-to-device control transfer.
func (t *TransportUSB) VendorControlWrite(request byte, value, index uint16, data []byte) error {
	const op = "TransportUSB.VendorControlWrite"
	rType := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
	if _, err := t.device.Control(rType, request, value, index, data); err != nil {
		return NewTransportError(op, err)
	}
	return nil
}

// VendorControlRead issues an explicit vendor device-to-host control
// transfer, retrying once after a 30ms gap (spec.md §4.6: "with retry and a
// 30 ms gap").
func (t *TransportUSB) VendorControlRead(request byte, value, index uint16, timeoutMs int) ([]byte, error) {
	const op = "TransportUSB.VendorControlRead"
	rType := uint8(gousb.ControlIn | gousb.ControlVendor | gousb.ControlDevice)
	buf := make([]byte, feliCaMaxPayload+16)

	n, err := t.device.Control(rType, request, value, index, buf)
	if err == nil {
		return append([]byte(nil), buf[:n]...), nil
	}

	t.clock.Sleep(30 * time.Millisecond)
	n, err = t.device.Control(rType, request, value, index, buf)
	if err != nil {
		return nil, NewTimeoutError(op, timeoutMs)
	}
	return append([]byte(nil), buf[:n]...), nil
}

// Close releases the claimed interface, configuration, device handle, and
// USB context in order (spec.md §5: "claims its interface on open and
// releases it on drop").
func (t *TransportUSB) Close() error {
	if t.intf != nil {
		t.intf.Close()
	}
	if t.config != nil {
		t.config.Close()
	}
	var err error
	if t.device != nil {
		err = t.device.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
	if err != nil {
		return fmt.Errorf("pasori: closing usb device: %w", err)
	}
	return nil
}

var _ Transport = (*TransportUSB)(nil)
