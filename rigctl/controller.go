// Package rigctl implements the unified controller (spec.md §4.8): the
// single-owner state machine that composes a serial session, a model's
// dispatch table, its capability record, and a TTL cache into the
// operation set every rigctld connection drives.
//
// It is a separate package from rig on purpose: rig/models and rig/registry
// both need the domain value types in rig, and rig would need to import
// both of them to offer a controller, which would cycle.
package rigctl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kd9vec/gorigd/cache"
	"github.com/kd9vec/gorigd/civ"
	"github.com/kd9vec/gorigd/rig"
	"github.com/kd9vec/gorigd/rig/models"
	"github.com/kd9vec/gorigd/rig/registry"
	"github.com/kd9vec/gorigd/rigerr"
	"github.com/kd9vec/gorigd/serial"
)

// DefaultCacheTTL is the controller's default freshness window for cached
// reads, spec.md §4.7.
const DefaultCacheTTL = 500 * time.Millisecond

// Controller is the single-owner CAT radio handle: one session, one
// model's dispatch table, one capability record, one cache. Every public
// method serializes on mu; the underlying session has its own lock for the
// wire exchange itself, so the two never deadlock (mu is always acquired
// first, by exactly one goroutine at a time, and Session.RoundTrip/Send is
// only ever called while already holding mu).
type Controller struct {
	mu sync.Mutex

	sess *serial.Session
	ops  models.Ops
	caps rig.Capabilities
	ch   *cache.TTLCache
	ptt  PTTBackend

	lastVFO rig.VFO // for vfoModelCurrentOnly

	// civAddrOverride/baudOverride stage WithCIVAddress/WithBaud values
	// between option application and the models.New/serial.New calls in
	// New, which need them before the rest of the Controller exists.
	civAddrOverride byte
	baudOverride    int
}

// Option configures a Controller at construction time.
type Option func(*Controller)

// New builds a Controller for model on device at the model's default baud
// (override with WithBaud); the port is opened by Connect. It returns
// UnsupportedRadio if model has no registry entry.
func New(model rig.ModelID, device string, opts ...Option) (*Controller, error) {
	c := &Controller{}
	for _, opt := range opts {
		opt(c)
	}

	caps, ok := registry.Lookup(model)
	if !ok {
		return nil, rigerr.New(rigerr.UnsupportedRadio, "unknown model %q", model)
	}
	ops, ok := models.New(model, c.civAddrOverride)
	if !ok {
		return nil, rigerr.New(rigerr.UnsupportedRadio, "no command set for model %q", model)
	}

	baud := int(caps.DefaultBaud)
	if c.baudOverride != 0 {
		baud = c.baudOverride
	}
	cfg := serial.Config{
		Device:         device,
		Baud:           baud,
		EchoesCommands: ops.Traits.EchoesCommands,
	}

	c.sess = serial.New(cfg)
	c.ops = ops
	c.caps = caps
	c.ch = cache.New()
	if c.ptt == nil {
		c.ptt = catPTT{c: c}
	}
	return c, nil
}

// NewWithSession builds a Controller around an already-constructed session
// (e.g. one bound to a mock or loopback Port), for tests.
func NewWithSession(model rig.ModelID, sess *serial.Session) (*Controller, error) {
	caps, ok := registry.Lookup(model)
	if !ok {
		return nil, rigerr.New(rigerr.UnsupportedRadio, "unknown model %q", model)
	}
	ops, ok := models.New(model, 0)
	if !ok {
		return nil, rigerr.New(rigerr.UnsupportedRadio, "no command set for model %q", model)
	}
	c := &Controller{sess: sess, ops: ops, caps: caps, ch: cache.New()}
	c.ptt = catPTT{c: c}
	return c, nil
}

// WithGPIOPTT selects a GPIO line (via github.com/warthog618/go-gpiocdev)
// as the PTT backend instead of in-band CAT PTT. Grounded on the teacher's
// own GPIO PTT support in src/ptt.go, re-expressed as a PTTBackend
// implementation instead of direct sysfs/ioctl calls.
func WithGPIOPTT(chip string, line int) Option {
	return func(c *Controller) {
		c.ptt = newGPIOPTT(chip, line)
	}
}

// WithBaud overrides the model's default baud rate. A baud of 0 is a no-op,
// letting callers pass a config field straight through regardless of
// whether it was set. Must be applied via New, before the session opens the
// port; it has no effect on an already-connected Controller.
func WithBaud(baud int) Option {
	return func(c *Controller) {
		c.baudOverride = baud
	}
}

// WithCIVAddress overrides the model's default CI-V bus address (for Icom
// radios reconfigured away from their factory address). A zero address is a
// no-op and has no meaning for Elecraft models, which don't use CI-V. Must
// be applied via New, before the model's dispatch table is built.
func WithCIVAddress(addr byte) Option {
	return func(c *Controller) {
		c.civAddrOverride = addr
	}
}

// Connect opens the serial session and clears any stale cache state.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sess.Connect(); err != nil {
		log.Error("connect failed", "model", c.caps.Model, "err", err)
		return err
	}
	c.ch.InvalidateAll()
	log.Info("connected", "model", c.caps.Model)
	return nil
}

// Disconnect closes the serial session and invalidates the cache, per
// spec.md §4.7 ("Disconnect invalidates all keys").
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch.InvalidateAll()
	if c.ptt != nil {
		c.ptt.Close()
	}
	log.Info("disconnected", "model", c.caps.Model)
	return c.sess.Disconnect()
}

// Capabilities returns the model's static capability record.
func (c *Controller) Capabilities() rig.Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps
}

func (c *Controller) isElecraft() bool {
	return c.ops.Traits.Terminator == ';'
}

// exchange sends wire and, for Icom models, awaits an ACK/NAK frame; for
// Elecraft models it awaits nothing (set commands don't echo, spec.md §4.4).
func (c *Controller) exchange(ctx context.Context, wire []byte) error {
	if c.isElecraft() {
		return c.sess.Send(ctx, wire)
	}
	resp, err := c.sess.RoundTrip(ctx, wire, c.ops.Traits.Terminator, 0)
	if err != nil {
		return err
	}
	frame, err := civ.Parse(resp, nil, false)
	if err != nil {
		return rigerr.New(rigerr.InvalidResponse, "%v", err)
	}
	if frame.IsNak {
		return rigerr.New(rigerr.CommandFailed, "radio NAKed command")
	}
	return nil
}

// query sends wire and returns the raw response, for commands that carry a
// reply value (get_* operations and Elecraft's always-echoed queries).
func (c *Controller) query(ctx context.Context, wire []byte) ([]byte, error) {
	return c.sess.RoundTrip(ctx, wire, c.ops.Traits.Terminator, 0)
}

func vfoKey(prefix string, vfo rig.VFO) string {
	return fmt.Sprintf("%s_%s", prefix, vfo)
}

// --- frequency ---

func (c *Controller) SetFrequency(ctx context.Context, hz rig.Frequency, vfo rig.VFO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setFrequency(ctx, hz, vfo)
}

// setFrequency is the lock-free core, called directly by composed operations
// (RecallMemoryChannel, Configure) that already hold mu.
func (c *Controller) setFrequency(ctx context.Context, hz rig.Frequency, vfo rig.VFO) error {
	if !c.caps.InRange(hz) {
		return rigerr.New(rigerr.FrequencyOutOfRange, "%d Hz not in any range for %s", hz, c.caps.Model)
	}
	if err := c.checkVFO(vfo); err != nil {
		return err
	}
	wire, err := c.ops.BuildSetFrequency(hz, vfo)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	key := vfoKey("freq", vfo)
	c.ch.Invalidate(key)
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	c.ch.Put(key, hz)
	return nil
}

func (c *Controller) GetFrequency(ctx context.Context, vfo rig.VFO) (rig.Frequency, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getFrequency(ctx, vfo, DefaultCacheTTL)
}

func (c *Controller) GetFrequencyFresh(ctx context.Context, vfo rig.VFO) (rig.Frequency, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getFrequencyFresh(ctx, vfo)
}

// getFrequencyFresh is the lock-free core, called directly by
// StoreCurrentToMemory, which already holds mu.
func (c *Controller) getFrequencyFresh(ctx context.Context, vfo rig.VFO) (rig.Frequency, error) {
	key := vfoKey("freq", vfo)
	c.ch.Invalidate(key)
	return c.getFrequency(ctx, vfo, 0)
}

func (c *Controller) getFrequency(ctx context.Context, vfo rig.VFO, ttl time.Duration) (rig.Frequency, error) {
	if err := c.checkVFO(vfo); err != nil {
		return 0, err
	}
	key := vfoKey("freq", vfo)
	v, err := c.ch.Get(key, ttl, func() (any, error) {
		wire, err := c.ops.BuildGetFrequency(vfo)
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParseFrequency(resp)
	})
	if err != nil {
		return 0, err
	}
	return v.(rig.Frequency), nil
}

// --- mode ---

func (c *Controller) SetMode(ctx context.Context, mode rig.Mode, vfo rig.VFO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setMode(ctx, mode, vfo)
}

// setMode is the lock-free core, called directly by composed operations
// (RecallMemoryChannel, Configure) that already hold mu.
func (c *Controller) setMode(ctx context.Context, mode rig.Mode, vfo rig.VFO) error {
	if !c.caps.SupportsMode(mode) {
		return rigerr.New(rigerr.ModeNotSupported, "%s not supported on %s", mode, c.caps.Model)
	}
	if err := c.checkVFO(vfo); err != nil {
		return err
	}
	wire, err := c.ops.BuildSetMode(mode, vfo)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	key := vfoKey("mode", vfo)
	c.ch.Invalidate(key)
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	c.ch.Put(key, mode)
	return nil
}

func (c *Controller) GetMode(ctx context.Context, vfo rig.VFO) (rig.Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getMode(ctx, vfo, DefaultCacheTTL)
}

func (c *Controller) GetModeFresh(ctx context.Context, vfo rig.VFO) (rig.Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getModeFresh(ctx, vfo)
}

// getModeFresh is the lock-free core, called directly by
// StoreCurrentToMemory, which already holds mu.
func (c *Controller) getModeFresh(ctx context.Context, vfo rig.VFO) (rig.Mode, error) {
	key := vfoKey("mode", vfo)
	c.ch.Invalidate(key)
	return c.getMode(ctx, vfo, 0)
}

func (c *Controller) getMode(ctx context.Context, vfo rig.VFO, ttl time.Duration) (rig.Mode, error) {
	if err := c.checkVFO(vfo); err != nil {
		return rig.ModeUnknown, err
	}
	key := vfoKey("mode", vfo)
	v, err := c.ch.Get(key, ttl, func() (any, error) {
		wire, err := c.ops.BuildGetMode(vfo)
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParseMode(resp)
	})
	if err != nil {
		return rig.ModeUnknown, err
	}
	return v.(rig.Mode), nil
}

// --- VFO ---

func (c *Controller) checkVFO(vfo rig.VFO) error {
	switch c.ops.Traits.VFOModel {
	case rig.VFOModelTargetable, rig.VFOModelCurrentOnly:
		switch vfo {
		case rig.VFOA, rig.VFOB, rig.VFOUnspecified:
			return nil
		}
		return rigerr.New(rigerr.UnsupportedOperation, "vfo %s not legal for %s", vfo, c.caps.Model)
	case rig.VFOModelMainSub:
		switch vfo {
		case rig.VFOMain, rig.VFOSub:
			return nil
		}
		return rigerr.New(rigerr.UnsupportedOperation, "vfo %s not legal for mainSub model %s", vfo, c.caps.Model)
	case rig.VFOModelMainSubDualVFO:
		return nil
	}
	return nil
}

// HasDedicatedVFOSelect reports whether the model has a wire command that
// selects the active VFO, as opposed to choosing it implicitly per command
// (Elecraft's FA/FB addressing, spec.md §4.4).
func (c *Controller) HasDedicatedVFOSelect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ops.BuildSetVFO != nil
}

func (c *Controller) SetVFO(ctx context.Context, vfo rig.VFO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkVFO(vfo); err != nil {
		return err
	}
	if c.ops.BuildSetVFO == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "set_vfo not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildSetVFO(vfo)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	if c.ops.Traits.VFOModel == rig.VFOModelCurrentOnly {
		c.lastVFO = vfo
	}
	return nil
}

// --- PTT ---

// activeVFO is the VFO set_ptt consults for the current mode: the
// last-selected VFO on currentOnly models, VFOA otherwise (Targetable/
// mainSub models read mode per-VFO but PTT is rig-wide).
func (c *Controller) activeVFO() rig.VFO {
	if c.ops.Traits.VFOModel == rig.VFOModelCurrentOnly && c.lastVFO != rig.VFOUnspecified {
		return c.lastVFO
	}
	return rig.VFOA
}

func (c *Controller) SetPTT(ctx context.Context, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Only models that gate PTT by mode (the K2) need the mode looked up
	// first; everyone else's BuildSetPTT ignores it, so skip the extra
	// round trip. PTTPostSendDelay and mode-gating are the same K2 quirk
	// cluster, so it doubles as that signal.
	var mode rig.Mode
	if c.ops.Traits.PTTPostSendDelay > 0 {
		m, err := c.getMode(ctx, c.activeVFO(), DefaultCacheTTL)
		if err != nil {
			return err
		}
		mode = m
	}
	key := "ptt"
	c.ch.Invalidate(key)
	if err := c.ptt.SetPTT(ctx, mode, on); err != nil {
		return err
	}
	c.ch.Put(key, on)
	return nil
}

func (c *Controller) GetPTT(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.ch.Get("ptt", DefaultCacheTTL, func() (any, error) {
		return c.ptt.GetPTT(ctx)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// --- power ---

func (c *Controller) SetPower(ctx context.Context, scale uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setPower(ctx, scale)
}

// setPower is the lock-free core, called directly by Configure, which
// already holds mu.
func (c *Controller) setPower(ctx context.Context, scale uint16) error {
	if scale > c.caps.MaxPower {
		return rigerr.New(rigerr.InvalidParameter, "power %d exceeds max %d for %s", scale, c.caps.MaxPower, c.caps.Model)
	}
	wire, err := c.ops.BuildSetPower(scale)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	c.ch.Invalidate("power")
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	c.ch.Put("power", scale)
	return nil
}

func (c *Controller) GetPower(ctx context.Context) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getPower(ctx, DefaultCacheTTL)
}

func (c *Controller) GetPowerFresh(ctx context.Context) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch.Invalidate("power")
	return c.getPower(ctx, 0)
}

func (c *Controller) getPower(ctx context.Context, ttl time.Duration) (uint16, error) {
	v, err := c.ch.Get("power", ttl, func() (any, error) {
		wire, err := c.ops.BuildGetPower()
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParsePower(resp)
	})
	if err != nil {
		return 0, err
	}
	return v.(uint16), nil
}

// --- split ---

func (c *Controller) SetSplit(ctx context.Context, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.caps.HasSplit {
		return rigerr.New(rigerr.UnsupportedOperation, "split not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildSetSplit(on)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	c.ch.Invalidate("split")
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	c.ch.Put("split", on)
	return nil
}

func (c *Controller) IsSplitEnabled(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, err := c.ch.Get("split", DefaultCacheTTL, func() (any, error) {
		wire, err := c.ops.BuildGetSplit()
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParseSplit(resp)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// --- signal strength ---

func (c *Controller) SignalStrength(ctx context.Context) (rig.SignalStrength, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signalStrength(ctx, DefaultCacheTTL)
}

func (c *Controller) SignalStrengthFresh(ctx context.Context) (rig.SignalStrength, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch.Invalidate("signal_strength")
	return c.signalStrength(ctx, 0)
}

func (c *Controller) signalStrength(ctx context.Context, ttl time.Duration) (rig.SignalStrength, error) {
	if !c.caps.SupportsSignalStrength {
		return rig.SignalStrength{}, rigerr.New(rigerr.UnsupportedOperation, "signal strength not supported on %s", c.caps.Model)
	}
	v, err := c.ch.Get("signal_strength", ttl, func() (any, error) {
		wire, err := c.ops.BuildGetSignalStrength()
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		raw, err := c.ops.ParseSignalStrength(resp)
		if err != nil {
			return nil, err
		}
		return deriveSMeter(raw), nil
	})
	if err != nil {
		return rig.SignalStrength{}, err
	}
	return v.(rig.SignalStrength), nil
}

// deriveSMeter maps the 0..255 wire scale to S-units/over-S9 dB, using the
// conventional S0..S9 = 0..~200, +dB beyond that.
func deriveSMeter(raw uint8) rig.SignalStrength {
	const perUnit = 200.0 / 9.0
	units := int(float64(raw) / perUnit)
	if units > 9 {
		units = 9
	}
	over := 0
	if raw > 200 {
		over = int((float64(raw) - 200) / (55.0 / 60.0))
	}
	return rig.SignalStrength{Raw: raw, SUnits: units, OverS9: over}
}

// --- RIT / XIT ---

// SetRIT sends the offset frame and, on models whose wire protocol splits
// enable from offset (CI-V's 21 00 / 21 01, spec.md §4.5), a second enable
// frame — both must land or the radio's RIT enable bit silently diverges
// from the cached state.
func (c *Controller) SetRIT(ctx context.Context, state rig.RITState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.caps.SupportsRIT {
		return rigerr.New(rigerr.UnsupportedOperation, "rit not supported on %s", c.caps.Model)
	}
	if state.OffsetHz > rig.MaxRITOffset || state.OffsetHz < -rig.MaxRITOffset {
		return rigerr.New(rigerr.InvalidParameter, "rit offset %d out of range", state.OffsetHz)
	}
	wire, err := c.ops.BuildSetRIT(state)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	c.ch.Invalidate("rit_state")
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	if c.ops.BuildSetRITEnable != nil {
		enableWire, err := c.ops.BuildSetRITEnable(state.Enabled)
		if err != nil {
			return rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		if err := c.exchange(ctx, enableWire); err != nil {
			return err
		}
	}
	c.ch.Put("rit_state", state)
	return nil
}

func (c *Controller) GetRIT(ctx context.Context) (rig.RITState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.caps.SupportsRIT {
		return rig.RITState{}, rigerr.New(rigerr.UnsupportedOperation, "rit not supported on %s", c.caps.Model)
	}
	v, err := c.ch.Get("rit_state", DefaultCacheTTL, func() (any, error) {
		wire, err := c.ops.BuildGetRIT()
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParseRIT(resp)
	})
	if err != nil {
		return rig.RITState{}, err
	}
	return v.(rig.RITState), nil
}

// SetXIT sends the enable/disable frame and, on models whose wire protocol
// splits the offset into a separate command (CI-V's 21 02 / 21 03, spec.md
// §4.5), a second offset frame — otherwise state.OffsetHz is silently
// dropped on the floor regardless of what the caller asked for.
func (c *Controller) SetXIT(ctx context.Context, state rig.RITState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.caps.SupportsXIT || c.ops.BuildSetXIT == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "xit not supported on %s", c.caps.Model)
	}
	if state.OffsetHz > rig.MaxRITOffset || state.OffsetHz < -rig.MaxRITOffset {
		return rigerr.New(rigerr.InvalidParameter, "xit offset %d out of range", state.OffsetHz)
	}
	wire, err := c.ops.BuildSetXIT(state)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	c.ch.Invalidate("xit_state")
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	if c.ops.BuildSetXITOffset != nil {
		offsetWire, err := c.ops.BuildSetXITOffset(state.OffsetHz)
		if err != nil {
			return rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		if err := c.exchange(ctx, offsetWire); err != nil {
			return err
		}
	}
	c.ch.Put("xit_state", state)
	return nil
}

func (c *Controller) GetXIT(ctx context.Context) (rig.RITState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.caps.SupportsXIT || c.ops.BuildGetXIT == nil {
		return rig.RITState{}, rigerr.New(rigerr.UnsupportedOperation, "xit not supported on %s", c.caps.Model)
	}
	v, err := c.ch.Get("xit_state", DefaultCacheTTL, func() (any, error) {
		wire, err := c.ops.BuildGetXIT()
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParseXIT(resp)
	})
	if err != nil {
		return rig.RITState{}, err
	}
	return v.(rig.RITState), nil
}

// --- preamp / attenuator ---

func (c *Controller) GetPreamp(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildGetPreamp == nil {
		return 0, rigerr.New(rigerr.UnsupportedOperation, "preamp not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildGetPreamp()
	if err != nil {
		return 0, rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	resp, err := c.query(ctx, wire)
	if err != nil {
		return 0, err
	}
	return c.ops.ParsePreamp(resp)
}

func (c *Controller) SetPreamp(ctx context.Context, level int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildSetPreamp == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "preamp not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildSetPreamp(level)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	return c.exchange(ctx, wire)
}

func (c *Controller) GetAttenuator(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildGetAttenuator == nil {
		return 0, rigerr.New(rigerr.UnsupportedOperation, "attenuator not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildGetAttenuator()
	if err != nil {
		return 0, rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	resp, err := c.query(ctx, wire)
	if err != nil {
		return 0, err
	}
	return c.ops.ParseAttenuator(resp)
}

func (c *Controller) SetAttenuator(ctx context.Context, level int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildSetAttenuator == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "attenuator not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildSetAttenuator(level)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	return c.exchange(ctx, wire)
}

// --- levels (AGC / NB / NR / IF filter, rigctld §4.9 L/l) ---

func (c *Controller) validateLevel(level rig.LevelKind, value int) error {
	switch level {
	case rig.LevelAGC:
		if !c.caps.AllowsAGC(rig.AGCSpeed(value)) {
			return rigerr.New(rigerr.InvalidParameter, "agc speed %d not allowed on %s", value, c.caps.Model)
		}
	case rig.LevelNB:
		if value < 0 || value > c.caps.NBLevelMax {
			return rigerr.New(rigerr.InvalidParameter, "nb level %d out of range [0,%d]", value, c.caps.NBLevelMax)
		}
	case rig.LevelNR:
		if value < 0 || value > c.caps.NRLevelMax {
			return rigerr.New(rigerr.InvalidParameter, "nr level %d out of range [0,%d]", value, c.caps.NRLevelMax)
		}
	case rig.LevelIFFilter:
		if value < 1 || value > 3 {
			return rigerr.New(rigerr.InvalidParameter, "if filter %d out of range [1,3]", value)
		}
	default:
		return rigerr.New(rigerr.InvalidParameter, "unknown level %v", level)
	}
	return nil
}

func (c *Controller) SetLevel(ctx context.Context, level rig.LevelKind, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildSetLevel == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "level %s not supported on %s", level, c.caps.Model)
	}
	if err := c.validateLevel(level, value); err != nil {
		return err
	}
	wire, err := c.ops.BuildSetLevel(level, value)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	key := fmt.Sprintf("level_%s", level)
	c.ch.Invalidate(key)
	if err := c.exchange(ctx, wire); err != nil {
		return err
	}
	c.ch.Put(key, value)
	return nil
}

func (c *Controller) GetLevel(ctx context.Context, level rig.LevelKind) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildGetLevel == nil {
		return 0, rigerr.New(rigerr.UnsupportedOperation, "level %s not supported on %s", level, c.caps.Model)
	}
	key := fmt.Sprintf("level_%s", level)
	v, err := c.ch.Get(key, DefaultCacheTTL, func() (any, error) {
		wire, err := c.ops.BuildGetLevel(level)
		if err != nil {
			return nil, rigerr.New(rigerr.InvalidParameter, "%v", err)
		}
		resp, err := c.query(ctx, wire)
		if err != nil {
			return nil, err
		}
		return c.ops.ParseLevel(level, resp)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// --- memory channels ---

func (c *Controller) SetMemoryChannel(ctx context.Context, ch rig.MemoryChannel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setMemoryChannel(ctx, ch)
}

// setMemoryChannel is the lock-free core, called directly by
// StoreCurrentToMemory, which already holds mu.
func (c *Controller) setMemoryChannel(ctx context.Context, ch rig.MemoryChannel) error {
	if c.ops.BuildWriteMemory == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "memory channels not supported on %s", c.caps.Model)
	}
	if ch.Number < 0 || ch.Number >= c.caps.MemoryChannelCount {
		return rigerr.New(rigerr.InvalidParameter, "channel %d out of range [0,%d)", ch.Number, c.caps.MemoryChannelCount)
	}
	wire, err := c.ops.BuildWriteMemory(ch)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	return c.exchange(ctx, wire)
}

func (c *Controller) GetMemoryChannel(ctx context.Context, n int) (rig.MemoryChannel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getMemoryChannel(ctx, n)
}

// getMemoryChannel is the lock-free core, called directly by
// RecallMemoryChannel, which already holds mu.
func (c *Controller) getMemoryChannel(ctx context.Context, n int) (rig.MemoryChannel, error) {
	if c.ops.BuildReadMemory == nil {
		return rig.MemoryChannel{}, rigerr.New(rigerr.UnsupportedOperation, "memory channels not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildReadMemory(n)
	if err != nil {
		return rig.MemoryChannel{}, rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	resp, err := c.query(ctx, wire)
	if err != nil {
		return rig.MemoryChannel{}, err
	}
	return c.ops.ParseMemory(resp)
}

func (c *Controller) ClearMemoryChannel(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ops.BuildClearMemory == nil {
		return rigerr.New(rigerr.UnsupportedOperation, "memory channels not supported on %s", c.caps.Model)
	}
	wire, err := c.ops.BuildClearMemory(n)
	if err != nil {
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	return c.exchange(ctx, wire)
}

func (c *Controller) MemoryChannelCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.caps.MemoryChannelCount
}

// RecallMemoryChannel reads slot n and applies it to vfo: read_slot →
// set_frequency → set_mode, spec.md §4.5. The whole sequence runs under one
// lock acquisition (via the lock-free setFrequency/setMode cores) so a concurrent
// rigctld session can't interleave a frequency or mode change in the middle
// of a recall.
func (c *Controller) RecallMemoryChannel(ctx context.Context, n int, vfo rig.VFO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, err := c.getMemoryChannel(ctx, n)
	if err != nil {
		return err
	}
	if err := c.setFrequency(ctx, ch.Frequency, vfo); err != nil {
		return err
	}
	return c.setMode(ctx, ch.Mode, vfo)
}

// StoreCurrentToMemory reads the current frequency/mode on vfo and writes
// them to memory slot n, under one lock acquisition.
func (c *Controller) StoreCurrentToMemory(ctx context.Context, n int, vfo rig.VFO, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	freq, err := c.getFrequencyFresh(ctx, vfo)
	if err != nil {
		return err
	}
	mode, err := c.getModeFresh(ctx, vfo)
	if err != nil {
		return err
	}
	return c.setMemoryChannel(ctx, rig.MemoryChannel{Number: n, Frequency: freq, Mode: mode, Name: name})
}

// --- configure / cache management ---

// ConfigureRequest is the optional-field bundle for Configure, spec.md §4.8.
type ConfigureRequest struct {
	Frequency *rig.Frequency
	Mode      *rig.Mode
	VFO       rig.VFO
	Power     *uint16
}

// Configure applies the provided fields in the mandated order — frequency,
// then mode, then power — short-circuiting on the first error. The whole
// sequence runs under one lock acquisition.
func (c *Controller) Configure(ctx context.Context, req ConfigureRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	vfo := req.VFO
	if vfo == rig.VFOUnspecified {
		vfo = rig.VFOA
	}
	if req.Frequency != nil {
		if err := c.setFrequency(ctx, *req.Frequency, vfo); err != nil {
			return err
		}
	}
	if req.Mode != nil {
		if err := c.setMode(ctx, *req.Mode, vfo); err != nil {
			return err
		}
	}
	if req.Power != nil {
		if err := c.setPower(ctx, *req.Power); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateCache drops every cached key, forcing the next read of each to
// hit the wire.
func (c *Controller) InvalidateCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch.InvalidateAll()
}

// CacheStatistics reports the number of live cache entries.
func (c *Controller) CacheStatistics() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.Len()
}
