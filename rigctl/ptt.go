package rigctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/kd9vec/gorigd/rig"
	"github.com/kd9vec/gorigd/rig/models"
	"github.com/kd9vec/gorigd/rigerr"
)

// PTTBackend keys a transmitter on and off. In-band CAT PTT is the default;
// WithGPIOPTT swaps in a GPIO line instead, for rigs or interfaces that key
// through a hardware line rather than over the wire. mode is the rig's
// current operating mode, needed by backends (the K2) that gate CAT PTT by
// mode rather than supporting it unconditionally.
//
// Grounded on the teacher's own GPIO PTT support (src/ptt.go's sysfs/ioctl
// GPIO path), re-expressed here as an interface with two implementations
// instead of the teacher's C bridge.
type PTTBackend interface {
	SetPTT(ctx context.Context, mode rig.Mode, on bool) error
	GetPTT(ctx context.Context) (bool, error)
	Close() error
}

// catPTT keys the transmitter using the model's own CAT command set.
type catPTT struct {
	c *Controller
}

func (p catPTT) SetPTT(ctx context.Context, mode rig.Mode, on bool) error {
	wire, err := p.c.ops.BuildSetPTT(mode, on)
	if err != nil {
		if errors.Is(err, models.ErrPTTNotSupportedInMode) {
			return rigerr.New(rigerr.ModeNotSupported, "%v", err)
		}
		return rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	if err := p.c.exchange(ctx, wire); err != nil {
		return err
	}
	if d := p.c.ops.Traits.PTTPostSendDelay; d > 0 {
		time.Sleep(d)
	}
	return nil
}

func (p catPTT) GetPTT(ctx context.Context) (bool, error) {
	wire, err := p.c.ops.BuildGetPTT()
	if err != nil {
		return false, rigerr.New(rigerr.InvalidParameter, "%v", err)
	}
	resp, err := p.c.query(ctx, wire)
	if err != nil {
		return false, err
	}
	return p.c.ops.ParsePTT(resp)
}

func (p catPTT) Close() error { return nil }

// gpioPTT keys the transmitter by driving a GPIO line high/low via
// go-gpiocdev, bypassing CAT entirely. GetPTT reports the backend's own
// idea of line state rather than asking the radio, since a line-keyed rig
// may not reflect external PTT in its CAT status at all.
type gpioPTT struct {
	chip string
	line int
	req  *gpiocdev.Line
	on   bool
}

func newGPIOPTT(chip string, line int) *gpioPTT {
	return &gpioPTT{chip: chip, line: line}
}

func (p *gpioPTT) ensureOpen() error {
	if p.req != nil {
		return nil
	}
	req, err := gpiocdev.RequestLine(p.chip, p.line, gpiocdev.AsOutput(0))
	if err != nil {
		return rigerr.New(rigerr.SerialPortError, "gpio %s:%d: %v", p.chip, p.line, err)
	}
	p.req = req
	return nil
}

func (p *gpioPTT) SetPTT(ctx context.Context, mode rig.Mode, on bool) error {
	if err := p.ensureOpen(); err != nil {
		return err
	}
	val := 0
	if on {
		val = 1
	}
	if err := p.req.SetValue(val); err != nil {
		return rigerr.New(rigerr.SerialPortError, "gpio set: %v", err)
	}
	p.on = on
	return nil
}

func (p *gpioPTT) GetPTT(ctx context.Context) (bool, error) {
	if p.req == nil {
		return false, nil
	}
	return p.on, nil
}

func (p *gpioPTT) Close() error {
	if p.req == nil {
		return nil
	}
	err := p.req.Close()
	p.req = nil
	if err != nil {
		return fmt.Errorf("gpio close: %w", err)
	}
	return nil
}
