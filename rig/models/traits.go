// Package models implements the per-model command set (spec.md §4.5): a
// Traits record of model flags plus an Ops dispatch table of function values
// built once per model. This is the "trait/interface holding data plus a
// dispatch table of function pointers" pattern mandated by spec.md §9, in
// place of the deep-inheritance/virtual-dispatch style the spec flags for
// replacement.
package models

import (
	"time"

	"github.com/kd9vec/gorigd/rig"
)

// Traits is the static per-model flag record, spec.md §4.5.
type Traits struct {
	CIVAddress         byte
	VFOModel           rig.VFOModel
	RequiresModeFilter bool
	EchoesCommands     bool
	PowerUnits         rig.PowerUnits
	DefaultBaud        uint32
	// AltLayoutSubcommands lists the (opcode, subcommand) pairs this model
	// echoes back in the data field instead of the command field (spec.md
	// §4.3). Keyed on the pair, not the bare subcommand byte, since
	// subcommand bytes are only unique within their parent opcode (e.g.
	// 0x02 is both the S-meter subcommand under 0x15 and the preamp
	// subcommand under 0x16).
	AltLayoutSubcommands []AltCommand
	SupportsXIT          bool
	// Terminator is the byte RoundTrip should read until: 0xFD for CI-V,
	// ';' for Elecraft.
	Terminator byte
	// PTTPostSendDelay is a mandated settle time after a set_ptt exchange,
	// e.g. the K2's 100ms post-TX/RX delay (spec.md §4.8). Zero on models
	// with no such requirement.
	PTTPostSendDelay time.Duration
}

// AltCommand identifies one (opcode, subcommand) pair.
type AltCommand struct {
	Op  byte
	Sub byte
}

func (t Traits) usesAltLayout(op, subcommand byte) bool {
	for _, c := range t.AltLayoutSubcommands {
		if c.Op == op && c.Sub == subcommand {
			return true
		}
	}
	return false
}

// Ops is the per-model dispatch table. Every field is a function value;
// default behavior lives in the shared builders in icom.go/elecraft.go and
// model constructors patch in overrides, rather than subclassing.
type Ops struct {
	Traits Traits

	BuildSetFrequency func(hz rig.Frequency, vfo rig.VFO) ([]byte, error)
	ParseFrequency    func(resp []byte) (rig.Frequency, error)
	BuildGetFrequency func(vfo rig.VFO) ([]byte, error)

	BuildSetMode func(mode rig.Mode, vfo rig.VFO) ([]byte, error)
	ParseMode    func(resp []byte) (rig.Mode, error)
	BuildGetMode func(vfo rig.VFO) ([]byte, error)

	BuildSetVFO func(vfo rig.VFO) ([]byte, error)

	// BuildSetPTT receives the rig's current operating mode so models that
	// gate CAT PTT by mode (the K2, spec.md §4.4/§4.8) can reject it rather
	// than transmit silently in a mode that doesn't support CAT keying.
	BuildSetPTT func(mode rig.Mode, on bool) ([]byte, error)
	ParsePTT    func(resp []byte) (bool, error)
	BuildGetPTT func() ([]byte, error)

	BuildSetPower func(scale uint16) ([]byte, error)
	ParsePower    func(resp []byte) (uint16, error)
	BuildGetPower func() ([]byte, error)

	BuildSetSplit func(on bool) ([]byte, error)
	ParseSplit    func(resp []byte) (bool, error)
	BuildGetSplit func() ([]byte, error)

	BuildGetSignalStrength func() ([]byte, error)
	ParseSignalStrength    func(resp []byte) (uint8, error)

	// BuildSetRIT builds the RIT offset frame. BuildSetRITEnable, when
	// non-nil, builds a second, separate enable/disable frame the model
	// requires in addition to the offset (CI-V's split enable/offset
	// subcommands, spec.md §4.5); nil on models (e.g. Elecraft) whose set
	// command already carries both in one frame.
	BuildSetRIT       func(rig.RITState) ([]byte, error)
	BuildSetRITEnable func(on bool) ([]byte, error)
	BuildGetRIT       func() ([]byte, error)
	ParseRIT          func(resp []byte) (rig.RITState, error)

	// BuildSetXIT builds the XIT enable/disable frame. BuildSetXITOffset,
	// when non-nil, builds the separate offset frame the model requires in
	// addition to the enable bit; nil on models whose set command already
	// carries both in one frame.
	BuildSetXIT       func(rig.RITState) ([]byte, error)
	BuildSetXITOffset func(offsetHz int32) ([]byte, error)
	BuildGetXIT       func() ([]byte, error)
	ParseXIT          func(resp []byte) (rig.RITState, error)

	BuildWriteMemory func(rig.MemoryChannel) ([]byte, error)
	BuildReadMemory  func(n int) ([]byte, error)
	ParseMemory      func(resp []byte) (rig.MemoryChannel, error)
	BuildClearMemory func(n int) ([]byte, error)

	BuildGetPreamp func() ([]byte, error)
	ParsePreamp    func(resp []byte) (int, error)
	BuildSetPreamp func(level int) ([]byte, error)

	BuildGetAttenuator func() ([]byte, error)
	ParseAttenuator    func(resp []byte) (int, error)
	BuildSetAttenuator func(level int) ([]byte, error)

	// BuildSetLevel/BuildGetLevel/ParseLevel cover rigctld's L/l commands
	// (AGC speed, NB/NR level, IF filter selection), spec.md §4.9.
	BuildSetLevel func(level rig.LevelKind, value int) ([]byte, error)
	BuildGetLevel func(level rig.LevelKind) ([]byte, error)
	ParseLevel    func(level rig.LevelKind, resp []byte) (int, error)

	// BuildExchangeBands builds the IC-7600 "07 B0" command, spec.md §9 Open
	// Question #2. icomDefault sets it for every Icom model; it is nil on the
	// Elecraft models.
	BuildExchangeBands func() ([]byte, error)
}

// New builds the Ops dispatch table for model, or false if unknown.
// civAddr overrides the model's factory CI-V bus address when nonzero; it
// has no effect on Elecraft models, which don't address over CI-V.
func New(model rig.ModelID, civAddr byte) (Ops, bool) {
	ctor, ok := constructors[model]
	if !ok {
		return Ops{}, false
	}
	return ctor(civAddr), true
}

var constructors = map[rig.ModelID]func(byte) Ops{
	rig.ModelIC7300: NewIC7300,
	rig.ModelIC7100: NewIC7100,
	rig.ModelIC705:  NewIC705,
	rig.ModelIC706:  NewIC706,
	rig.ModelIC746:  NewIC746,
	rig.ModelIC7600: NewIC7600,
	rig.ModelIC9100: NewIC9100,
	rig.ModelIC9700: NewIC9700,
	rig.ModelK2:     NewK2,
	rig.ModelK3:     NewK3,
	rig.ModelK4:     NewK4,
}
