package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kd9vec/gorigd/bcd"
	"github.com/kd9vec/gorigd/elecraft"
	"github.com/kd9vec/gorigd/rig"
)

var modeToElecraftName = map[rig.Mode]string{
	rig.ModeLSB:     "LSB",
	rig.ModeUSB:     "USB",
	rig.ModeCW:      "CW",
	rig.ModeCWR:     "CW-R",
	rig.ModeFM:      "FM",
	rig.ModeAM:      "AM",
	rig.ModeDataUSB: "DATA",
	rig.ModeRTTYR:   "DATA-R",
}

func freqCmdName(vfo rig.VFO) string {
	if vfo == rig.VFOB {
		return "FB"
	}
	return "FA"
}

// elecraftDefault builds the shared K-series ASCII dispatch table. k2Style
// selects how PTT state is set and read: K2 uses a direct TQ query and
// accepts CAT-driven TX/RX only in the modes k2CATPTTAllowedIn permits; K3/K4
// derive it from the IF response and toggle it with bare TX/RX commands.
func elecraftDefault(t Traits, k2Style bool, powerWidth int) Ops {
	return Ops{
		Traits: t,

		BuildSetFrequency: func(hz rig.Frequency, vfo rig.VFO) ([]byte, error) {
			field := bcd.AsciiFreq11(uint64(hz))
			return []byte(elecraft.Build(freqCmdName(vfo), string(field[:]))), nil
		},
		BuildGetFrequency: func(vfo rig.VFO) ([]byte, error) {
			return []byte(elecraft.Query(freqCmdName(vfo))), nil
		},
		ParseFrequency: func(resp []byte) (rig.Frequency, error) {
			line := string(resp)
			hz, err := bcd.ParseAsciiFreq([]byte(elecraft.Args(line)))
			if err != nil {
				return 0, err
			}
			return rig.Frequency(hz), nil
		},

		BuildSetMode: func(mode rig.Mode, vfo rig.VFO) ([]byte, error) {
			name, ok := modeToElecraftName[mode]
			if !ok {
				return nil, fmt.Errorf("models: unmapped mode %s", mode)
			}
			digit, ok := elecraft.ModeCodeReverse[name]
			if !ok {
				return nil, fmt.Errorf("models: no elecraft code for mode %s", mode)
			}
			return []byte(elecraft.Build("MD", string(digit))), nil
		},
		BuildGetMode: func(vfo rig.VFO) ([]byte, error) {
			return []byte(elecraft.Query("MD")), nil
		},
		ParseMode: func(resp []byte) (rig.Mode, error) {
			line := string(resp)
			args := elecraft.Args(line)
			if len(args) == 0 {
				return rig.ModeUnknown, fmt.Errorf("models: empty MD response")
			}
			name, ok := elecraft.ModeCode[args[0]]
			if !ok {
				return rig.ModeUnknown, fmt.Errorf("models: unknown elecraft mode digit %q", args[0])
			}
			for m, n := range modeToElecraftName {
				if n == name {
					return m, nil
				}
			}
			return rig.ModeUnknown, fmt.Errorf("models: no rig.Mode for elecraft mode %s", name)
		},

		// K-series select VFO implicitly via the FA/FB command used, not a
		// separate select-VFO command.
		BuildSetVFO: nil,

		BuildSetPTT: func(mode rig.Mode, on bool) ([]byte, error) {
			if k2Style && !k2CATPTTAllowedIn(mode) {
				return nil, fmt.Errorf("%w: %s", ErrPTTNotSupportedInMode, mode)
			}
			if on {
				return []byte(elecraft.Query("TX")), nil
			}
			return []byte(elecraft.Query("RX")), nil
		},
		BuildGetPTT: func() ([]byte, error) {
			if k2Style {
				return []byte(elecraft.Query("TQ")), nil
			}
			return []byte(elecraft.Query("IF")), nil
		},
		ParsePTT: func(resp []byte) (bool, error) {
			line := string(resp)
			if k2Style {
				args := elecraft.Args(line)
				return args == "1", nil
			}
			ifr, err := elecraft.ParseIF(line)
			if err != nil {
				return false, err
			}
			return ifr.Transmit, nil
		},

		BuildSetPower: func(scale uint16) ([]byte, error) {
			return []byte(elecraft.Build("PC", bcd.AsciiInt(uint64(scale), powerWidth))), nil
		},
		BuildGetPower: func() ([]byte, error) {
			return []byte(elecraft.Query("PC")), nil
		},
		ParsePower: func(resp []byte) (uint16, error) {
			n, err := bcd.ParseAsciiInt(elecraft.Args(string(resp)))
			if err != nil {
				return 0, err
			}
			return uint16(n), nil
		},

		BuildSetSplit: func(on bool) ([]byte, error) {
			return []byte(elecraft.Build("SP", boolDigit(on))), nil
		},
		BuildGetSplit: func() ([]byte, error) {
			return []byte(elecraft.Query("SP")), nil
		},
		ParseSplit: func(resp []byte) (bool, error) {
			return elecraft.Args(string(resp)) == "1", nil
		},

		BuildGetSignalStrength: func() ([]byte, error) {
			return []byte(elecraft.Query("SM")), nil
		},
		ParseSignalStrength: func(resp []byte) (uint8, error) {
			n, err := bcd.ParseAsciiInt(elecraft.Args(string(resp)))
			if err != nil {
				return 0, err
			}
			return uint8(n), nil
		},

		BuildSetRIT: func(state rig.RITState) ([]byte, error) {
			return []byte(elecraft.Build("RO", bcd.AsciiSignedInt(int64(state.OffsetHz), 4))), nil
		},
		BuildGetRIT: func() ([]byte, error) {
			return []byte(elecraft.Query("RO")), nil
		},
		ParseRIT: func(resp []byte) (rig.RITState, error) {
			offset, err := bcd.ParseAsciiSignedInt(elecraft.Args(string(resp)))
			if err != nil {
				return rig.RITState{}, err
			}
			return rig.RITState{Enabled: offset != 0, OffsetHz: int32(offset)}, nil
		},

		BuildSetXIT: func(state rig.RITState) ([]byte, error) {
			return []byte(elecraft.Build("XF", bcd.AsciiSignedInt(int64(state.OffsetHz), 4))), nil
		},
		BuildGetXIT: func() ([]byte, error) {
			return []byte(elecraft.Query("XF")), nil
		},
		ParseXIT: func(resp []byte) (rig.RITState, error) {
			offset, err := bcd.ParseAsciiSignedInt(elecraft.Args(string(resp)))
			if err != nil {
				return rig.RITState{}, err
			}
			return rig.RITState{Enabled: offset != 0, OffsetHz: int32(offset)}, nil
		},

		// Memory channel wire format is model-specific and not named by
		// spec.md; left unimplemented rather than guessed.
		BuildWriteMemory: nil,
		BuildReadMemory:  nil,
		ParseMemory:      nil,
		BuildClearMemory: nil,

		BuildGetPreamp: func() ([]byte, error) {
			return []byte(elecraft.Query("PA")), nil
		},
		ParsePreamp: func(resp []byte) (int, error) {
			return parseLeadingDigit(elecraft.Args(string(resp)))
		},
		BuildSetPreamp: func(level int) ([]byte, error) {
			return []byte(elecraft.Build("PA", strconv.Itoa(level))), nil
		},

		BuildGetAttenuator: func() ([]byte, error) {
			return []byte(elecraft.Query("RA")), nil
		},
		ParseAttenuator: func(resp []byte) (int, error) {
			return parseLeadingDigit(elecraft.Args(string(resp)))
		},
		BuildSetAttenuator: func(level int) ([]byte, error) {
			return []byte(elecraft.Build("RA", fmt.Sprintf("%02d", level))), nil
		},

		// Band exchange is an Icom CI-V concept (spec.md §9 Open Question
		// #2); no K-series equivalent.
		BuildExchangeBands: nil,

		BuildSetLevel: func(level rig.LevelKind, value int) ([]byte, error) {
			name, ok := levelCmdName[level]
			if !ok {
				return nil, fmt.Errorf("models: unsupported level %s", level)
			}
			return []byte(elecraft.Build(name, fmt.Sprintf("%02d", value))), nil
		},
		BuildGetLevel: func(level rig.LevelKind) ([]byte, error) {
			name, ok := levelCmdName[level]
			if !ok {
				return nil, fmt.Errorf("models: unsupported level %s", level)
			}
			return []byte(elecraft.Query(name)), nil
		},
		ParseLevel: func(level rig.LevelKind, resp []byte) (int, error) {
			return parseLeadingDigit(elecraft.Args(string(resp)))
		},
	}
}

// levelCmdName maps a rigctld level kind to its K-series ASCII mnemonic.
// AG/NB/NR follow Elecraft's own two-letter naming convention; IS (IF
// shift) stands in for rigctld's generic IFFILTER selector since K-series
// radios expose filter width through IF shift/passband commands rather
// than a single filter index.
var levelCmdName = map[rig.LevelKind]string{
	rig.LevelAGC:      "AG",
	rig.LevelNB:       "NB",
	rig.LevelNR:       "NR",
	rig.LevelIFFilter: "IS",
}

// ErrPTTNotSupportedInMode is the sentinel a BuildSetPTT returns when the
// model rejects CAT PTT in the caller's current mode, distinct from a plain
// build failure (rigctl maps it to rigerr.ModeNotSupported instead of
// rigerr.InvalidParameter).
var ErrPTTNotSupportedInMode = fmt.Errorf("models: ptt not supported in current mode")

// k2CATPTTAllowedIn reports whether the K2 accepts CAT-driven TX/RX in mode.
// Spec.md §4.4/§4.8: CAT PTT is valid for SSB/RTTY; CW keying goes through
// KY instead, so TX;/RX; must be rejected for CW/CW-R. The K2's DATA mode
// (its RTTY mode) reads back as ModeDataUSB, so it counts as RTTY here; every
// other mode is rejected.
func k2CATPTTAllowedIn(mode rig.Mode) bool {
	switch mode {
	case rig.ModeLSB, rig.ModeUSB, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeDataUSB:
		return true
	default:
		return false
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseLeadingDigit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("models: empty numeric field")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// NewK2 builds the dispatch table for the Elecraft K2. Power is reported in
// direct watts (0-15), not percentage. PTT is read with TQ and set with
// TX;/RX; only in SSB and RTTY modes; in any other mode, CW included,
// BuildSetPTT returns ErrPTTNotSupportedInMode. After a set, the controller
// waits PTTPostSendDelay (100 ms) before the next command.
// NewK2 (and NewK3/NewK4 below) take a civAddr parameter only so every entry
// in the constructors map shares one signature; K-series radios address
// over an ASCII command line, not CI-V, so it's unused here.
func NewK2(byte) Ops {
	t := Traits{
		VFOModel:         rig.VFOModelTargetable,
		EchoesCommands:   false,
		PowerUnits:       rig.PowerUnitsDirectWatts0_15,
		DefaultBaud:      4800,
		SupportsXIT:      true,
		Terminator:       ';',
		PTTPostSendDelay: 100 * time.Millisecond,
	}
	return elecraftDefault(t, true, 3)
}

func NewK3(byte) Ops {
	t := Traits{
		VFOModel:       rig.VFOModelTargetable,
		EchoesCommands: false,
		PowerUnits:     rig.PowerUnitsPercentage,
		DefaultBaud:    38400,
		SupportsXIT:    true,
		Terminator:     ';',
	}
	return elecraftDefault(t, false, 3)
}

func NewK4(byte) Ops {
	t := Traits{
		VFOModel:       rig.VFOModelTargetable,
		EchoesCommands: false,
		PowerUnits:     rig.PowerUnitsPercentage,
		DefaultBaud:    38400,
		SupportsXIT:    true,
		Terminator:     ';',
	}
	return elecraftDefault(t, false, 3)
}
