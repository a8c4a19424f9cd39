package rigctld

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kd9vec/gorigd/rig"
	"github.com/kd9vec/gorigd/rigctl"
)

type commandFunc func(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error)

type commandSpec struct {
	short string
	long  string
	fn    commandFunc
}

// commandTable is the single source of truth for both dispatch maps, so the
// short and long forms of a command can never drift apart (spec.md §8's
// property #8: every short command has a long-command equivalent producing
// the identical response body).
var commandTable = []commandSpec{
	{"F", "set_freq", cmdSetFreq},
	{"f", "get_freq", cmdGetFreq},
	{"M", "set_mode", cmdSetMode},
	{"m", "get_mode", cmdGetMode},
	{"V", "set_vfo", cmdSetVFO},
	{"v", "get_vfo", cmdGetVFO},
	{"T", "set_ptt", cmdSetPTT},
	{"t", "get_ptt", cmdGetPTT},
	{"S", "set_split_vfo", cmdSetSplitVFO},
	{"s", "get_split_vfo", cmdGetSplitVFO},
	{"I", "set_split_freq", cmdNotImplemented},
	{"i", "get_split_freq", cmdNotImplemented},
	{"X", "set_split_mode", cmdNotImplemented},
	{"x", "get_split_mode", cmdNotImplemented},
	{"2", "power2mW", cmdPower2mW},
	{"4", "mW2power", cmdMW2Power},
	{"L", "set_level", cmdSetLevel},
	{"l", "get_level", cmdGetLevel},
	{"", "dump_caps", cmdDumpCaps},
	{"", "dump_state", cmdDumpState},
	{"", "chk_vfo", cmdChkVFO},
	{"", "set_ext_response", cmdSetExtResponse},
	{"", "set_powerstat", cmdSetPowerstat},
	{"q", "quit", nil},
}

var shortCommands = map[string]*commandSpec{}
var longCommands = map[string]*commandSpec{}

func init() {
	for i := range commandTable {
		spec := &commandTable[i]
		if spec.short != "" {
			shortCommands[spec.short] = spec
		}
		longCommands[spec.long] = spec
	}
}

func cmdNotImplemented(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	return nil, errUnknownCommand
}

// --- mode / vfo token mappings, spec.md §4.9 ---

var modeTokenToRig = map[string]rig.Mode{
	"LSB":     rig.ModeLSB,
	"USB":     rig.ModeUSB,
	"CW":      rig.ModeCW,
	"CWR":     rig.ModeCWR,
	"AM":      rig.ModeAM,
	"FM":      rig.ModeFM,
	"FMN":     rig.ModeFMNarrow,
	"WFM":     rig.ModeWFM,
	"RTTY":    rig.ModeRTTY,
	"RTTYR":   rig.ModeRTTYR,
	"PKTLSB":  rig.ModeDataLSB,
	"DATALSB": rig.ModeDataLSB,
	"PKTUSB":  rig.ModeDataUSB,
	"DATAUSB": rig.ModeDataUSB,
	"PKTFM":   rig.ModeDataFM,
}

var modeRigToToken = func() map[rig.Mode]string {
	m := make(map[rig.Mode]string, len(modeTokenToRig))
	// Prefer PKT* spellings over DATA* since that's Hamlib's primary name.
	for _, name := range []string{"LSB", "USB", "CW", "CWR", "AM", "FM", "FMN", "WFM", "RTTY", "RTTYR", "PKTLSB", "PKTUSB", "PKTFM"} {
		m[modeTokenToRig[name]] = name
	}
	return m
}()

// defaultPassband returns the stock passband width in Hz for mode, per
// spec.md §4.9.
func defaultPassband(mode rig.Mode) int {
	switch mode {
	case rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR:
		return 500
	case rig.ModeAM:
		return 6000
	case rig.ModeFM:
		return 15000
	case rig.ModeFMNarrow:
		return 10000
	case rig.ModeWFM:
		return 150000
	default:
		return 2400 // SSB/data
	}
}

var vfoTokenToRig = map[string]rig.VFO{
	"VFOA": rig.VFOA,
	"A":    rig.VFOA,
	"VFOB": rig.VFOB,
	"B":    rig.VFOB,
	"Main": rig.VFOMain,
	"Sub":  rig.VFOSub,
}

func vfoToToken(vfo rig.VFO) string {
	switch vfo {
	case rig.VFOA:
		return "VFOA"
	case rig.VFOB:
		return "VFOB"
	case rig.VFOMain:
		return "Main"
	case rig.VFOSub:
		return "Sub"
	default:
		return "VFOA"
	}
}

func boolToToken(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// --- frequency ---

func cmdSetFreq(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_freq requires a frequency argument")
	}
	hz, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return nil, parseInvalidParam("set_freq: not a number")
	}
	return nil, ctrl.SetFrequency(ctx, rig.Frequency(hz), sess.vfo)
}

func cmdGetFreq(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	freq, err := ctrl.GetFrequency(ctx, sess.vfo)
	if err != nil {
		return nil, err
	}
	return []string{strconv.FormatUint(uint64(freq), 10)}, nil
}

// --- mode ---

func cmdSetMode(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_mode requires a mode argument")
	}
	mode, ok := modeTokenToRig[strings.ToUpper(args[0])]
	if !ok {
		return nil, parseInvalidParam("set_mode: unknown mode " + args[0])
	}
	return nil, ctrl.SetMode(ctx, mode, sess.vfo)
}

func cmdGetMode(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	mode, err := ctrl.GetMode(ctx, sess.vfo)
	if err != nil {
		return nil, err
	}
	token, ok := modeRigToToken[mode]
	if !ok {
		token = mode.String()
	}
	return []string{token, strconv.Itoa(defaultPassband(mode))}, nil
}

// --- VFO ---

func cmdSetVFO(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_vfo requires a vfo argument")
	}
	vfo, ok := vfoTokenToRig[args[0]]
	if !ok {
		return nil, parseInvalidParam("set_vfo: unknown vfo " + args[0])
	}
	err := ctrl.SetVFO(ctx, vfo)
	if err != nil {
		// Elecraft models select VFO implicitly per command (FA/FB) rather
		// than with a dedicated wire op; track it in the session instead of
		// failing the whole request. A model with its own dedicated select
		// command that rejected this VFO is a real capability error.
		if !ctrl.HasDedicatedVFOSelect() {
			sess.vfo = vfo
			return nil, nil
		}
		return nil, err
	}
	sess.vfo = vfo
	return nil, nil
}

func cmdGetVFO(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	return []string{vfoToToken(sess.vfo)}, nil
}

// --- PTT ---

func cmdSetPTT(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_ptt requires a 0/1 argument")
	}
	return nil, ctrl.SetPTT(ctx, args[0] == "1")
}

func cmdGetPTT(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	on, err := ctrl.GetPTT(ctx)
	if err != nil {
		return nil, err
	}
	return []string{boolToToken(on)}, nil
}

// --- split ---

func cmdSetSplitVFO(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_split_vfo requires a 0/1 argument")
	}
	return nil, ctrl.SetSplit(ctx, args[0] == "1")
}

func cmdGetSplitVFO(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	on, err := ctrl.IsSplitEnabled(ctx)
	if err != nil {
		return nil, err
	}
	return []string{boolToToken(on), "VFOB"}, nil
}

// --- power conversions, spec.md §4.9 ---

// nominalWatts is the assumed full-scale output for models whose capability
// record reports power as a percentage rather than direct watts; their
// registry entry doesn't carry an absolute watt rating, so power2mW/
// mW2power use this as a documented stand-in.
const nominalWatts = 100

func maxWatts(caps rig.Capabilities) float64 {
	if caps.PowerUnits == rig.PowerUnitsDirectWatts0_15 {
		return float64(caps.MaxPower)
	}
	return nominalWatts
}

func cmdPower2mW(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("power2mW requires a power argument")
	}
	power, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, parseInvalidParam("power2mW: not a number")
	}
	mw := int(power * maxWatts(ctrl.Capabilities()) * 1000)
	return []string{strconv.Itoa(mw)}, nil
}

func cmdMW2Power(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("mW2power requires a power argument")
	}
	mw, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, parseInvalidParam("mW2power: not a number")
	}
	power := mw / 1000 / maxWatts(ctrl.Capabilities())
	if power < 0 {
		power = 0
	}
	if power > 1 {
		power = 1
	}
	return []string{fmt.Sprintf("%.6f", power)}, nil
}

// --- levels ---

func cmdSetLevel(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 2 {
		return nil, parseInvalidParam("set_level requires a level name and value")
	}
	level, ok := rig.ParseLevelKind(strings.ToUpper(args[0]))
	if !ok {
		return nil, errUnknownCommand
	}
	value, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return nil, parseInvalidParam("set_level: not a number")
	}
	return nil, ctrl.SetLevel(ctx, level, int(value))
}

func cmdGetLevel(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("get_level requires a level name")
	}
	level, ok := rig.ParseLevelKind(strings.ToUpper(args[0]))
	if !ok {
		return nil, errUnknownCommand
	}
	v, err := ctrl.GetLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(v)}, nil
}

// --- caps / state ---

func cmdDumpCaps(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	caps := ctrl.Capabilities()
	lines := []string{
		fmt.Sprintf("Model: %s", caps.Model),
		fmt.Sprintf("Can set Frequency: %v", true),
		fmt.Sprintf("Can set Mode: %v", len(caps.SupportedModes) > 0),
		fmt.Sprintf("Can set Split VFO: %v", caps.HasSplit),
		fmt.Sprintf("Can set RIT: %v", caps.SupportsRIT),
		fmt.Sprintf("Can set XIT: %v", caps.SupportsXIT),
		fmt.Sprintf("Has S-meter: %v", caps.SupportsSignalStrength),
		fmt.Sprintf("Max power: %d", caps.MaxPower),
		fmt.Sprintf("Memory channels: %d", caps.MemoryChannelCount),
	}
	for _, r := range caps.FrequencyRanges {
		lines = append(lines, fmt.Sprintf("Range: %d-%d Hz (%s) tx=%v", r.Min, r.Max, r.BandName, r.CanTx))
	}
	return lines, nil
}

func cmdDumpState(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	caps := ctrl.Capabilities()
	lines := []string{
		"0",            // protocol version, spec.md §4.9
		string(caps.Model),
		"0", // ITU region: not modeled per-band, reported as unspecified
	}
	for _, r := range caps.FrequencyRanges {
		lines = append(lines, fmt.Sprintf("%d %d", r.Min, r.Max))
	}
	lines = append(lines, "0 0 0 0 0 0 0") // range-list end marker
	lines = append(lines, vfoToToken(sess.vfo))
	lines = append(lines, "done")
	return lines, nil
}

func cmdChkVFO(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	return []string{"1"}, nil
}

func cmdSetExtResponse(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_ext_response requires a 0/1 argument")
	}
	sess.extended = args[0] == "1"
	return nil, nil
}

func cmdSetPowerstat(ctx context.Context, ctrl *rigctl.Controller, sess *session, args []string) ([]string, error) {
	if len(args) < 1 {
		return nil, parseInvalidParam("set_powerstat requires a 0/1 argument")
	}
	// spec.md §4.9 groups set_powerstat with set_ext_response as the two
	// commands that switch response_mode; rig power control itself isn't
	// modeled as a Controller operation.
	sess.extended = args[0] == "1"
	return nil, nil
}
