// Package registry holds the static capability table the controller
// consults on every operation, spec.md §4.6. Grounded on the teacher's
// src/deviceid.go init-time static-table pattern, adapted from a
// YAML-loaded-at-runtime table to a compiled-in one: capability facts (band
// plans, mode sets, max power) are fixed per firmware family and ship with
// this library's release, not edited by an operator the way a device path
// or baud override is (see config.Config for the operator-editable knobs).
package registry

import "github.com/kd9vec/gorigd/rig"

var table = map[rig.ModelID]rig.Capabilities{
	rig.ModelIC7300: {
		Model:                  rig.ModelIC7300,
		FrequencyRanges:        hfRanges(true),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            19200,
		CIVAddress:             0x94,
		MemoryChannelCount:     99,
		NBLevelMax:             10,
		NRLevelMax:             15,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCMedium, rig.AGCSlow},
	},
	rig.ModelIC7100: {
		Model:                  rig.ModelIC7100,
		FrequencyRanges:        hfVhfUhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB, rig.ModeDataFM},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            19200,
		CIVAddress:             0x88,
		MemoryChannelCount:     99,
		NBLevelMax:             10,
		NRLevelMax:             15,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCMedium, rig.AGCSlow},
	},
	rig.ModelIC705: {
		Model:                  rig.ModelIC705,
		FrequencyRanges:        hfVhfUhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB, rig.ModeDataFM},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            115200,
		CIVAddress:             0xA4,
		MemoryChannelCount:     99,
		NBLevelMax:             10,
		NRLevelMax:             15,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCMedium, rig.AGCSlow},
	},
	rig.ModelIC706: {
		Model:                  rig.ModelIC706,
		FrequencyRanges:        hfVhfUhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeAM, rig.ModeFM},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            false,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            9600,
		CIVAddress:             0x58,
		MemoryChannelCount:     107,
		NBLevelMax:             1,
		NRLevelMax:             1,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCSlow},
	},
	rig.ModelIC746: {
		Model:                  rig.ModelIC746,
		FrequencyRanges:        hfVhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeAM, rig.ModeFM},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            9600,
		CIVAddress:             0x56,
		MemoryChannelCount:     99,
		NBLevelMax:             1,
		NRLevelMax:             1,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCSlow},
	},
	rig.ModelIC7600: {
		Model:                  rig.ModelIC7600,
		FrequencyRanges:        hfRanges(true),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		HasDualReceiver:         true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            19200,
		CIVAddress:             0x7A,
		MemoryChannelCount:     99,
		NBLevelMax:             10,
		NRLevelMax:             15,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCMedium, rig.AGCSlow},
	},
	rig.ModelIC9100: {
		Model:                  rig.ModelIC9100,
		FrequencyRanges:        hfVhfUhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		HasDualReceiver:         true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            19200,
		CIVAddress:             0x7C,
		MemoryChannelCount:     99,
		NBLevelMax:             10,
		NRLevelMax:             15,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCMedium, rig.AGCSlow},
	},
	rig.ModelIC9700: {
		Model:                  rig.ModelIC9700,
		FrequencyRanges:        vhfUhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB, rig.ModeDataFM},
		MaxPower:               255,
		HasSplit:                true,
		HasVFOB:                 true,
		HasDualReceiver:         true,
		SupportsRIT:            true,
		SupportsXIT:            false, // spec.md §9 Open Question #4
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            19200,
		CIVAddress:             0xA2,
		MemoryChannelCount:     99,
		NBLevelMax:             10,
		NRLevelMax:             15,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCFast, rig.AGCMedium, rig.AGCSlow},
	},
	rig.ModelK2: {
		Model:                  rig.ModelK2,
		FrequencyRanges:        hfRanges(true),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeDataUSB},
		MaxPower:               15,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsDirectWatts0_15,
		DefaultBaud:            4800,
		MemoryChannelCount:     10,
		NBLevelMax:             1,
		NRLevelMax:             1,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCSlow, rig.AGCFast},
	},
	rig.ModelK3: {
		Model:                  rig.ModelK3,
		FrequencyRanges:        hfRanges(true),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB},
		MaxPower:               100,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            38400,
		MemoryChannelCount:     100,
		NBLevelMax:             1,
		NRLevelMax:             1,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCSlow, rig.AGCFast, rig.AGCAuto},
	},
	rig.ModelK4: {
		Model:                  rig.ModelK4,
		FrequencyRanges:        hfVhfRanges(),
		SupportedModes:         []rig.Mode{rig.ModeLSB, rig.ModeUSB, rig.ModeCW, rig.ModeCWR, rig.ModeRTTY, rig.ModeRTTYR, rig.ModeAM, rig.ModeFM, rig.ModeDataLSB, rig.ModeDataUSB},
		MaxPower:               100,
		HasSplit:                true,
		HasVFOB:                 true,
		SupportsRIT:            true,
		SupportsXIT:            true,
		SupportsSignalStrength: true,
		PowerUnits:             rig.PowerUnitsPercentage,
		DefaultBaud:            38400,
		MemoryChannelCount:     200,
		NBLevelMax:             1,
		NRLevelMax:             1,
		AllowedAGCSpeeds:       []rig.AGCSpeed{rig.AGCOff, rig.AGCSlow, rig.AGCFast, rig.AGCAuto},
	},
}

// Lookup returns the capability record for model, and whether it exists.
func Lookup(model rig.ModelID) (rig.Capabilities, bool) {
	c, ok := table[model]
	return c, ok
}

// Models returns every registered model ID, for dump_caps-style enumeration.
func Models() []rig.ModelID {
	out := make([]rig.ModelID, 0, len(table))
	for m := range table {
		out = append(out, m)
	}
	return out
}

func hfRanges(canTx bool) []rig.FrequencyRange {
	return []rig.FrequencyRange{
		{Min: 30_000, Max: 60_000_000, CanTx: canTx, BandName: "HF+6m"},
	}
}

func hfVhfRanges() []rig.FrequencyRange {
	return []rig.FrequencyRange{
		{Min: 30_000, Max: 60_000_000, CanTx: true, BandName: "HF+6m"},
		{Min: 108_000_000, Max: 174_000_000, CanTx: true, BandName: "2m"},
	}
}

func hfVhfUhfRanges() []rig.FrequencyRange {
	return []rig.FrequencyRange{
		{Min: 30_000, Max: 60_000_000, CanTx: true, BandName: "HF+6m"},
		{Min: 108_000_000, Max: 174_000_000, CanTx: true, BandName: "2m"},
		{Min: 420_000_000, Max: 480_000_000, CanTx: true, BandName: "70cm"},
	}
}

func vhfUhfRanges() []rig.FrequencyRange {
	return []rig.FrequencyRange{
		{Min: 144_000_000, Max: 148_000_000, CanTx: true, BandName: "2m"},
		{Min: 430_000_000, Max: 450_000_000, CanTx: true, BandName: "70cm"},
		{Min: 1_240_000_000, Max: 1_300_000_000, CanTx: true, BandName: "23cm"},
	}
}
