package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kd9vec/gorigd/rig"
)

const sample = `
rig:
  model: IC-7300
  device: /dev/ttyUSB0
  baud: 19200
rigctld:
  listen: ":4532"
  advertise: true
ptt:
  backend: gpio
  gpio_chip: gpiochip0
  gpio_line: 17
logging:
  level: debug
`

func TestLoad_ParsesFullDocument(t *testing.T) {
	cfg, err := Load([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, rig.ModelIC7300, cfg.Rig.Model)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Rig.Device)
	assert.Equal(t, 19200, cfg.Rig.Baud)
	assert.Equal(t, ":4532", cfg.Rigctld.Listen)
	assert.True(t, cfg.Rigctld.Advertise)
	assert.Equal(t, PTTBackendGPIO, cfg.PTT.Backend)
	assert.Equal(t, "gpiochip0", cfg.PTT.GPIOChip)
	assert.Equal(t, 17, cfg.PTT.GPIOLine)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_PartialDocumentKeepsDefaults(t *testing.T) {
	cfg, err := Load([]byte("rig:\n  model: K3\n  device: /dev/ttyUSB1\n"))
	require.NoError(t, err)

	assert.Equal(t, ":4532", cfg.Rigctld.Listen, "unset rigctld.listen falls back to Default")
	assert.Equal(t, PTTBackendCAT, cfg.PTT.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate_RequiresModelAndDevice(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())

	cfg.Rig.Model = rig.ModelIC7300
	assert.Error(t, cfg.Validate(), "device still unset")

	cfg.Rig.Device = "/dev/ttyUSB0"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_GPIOBackendRequiresChip(t *testing.T) {
	cfg := Default()
	cfg.Rig.Model = rig.ModelK3
	cfg.Rig.Device = "/dev/ttyUSB0"
	cfg.PTT.Backend = PTTBackendGPIO

	assert.Error(t, cfg.Validate())
	cfg.PTT.GPIOChip = "gpiochip0"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Rig.Model = rig.ModelIC7300
	cfg.Rig.Device = "/dev/ttyUSB0"
	cfg.PTT.Backend = "bogus"
	assert.Error(t, cfg.Validate())
}
