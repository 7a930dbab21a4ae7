// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package board

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	b := Default()
	require.NoError(t, b.Validate())
	assert.Equal(t, DriverRegister, b.Sensor.Driver)
	assert.Equal(t, uint16(0x2a), b.Sensor.Address)
	assert.Equal(t, 2*time.Millisecond, b.Sensor.Acquisition)
	assert.Equal(t, 500*time.Millisecond, b.Loop.Interval)
	assert.Equal(t, "Gas Detected", b.Loop.Label)
	assert.Equal(t, []string{"GPIO27", "GPIO22", "GPIO23", "GPIO24", "GPIO17", "GPIO18", "GPIO25"}, b.LCDLines())
}

func TestEmbeddedMatchesDefault(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), b)
}

func TestParseOverlay(t *testing.T) {
	b, err := Parse([]byte(`
sensor:
  driver: modbus
  modbus:
    transport: rtu
    endpoint: /dev/ttyUSB0
    baud_rate: 9600
    full_scale: 4095
display:
  backlight: ""
loop:
  interval: 1s
`))
	require.NoError(t, err)
	assert.Equal(t, DriverModbus, b.Sensor.Driver)
	assert.Equal(t, "/dev/ttyUSB0", b.Sensor.Modbus.Endpoint)
	assert.Equal(t, 9600, b.Sensor.Modbus.BaudRate)
	assert.Equal(t, uint16(4095), b.Sensor.Modbus.FullScale)
	// Untouched fields keep the reference values.
	assert.Equal(t, uint8(1), b.Sensor.Modbus.UnitID)
	assert.Equal(t, "GPIO17", b.Display.RS)
	assert.Equal(t, time.Second, b.Loop.Interval)
	assert.Len(t, b.LCDLines(), 6)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":          "sensor: [",
		"driver":          "sensor: {driver: spi}",
		"address":         "sensor: {address: 0x80}",
		"max channel":     "sensor: {max_channel: 8}",
		"max channel 0":   "sensor: {max_channel: 0}",
		"sim channel 0":   "sensor: {driver: sim, max_channel: 0}",
		"above max":       "sensor: {max_channel: 2, channel: 3}",
		"modbus above":    "sensor: {driver: modbus, max_channel: 0, channel: 1, modbus: {endpoint: \"127.0.0.1:502\"}}",
		"modbus negative": "sensor: {driver: modbus, max_channel: -1, channel: 0, modbus: {endpoint: \"127.0.0.1:502\"}}",
		"channel":         "sensor: {channel: -1}",
		"modbus":          "sensor: {driver: modbus}",
		"transport":       "sensor: {driver: modbus, modbus: {endpoint: x, transport: udp}}",
		"data lines":      "display: {data: [GPIO1, GPIO2]}",
		"rows":            "display: {rows: 5}",
		"cols":            "display: {cols: 0}",
		"label":           "loop: {label: a label far too long for the lcd}",
		"interval":        "loop: {interval: 0s}",
		"missing rs":      "display: {rs: \"\"}",
		"shared line":     "alarm: {low: GPIO17}",
		"duplicate data":  "display: {data: [GPIO27, GPIO27, GPIO23, GPIO24]}",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParseSingleChannel(t *testing.T) {
	b, err := Parse([]byte("sensor: {max_channel: 1, channel: 1}"))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Sensor.MaxChannel)

	b, err = Parse([]byte("sensor: {driver: modbus, max_channel: 0, channel: 0, modbus: {endpoint: \"127.0.0.1:502\"}}"))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Sensor.MaxChannel)
}

func TestValidateReportsAll(t *testing.T) {
	b := Default()
	b.Sensor.Driver = "nope"
	b.Display.Rows = 0
	err := b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
	assert.Contains(t, err.Error(), "rows 0")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor: {driver: sim, channel: 3}\n"), 0o600))
	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSim, b.Sensor.Driver)
	assert.Equal(t, 3, b.Sensor.Channel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
