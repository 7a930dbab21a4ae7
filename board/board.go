// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package board describes how the monitor is wired: which converter feeds
// it, which GPIO lines drive the LCD and the alarm outputs, and the loop
// timing.
//
// The reference wiring is compiled into the binary from board.yaml. A file
// given at run time is laid over it, so it only needs the fields that
// differ.
package board

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed board.yaml
var embedded []byte

// Sensor drivers.
const (
	DriverRegister = "register"
	DriverModbus   = "modbus"
	DriverSim      = "sim"
)

// Board is the complete wiring description.
type Board struct {
	Sensor  SensorConfig  `yaml:"sensor"`
	Display DisplayConfig `yaml:"display"`
	Alarm   AlarmConfig   `yaml:"alarm"`
	Loop    LoopConfig    `yaml:"loop"`
}

// SensorConfig selects the analog source.
type SensorConfig struct {
	Driver            string        `yaml:"driver"`
	Bus               string        `yaml:"bus"`     // I²C bus name, empty for the first one
	Address           uint16        `yaml:"address"` // I²C address of the converter bridge
	Channel           int           `yaml:"channel"`
	MaxChannel        int           `yaml:"max_channel"`
	Acquisition       time.Duration `yaml:"acquisition"`
	ConversionTimeout time.Duration `yaml:"conversion_timeout"`
	Modbus            ModbusConfig  `yaml:"modbus"`
}

// ModbusConfig is used when Driver is "modbus".
type ModbusConfig struct {
	Transport string        `yaml:"transport"`
	Endpoint  string        `yaml:"endpoint"`
	UnitID    uint8         `yaml:"unit_id"`
	Timeout   time.Duration `yaml:"timeout"`
	Base      uint16        `yaml:"base"`
	FullScale uint16        `yaml:"full_scale"`
	BaudRate  int           `yaml:"baud_rate"`
	Parity    string        `yaml:"parity"`
}

// DisplayConfig names the LCD lines. Data lists D4 to D7 in order.
type DisplayConfig struct {
	RS         string        `yaml:"rs"`
	Enable     string        `yaml:"enable"`
	Data       []string      `yaml:"data"`
	Backlight  string        `yaml:"backlight"` // optional
	Rows       int           `yaml:"rows"`
	Cols       int           `yaml:"cols"`
	EnableHold time.Duration `yaml:"enable_hold"`
	ClearDelay time.Duration `yaml:"clear_delay"`
}

// AlarmConfig names the indicator lines.
type AlarmConfig struct {
	Low     string `yaml:"low"`
	High    string `yaml:"high"`
	Audible string `yaml:"audible"`
}

// LoopConfig holds the refresh timing and the row 1 text.
type LoopConfig struct {
	Interval time.Duration `yaml:"interval"`
	Label    string        `yaml:"label"`
}

// Default returns the reference wiring. It matches the embedded board.yaml.
func Default() *Board {
	return &Board{
		Sensor: SensorConfig{
			Driver:            DriverRegister,
			Address:           0x2a,
			Channel:           0,
			MaxChannel:        7,
			Acquisition:       2 * time.Millisecond,
			ConversionTimeout: 100 * time.Millisecond,
			Modbus: ModbusConfig{
				Transport: "tcp",
				UnitID:    1,
				Timeout:   time.Second,
				FullScale: 1023,
			},
		},
		Display: DisplayConfig{
			RS:         "GPIO17",
			Enable:     "GPIO18",
			Data:       []string{"GPIO27", "GPIO22", "GPIO23", "GPIO24"},
			Backlight:  "GPIO25",
			Rows:       2,
			Cols:       16,
			EnableHold: time.Millisecond,
			ClearDelay: 2 * time.Millisecond,
		},
		Alarm: AlarmConfig{
			Low:     "GPIO5",
			High:    "GPIO6",
			Audible: "GPIO13",
		},
		Loop: LoopConfig{
			Interval: 500 * time.Millisecond,
			Label:    "Gas Detected",
		},
	}
}

// Parse lays data over the reference wiring and validates the result.
func Parse(data []byte) (*Board, error) {
	b := Default()
	if err := yaml.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("board: parse: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Load reads the board description at path. An empty path selects the
// embedded board.yaml.
func Load(path string) (*Board, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board: %w", err)
	}
	return Parse(data)
}

// Validate checks the description without modifying it.
func (b *Board) Validate() error {
	var errs []error
	switch b.Sensor.Driver {
	case DriverRegister:
		if b.Sensor.Address < 0x08 || b.Sensor.Address > 0x77 {
			errs = append(errs, fmt.Errorf("sensor: address %#x outside the 7 bit range", b.Sensor.Address))
		}
	case DriverModbus:
		if b.Sensor.Modbus.Endpoint == "" {
			errs = append(errs, errors.New("sensor: modbus endpoint required"))
		}
		if t := b.Sensor.Modbus.Transport; t != "tcp" && t != "rtu" {
			errs = append(errs, fmt.Errorf("sensor: unknown modbus transport %q", t))
		}
		if b.Sensor.MaxChannel < 0 {
			errs = append(errs, fmt.Errorf("sensor: negative max_channel %d", b.Sensor.MaxChannel))
		}
	case DriverSim:
	default:
		errs = append(errs, fmt.Errorf("sensor: unknown driver %q", b.Sensor.Driver))
	}
	// adc.Opts treats a zero MaxChannel as its default of AN7.
	if d := b.Sensor.Driver; d == DriverRegister || d == DriverSim {
		if b.Sensor.MaxChannel < 1 || b.Sensor.MaxChannel > 7 {
			errs = append(errs, fmt.Errorf("sensor: max_channel %d must be in [1, 7]", b.Sensor.MaxChannel))
		}
	}
	if b.Sensor.Channel < 0 {
		errs = append(errs, fmt.Errorf("sensor: negative channel %d", b.Sensor.Channel))
	} else if b.Sensor.Channel > b.Sensor.MaxChannel {
		errs = append(errs, fmt.Errorf("sensor: channel %d above max_channel %d", b.Sensor.Channel, b.Sensor.MaxChannel))
	}

	d := &b.Display
	if len(d.Data) != 4 {
		errs = append(errs, fmt.Errorf("display: need 4 data lines, got %d", len(d.Data)))
	}
	if d.Rows < 1 || d.Rows > 4 {
		errs = append(errs, fmt.Errorf("display: rows %d must be in [1, 4]", d.Rows))
	}
	if d.Cols < 1 || d.Cols > 40 {
		errs = append(errs, fmt.Errorf("display: cols %d must be in [1, 40]", d.Cols))
	}
	if len(b.Loop.Label) > d.Cols {
		errs = append(errs, fmt.Errorf("loop: label %q is wider than %d columns", b.Loop.Label, d.Cols))
	}
	if b.Loop.Interval <= 0 {
		errs = append(errs, fmt.Errorf("loop: interval %s must be positive", b.Loop.Interval))
	}

	used := map[string]string{}
	claim := func(role, name string, optional bool) {
		if name == "" {
			if !optional {
				errs = append(errs, fmt.Errorf("%s: line name required", role))
			}
			return
		}
		if prev, ok := used[name]; ok {
			errs = append(errs, fmt.Errorf("%s: %s already used by %s", role, name, prev))
			return
		}
		used[name] = role
	}
	claim("display.rs", d.RS, false)
	claim("display.enable", d.Enable, false)
	for i, n := range d.Data {
		claim(fmt.Sprintf("display.data[%d]", i), n, false)
	}
	claim("display.backlight", d.Backlight, true)
	claim("alarm.low", b.Alarm.Low, false)
	claim("alarm.high", b.Alarm.High, false)
	claim("alarm.audible", b.Alarm.Audible, false)

	if len(errs) != 0 {
		return fmt.Errorf("board: %w", errors.Join(errs...))
	}
	return nil
}

// LCDLines returns the display lines in the order D4, D5, D6, D7, RS, E and,
// when present, the backlight.
func (b *Board) LCDLines() []string {
	lines := append([]string(nil), b.Display.Data...)
	lines = append(lines, b.Display.RS, b.Display.Enable)
	if b.Display.Backlight != "" {
		lines = append(lines, b.Display.Backlight)
	}
	return lines
}
