// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/GermanBionicSystems/gasmon/adc"
	"github.com/GermanBionicSystems/gasmon/adc/adctest"
	"github.com/GermanBionicSystems/gasmon/alarm"
	"github.com/GermanBionicSystems/gasmon/board"
	"github.com/GermanBionicSystems/gasmon/hd44780"
	"github.com/GermanBionicSystems/gasmon/hd44780/hd44780test"
	"github.com/GermanBionicSystems/gasmon/lcdview"
	"github.com/GermanBionicSystems/gasmon/modbusadc"
	"github.com/GermanBionicSystems/gasmon/monitor"
	"github.com/GermanBionicSystems/gasmon/screen1d"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/gpioioctl"
)

// rig holds the three drivers handed to the monitor and everything that must
// be released on exit, in release order.
type rig struct {
	name    string
	src     monitor.AnalogSource
	lcd     *hd44780.HD44780
	out     *alarm.Outputs
	halts   []func() error
	lines   func() []string
	observe func()
}

// Close switches the outputs off first so a failing LCD cannot leave the
// buzzer on.
func (r *rig) Close() error {
	var errs []error
	if r.out != nil {
		errs = append(errs, r.out.Halt())
	}
	if r.lcd != nil {
		errs = append(errs, r.lcd.Halt())
	}
	for i := len(r.halts) - 1; i >= 0; i-- {
		errs = append(errs, r.halts[i]())
	}
	return errors.Join(errs...)
}

func (r *rig) snapshot(path string) error {
	if r.lines == nil {
		return errors.New("no simulated LCD to snapshot")
	}
	return lcdview.SavePNG(path, r.lines(), r.lcd.Cols(), nil)
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func lcdOpts(b *board.Board) *hd44780.Opts {
	return &hd44780.Opts{
		Rows:       b.Display.Rows,
		Cols:       b.Display.Cols,
		EnableHold: b.Display.EnableHold,
		ClearDelay: b.Display.ClearDelay,
	}
}

func adcOpts(b *board.Board) *adc.Opts {
	return &adc.Opts{
		MaxChannel:        b.Sensor.MaxChannel,
		Acquisition:       b.Sensor.Acquisition,
		ConversionTimeout: b.Sensor.ConversionTimeout,
	}
}

// ramp returns a converter input sweeping 0 to 1023 and back, one step per
// conversion, so every alarm stage is visited.
func ramp(step int) func(channel int) uint16 {
	n := 0
	return func(channel int) uint16 {
		n++
		phase := float64(n*step%2046) / 2046
		return uint16(1023 * (1 - math.Abs(2*phase-1)))
	}
}

// openSource opens the analog source named by the board. bus is only used by
// the register driver.
func openSource(r *rig, b *board.Board, bus i2c.Bus) error {
	switch b.Sensor.Driver {
	case board.DriverModbus:
		mb := b.Sensor.Modbus
		s, err := modbusadc.Dial(modbusadc.Config{
			Transport: mb.Transport,
			Endpoint:  mb.Endpoint,
			UnitID:    mb.UnitID,
			Timeout:   mb.Timeout,
			BaudRate:  mb.BaudRate,
			Parity:    mb.Parity,
			Opts:      modbusadc.Opts{Base: mb.Base, Channels: b.Sensor.MaxChannel + 1, FullScale: mb.FullScale},
		})
		if err != nil {
			return err
		}
		r.src, r.name = s, s.String()
		r.halts = append(r.halts, s.Close)
		return nil
	case board.DriverSim:
		conv := adctest.NewConverter()
		conv.Func = ramp(31)
		bus = conv
	}
	if bus == nil {
		return errors.New("no I²C bus for the converter")
	}
	d, err := adc.NewI2C(bus, b.Sensor.Address, adcOpts(b))
	if err != nil {
		return err
	}
	r.src, r.name = d, d.String()
	r.halts = append(r.halts, d.Halt)
	return nil
}

func openHardware(b *board.Board) (*rig, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	r := &rig{}
	if err := openHardwareDevices(r, b); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func openHardwareDevices(r *rig, b *board.Board) error {
	var bus i2c.BusCloser
	if b.Sensor.Driver == board.DriverRegister {
		var err error
		if bus, err = i2creg.Open(b.Sensor.Bus); err != nil {
			return fmt.Errorf("i2c %q: %w", b.Sensor.Bus, err)
		}
		r.halts = append(r.halts, bus.Close)
	}
	if err := openSource(r, b, bus); err != nil {
		return err
	}

	if len(gpioioctl.Chips) == 0 {
		return errors.New("no GPIO chip found")
	}
	ls, err := gpioioctl.Chips[0].LineSet(gpioioctl.LineOutput, gpio.NoEdge, gpio.PullNoChange, b.LCDLines()...)
	if err != nil {
		return fmt.Errorf("lcd lines: %w", err)
	}
	r.halts = append(r.halts, ls.Close)
	pins := ls.Pins()
	var bl display.DisplayBacklight
	if b.Display.Backlight != "" {
		bl = hd44780.NewBacklight(pins[6].(gpio.PinOut))
	}
	if r.lcd, err = hd44780.NewHD44780(ls, pins[4].(gpio.PinOut), pins[5].(gpio.PinOut), bl, lcdOpts(b)); err != nil {
		return err
	}

	var out [3]gpio.PinOut
	for i, name := range []string{b.Alarm.Low, b.Alarm.High, b.Alarm.Audible} {
		p := gpioreg.ByName(name)
		if p == nil {
			return fmt.Errorf("alarm line %s not found", name)
		}
		out[i] = p
	}
	r.out, err = alarm.NewOutputs(out[0], out[1], out[2])
	return err
}

// openSim builds the monitor on simulated devices. The converter is always
// simulated, whatever driver the board names. When stdout is a terminal the
// alarm outputs are drawn as a lamp strip.
func openSim(b *board.Board, tty bool) (*rig, error) {
	r := &rig{}
	if err := openSimDevices(r, b, tty); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func openSimDevices(r *rig, b *board.Board, tty bool) error {
	sim := *b
	sim.Sensor.Driver = board.DriverSim
	if err := openSource(r, &sim, nil); err != nil {
		return err
	}

	ctl := hd44780test.NewController(b.Display.Rows, b.Display.Cols)
	opts := lcdOpts(b)
	opts.EnableHold, opts.ClearDelay = -1, -1
	var err error
	if r.lcd, err = hd44780.NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), hd44780.NewBacklight(&gpiotest.Pin{N: "BL"}), opts); err != nil {
		return err
	}
	r.lines = ctl.Lines
	r.observe = func() {
		log.Debug().Strs("lcd", ctl.Lines()).Msg("frame")
	}

	var low, high, buzz gpio.PinOut
	if tty {
		strip := screen1d.New(&screen1d.Opts{Lamps: []screen1d.Lamp{
			{Name: "LOW", Color: color.NRGBA{0xff, 0xc0, 0x00, 0xff}},
			{Name: "HIGH", Color: color.NRGBA{0xff, 0x00, 0x00, 0xff}},
			{Name: "BUZZ", Color: color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		}})
		low, high, buzz = strip.Pin(0), strip.Pin(1), strip.Pin(2)
		r.halts = append(r.halts, strip.Halt)
	} else {
		low, high, buzz = &gpiotest.Pin{N: "LOW"}, &gpiotest.Pin{N: "HIGH"}, &gpiotest.Pin{N: "BUZZ"}
	}
	r.out, err = alarm.NewOutputs(low, high, buzz)
	r.name = "simulated " + r.name
	return err
}
