// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d shows a row of indicator lamps on the terminal using ANSI
// color codes.
//
// Each lamp is exposed as a gpio.PinOut, so the alarm outputs can be wired to
// the console while the real LEDs and buzzer are not connected.
package screen1d

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Lamp describes one indicator.
type Lamp struct {
	Name  string
	Color color.NRGBA
}

// Opts represents the options available for this display.
type Opts struct {
	Lamps   []Lamp
	Palette *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is an indicator strip emulator that outputs to the console.
type Dev struct {
	mu      sync.Mutex
	w       io.Writer
	palette ansi256.Palette
	lamps   []Lamp
	levels  []gpio.Level
	pins    []*Pin

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		w:       w,
		palette: *p,
		lamps:   append([]Lamp(nil), opts.Lamps...),
		levels:  make([]gpio.Level, len(opts.Lamps)),
	}
	d.pins = make([]*Pin, len(d.lamps))
	for i := range d.lamps {
		d.pins[i] = &Pin{d: d, n: i}
	}
	return d
}

func (d *Dev) String() string {
	return "Screen1D"
}

// Pin returns the output driving lamp i.
func (d *Dev) Pin(i int) *Pin {
	return d.pins[i]
}

// Levels returns the current state of every lamp.
func (d *Dev) Levels() []gpio.Level {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]gpio.Level(nil), d.levels...)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors and moves to the next line.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

func (d *Dev) set(i int, l gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.levels[i] == l {
		return nil
	}
	d.levels[i] = l
	return d.refresh()
}

// refresh redraws the whole strip on the current line.
func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i, lamp := range d.lamps {
		c := color.NRGBA{A: 255}
		if d.levels[i] {
			c = lamp.Color
		}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		_, _ = fmt.Fprintf(&d.buf, "\033[0m %-4s ", lamp.Name)
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

// Pin is one lamp of the strip.
type Pin struct {
	d *Dev
	n int
}

func (p *Pin) String() string {
	return p.Name()
}

// Halt turns the lamp off.
func (p *Pin) Halt() error {
	return p.Out(gpio.Low)
}

func (p *Pin) Name() string {
	return p.d.lamps[p.n].Name
}

func (p *Pin) Number() int {
	return p.n
}

func (p *Pin) Function() string {
	return string(p.Func())
}

// Func implements pin.PinFunc.
func (p *Pin) Func() pin.Func {
	return gpio.OUT
}

// SupportedFuncs implements pin.PinFunc.
func (p *Pin) SupportedFuncs() []pin.Func {
	return []pin.Func{gpio.OUT}
}

// SetFunc implements pin.PinFunc.
func (p *Pin) SetFunc(f pin.Func) error {
	if f != gpio.OUT {
		return fmt.Errorf("screen1d: %s: unsupported function %s", p.Name(), f)
	}
	return nil
}

// Out lights the lamp on High.
func (p *Pin) Out(l gpio.Level) error {
	return p.d.set(p.n, l)
}

// PWM lights the lamp for any duty of at least 50%.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return p.Out(duty >= gpio.DutyHalf)
}

// Read returns the last level written.
func (p *Pin) Read() gpio.Level {
	p.d.mu.Lock()
	defer p.d.mu.Unlock()
	return p.d.levels[p.n]
}

var _ gpio.PinOut = &Pin{}
var _ pin.PinFunc = &Pin{}
var _ fmt.Stringer = &Dev{}
