// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780test simulates an HD44780 controller at the pin level.
//
// The Controller hands out a 4 pin data group, a register select pin and an
// enable pin. Each falling edge on the enable pin latches D4-D7, the same way
// the chip does, so any driver bit banging the bus can be checked against the
// resulting display RAM.
package hd44780test

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/pin"
)

const (
	ddramSize = 0x80
	lineLen   = 40
	line2     = 0x40
)

var rowStarts = []int{0x00, 0x40, 0x14, 0x54}

// Controller is a simulated HD44780 with its bus pins.
type Controller struct {
	mu   sync.Mutex
	rows int
	cols int

	data  *group
	rs    *gpiotest.Pin
	e     *strobe
	ddram [ddramSize]byte

	fourBit   bool
	pending   bool
	latched   byte
	ac        int
	shift     int
	increment bool
	autoShift bool
	twoLine   bool
	on        bool
	cursor    bool
	blink     bool
	commands  []byte
	nibbles   int
}

// NewController returns a controller in its power-on reset state: 8 bit
// interface, one line, display off, DDRAM blank.
func NewController(rows, cols int) *Controller {
	c := &Controller{rows: rows, cols: cols, increment: true}
	pins := make([]*gpiotest.Pin, 4)
	for i := range pins {
		pins[i] = &gpiotest.Pin{N: fmt.Sprintf("D%d", i+4), Num: i + 4}
	}
	c.data = &group{pins: pins}
	c.rs = &gpiotest.Pin{N: "RS", Num: 0}
	c.e = &strobe{Pin: &gpiotest.Pin{N: "E", Num: 1}, c: c}
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
	return c
}

// Data returns the D4-D7 group, D4 at offset 0.
func (c *Controller) Data() gpio.Group {
	return c.data
}

// RS returns the register select pin.
func (c *Controller) RS() gpio.PinOut {
	return c.rs
}

// E returns the enable pin.
func (c *Controller) E() gpio.PinOut {
	return c.e
}

// Line returns the visible characters of a 1 based row.
func (c *Controller) Line(row int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.line(row)
}

func (c *Controller) line(row int) string {
	if row < 1 || row > len(rowStarts) {
		return ""
	}
	base := 0
	if row%2 == 0 {
		base = line2
	}
	start := rowStarts[row-1] - base
	b := make([]byte, c.cols)
	for i := range b {
		b[i] = c.ddram[base+mod(start+i+c.shift, lineLen)]
	}
	return string(b)
}

// Lines returns every visible row.
func (c *Controller) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, c.rows)
	for i := range out {
		out[i] = c.line(i + 1)
	}
	return out
}

// String returns the visible rows separated by new lines.
func (c *Controller) String() string {
	return strings.Join(c.Lines(), "\n")
}

// DDRAM returns a copy of the display RAM.
func (c *Controller) DDRAM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.ddram[:]...)
}

// Address returns the address counter.
func (c *Controller) Address() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return byte(c.ac)
}

// Commands returns every instruction byte executed so far.
func (c *Controller) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.commands...)
}

// LastCommand returns the most recent instruction, or 0 when none ran.
func (c *Controller) LastCommand() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.commands) == 0 {
		return 0
	}
	return c.commands[len(c.commands)-1]
}

// Nibbles returns the number of enable strobes seen.
func (c *Controller) Nibbles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nibbles
}

// FourBit reports whether the interface was switched to 4 bit mode.
func (c *Controller) FourBit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fourBit
}

// DisplayOn reports the D bit of display control.
func (c *Controller) DisplayOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// CursorOn reports the C and B bits of display control.
func (c *Controller) CursorOn() (underline, blink bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor, c.blink
}

// TwoLine reports the N bit of function set.
func (c *Controller) TwoLine() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.twoLine
}

// latch is called on every falling edge of E.
func (c *Controller) latch() {
	var nibble byte
	for i, p := range c.data.pins {
		if p.Read() == gpio.High {
			nibble |= 1 << i
		}
	}
	rs := c.rs.Read() == gpio.High

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nibbles++
	if !c.fourBit {
		// D0-D3 are not wired and read as 0.
		c.execute(rs, nibble<<4)
		return
	}
	if !c.pending {
		c.latched = nibble << 4
		c.pending = true
		return
	}
	c.pending = false
	c.execute(rs, c.latched|nibble)
}

func (c *Controller) execute(rs bool, b byte) {
	if rs {
		c.ddram[c.ac] = b
		c.step(c.increment)
		if c.autoShift {
			if c.increment {
				c.shift++
			} else {
				c.shift--
			}
		}
		return
	}
	c.commands = append(c.commands, b)
	switch {
	case b&0x80 != 0:
		c.ac = int(b & 0x7f)
	case b&0x40 != 0:
		// CGRAM address, custom glyphs are not simulated.
	case b&0x20 != 0:
		fourBit := b&0x10 == 0
		if fourBit != c.fourBit {
			c.pending = false
		}
		c.fourBit = fourBit
		c.twoLine = b&0x08 != 0
	case b&0x10 != 0:
		right := b&0x04 != 0
		if b&0x08 != 0 {
			if right {
				c.shift--
			} else {
				c.shift++
			}
		} else {
			c.step(right)
		}
	case b&0x08 != 0:
		c.on = b&0x04 != 0
		c.cursor = b&0x02 != 0
		c.blink = b&0x01 != 0
	case b&0x04 != 0:
		c.increment = b&0x02 != 0
		c.autoShift = b&0x01 != 0
	case b&0x02 != 0:
		c.ac = 0
		c.shift = 0
	case b&0x01 != 0:
		for i := range c.ddram {
			c.ddram[i] = ' '
		}
		c.ac = 0
		c.shift = 0
		c.increment = true
	}
}

// step moves the address counter one position, wrapping between lines the
// way the chip does.
func (c *Controller) step(forward bool) {
	if !c.twoLine {
		if forward {
			c.ac = (c.ac + 1) % 80
		} else {
			c.ac = mod(c.ac-1, 80)
		}
		return
	}
	switch {
	case forward && c.ac == lineLen-1:
		c.ac = line2
	case forward && c.ac >= line2+lineLen-1:
		c.ac = 0
	case forward:
		c.ac++
	case c.ac == 0:
		c.ac = line2 + lineLen - 1
	case c.ac == line2:
		c.ac = lineLen - 1
	default:
		c.ac--
	}
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// strobe is the enable pin. It latches the bus on the high to low transition.
type strobe struct {
	*gpiotest.Pin
	c *Controller
}

func (s *strobe) Out(l gpio.Level) error {
	prev := s.Pin.Read()
	if err := s.Pin.Out(l); err != nil {
		return err
	}
	if prev == gpio.High && l == gpio.Low {
		s.c.latch()
	}
	return nil
}

// group implements gpio.Group over the simulated data lines.
type group struct {
	pins []*gpiotest.Pin
}

func (g *group) Pins() []pin.Pin {
	out := make([]pin.Pin, len(g.pins))
	for i, p := range g.pins {
		out[i] = p
	}
	return out
}

func (g *group) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(g.pins) {
		return nil
	}
	return g.pins[offset]
}

func (g *group) ByName(name string) pin.Pin {
	for _, p := range g.pins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func (g *group) ByNumber(number int) pin.Pin {
	for _, p := range g.pins {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

// Out writes value to the pins selected by mask. A zero mask selects every
// pin of the group.
func (g *group) Out(value, mask gpio.GPIOValue) error {
	if mask == 0 {
		mask = 1<<len(g.pins) - 1
	}
	for i, p := range g.pins {
		if mask&(1<<i) == 0 {
			continue
		}
		if err := p.Out(gpio.Level(value&(1<<i) != 0)); err != nil {
			return err
		}
	}
	return nil
}

func (g *group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	if mask == 0 {
		mask = 1<<len(g.pins) - 1
	}
	var v gpio.GPIOValue
	for i, p := range g.pins {
		if p.Read() == gpio.High {
			v |= 1 << i
		}
	}
	return v & mask, nil
}

func (g *group) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return 0, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

func (g *group) String() string {
	names := make([]string, len(g.pins))
	for i, p := range g.pins {
		names[i] = p.Name()
	}
	return "[" + strings.Join(names, ",") + "]"
}

func (g *group) Halt() error {
	return nil
}

var _ gpio.Group = &group{}
var _ gpio.PinOut = &strobe{}
