// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adctest provides simulated converters for tests and for running the
// monitor without hardware.
package adctest

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	regADRESH  = 0x1e
	regADCON0  = 0x1f
	regADRESL  = 0x9e
	regADCON1  = 0x9f
	bitADON    = 0x01
	bitGoDone  = 0x04
	adfm       = 0x80
	chsShift   = 3
	chsBits    = 0x07
	resultMask = 0x03ff
)

// Converter simulates the converter register file behind an I²C bridge. It
// implements i2c.Bus so it can be handed to adc.NewI2C.
//
// A conversion started by setting GO/DONE completes after Latency reads of
// ADCON0. When Stuck is set, GO/DONE never clears.
type Converter struct {
	sync.Mutex
	// Func, when set, supplies the value of a channel at conversion time and
	// takes precedence over Set.
	Func func(channel int) uint16
	// Latency is the number of ADCON0 reads that still see GO/DONE set.
	Latency int
	// Stuck keeps GO/DONE set forever.
	Stuck bool

	values     [8]uint16
	regs       map[byte]byte
	pending    int
	conversion int
}

// NewConverter returns a powered down converter with all channels at 0.
func NewConverter() *Converter {
	return &Converter{regs: map[byte]byte{}}
}

// Set sets the voltage on channel, expressed as a 10 bit count. Channels
// outside AN0-AN7 do not exist and are ignored.
func (c *Converter) Set(channel int, v uint16) {
	if channel < 0 || channel >= len(c.values) {
		return
	}
	c.Lock()
	defer c.Unlock()
	c.values[channel] = v & resultMask
}

// Register returns the current content of a register.
func (c *Converter) Register(reg byte) byte {
	c.Lock()
	defer c.Unlock()
	return c.regs[reg]
}

// Conversions returns the number of conversions started so far.
func (c *Converter) Conversions() int {
	c.Lock()
	defer c.Unlock()
	return c.conversion
}

func (c *Converter) String() string {
	return "adctest.Converter"
}

// Tx implements i2c.Bus. A one byte write followed by a one byte read is a
// register read, a two byte write is a register write.
func (c *Converter) Tx(addr uint16, w, r []byte) error {
	c.Lock()
	defer c.Unlock()
	if c.regs == nil {
		c.regs = map[byte]byte{}
	}
	switch {
	case len(w) == 1 && len(r) == 1:
		r[0] = c.read(w[0])
		return nil
	case len(w) == 2 && len(r) == 0:
		c.write(w[0], w[1])
		return nil
	default:
		return fmt.Errorf("adctest: unsupported transaction w=%#v len(r)=%d", w, len(r))
	}
}

func (c *Converter) read(reg byte) byte {
	v := c.regs[reg]
	if reg == regADCON0 && v&bitGoDone != 0 && !c.Stuck {
		if c.pending > 0 {
			c.pending--
		} else {
			c.complete()
			v = c.regs[reg]
		}
	}
	return v
}

func (c *Converter) write(reg, v byte) {
	prev := c.regs[reg]
	c.regs[reg] = v
	if reg != regADCON0 {
		return
	}
	if v&bitGoDone != 0 && prev&bitGoDone == 0 && v&bitADON != 0 {
		c.conversion++
		c.pending = c.Latency
	}
}

// complete latches the selected channel into ADRESH:ADRESL and clears
// GO/DONE.
func (c *Converter) complete() {
	ctl := c.regs[regADCON0]
	ch := int(ctl>>chsShift) & chsBits
	v := c.values[ch]
	if c.Func != nil {
		v = c.Func(ch) & resultMask
	}
	if c.regs[regADCON1]&adfm != 0 {
		c.regs[regADRESH] = byte(v >> 8)
		c.regs[regADRESL] = byte(v)
	} else {
		c.regs[regADRESH] = byte(v >> 2)
		c.regs[regADRESL] = byte(v << 6)
	}
	c.regs[regADCON0] = ctl &^ bitGoDone
}

// SetSpeed implements i2c.Bus.
func (c *Converter) SetSpeed(f physic.Frequency) error {
	return nil
}

// Close implements i2c.BusCloser.
func (c *Converter) Close() error {
	return nil
}

// SCL implements i2c.Pins.
func (c *Converter) SCL() gpio.PinIO {
	return gpio.INVALID
}

// SDA implements i2c.Pins.
func (c *Converter) SDA() gpio.PinIO {
	return gpio.INVALID
}

// Source is an in-memory analog source. Channels default to 0; unknown
// channels always read 0.
type Source struct {
	mu       sync.Mutex
	values   map[int]uint16
	channels int
	reads    []int
	err      error
}

// NewSource returns a Source accepting channels [0, channels).
func NewSource(channels int) *Source {
	return &Source{values: map[int]uint16{}, channels: channels}
}

// Set sets the next value returned for channel.
func (s *Source) Set(channel int, v uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[channel] = v
}

// Fail makes every following Read return err. A nil err clears the failure.
func (s *Source) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Read implements the channel reader contract.
func (s *Source) Read(channel int) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= s.channels {
		return 0, nil
	}
	s.reads = append(s.reads, channel)
	if s.err != nil {
		return 0, s.err
	}
	return s.values[channel], nil
}

// Reads returns the channels sampled so far, in order. Rejected channels are
// not recorded.
func (s *Source) Reads() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.reads...)
}

// ErrInjected is a convenience error for Fail.
var ErrInjected = errors.New("adctest: injected failure")

var _ i2c.BusCloser = &Converter{}
var _ i2c.Pins = &Converter{}
