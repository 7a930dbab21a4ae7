// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
)

const (
	// Register addresses in the PIC16F877A data memory map.
	RegADRESH byte = 0x1e
	RegADCON0 byte = 0x1f
	RegADRESL byte = 0x9e
	RegADCON1 byte = 0x9f

	// ADCON0 bits.
	adcon0ADON   byte = 0x01
	adcon0GoDone byte = 0x04
	chsShift          = 3
	chsMask      byte = 0x07 << chsShift

	// ResultMask covers the 10 significant bits of a right justified result.
	ResultMask uint16 = 0x03ff

	// DefaultADCON1 selects a right justified result.
	DefaultADCON1 byte = 0x80
	// DefaultADCON0 turns the converter on with channel 0 selected.
	DefaultADCON0 byte = 0x41
	// DefaultMaxChannel is the highest channel of the 40 pin parts (AN0-AN7).
	DefaultMaxChannel = 7
	// DefaultAcquisition is the settling time after a channel change.
	DefaultAcquisition = 2 * time.Millisecond
)

// ErrConversionTimeout is returned by Read when the GO/DONE bit did not clear
// within Opts.ConversionTimeout.
var ErrConversionTimeout = errors.New("adc: conversion did not complete")

// Opts holds the converter configuration.
type Opts struct {
	// ADCON1 is written first during initialization. Zero selects
	// DefaultADCON1.
	ADCON1 byte
	// ADCON0 is written second during initialization. Zero selects
	// DefaultADCON0.
	ADCON0 byte
	// MaxChannel is the highest valid channel number. Zero selects
	// DefaultMaxChannel.
	MaxChannel int
	// Acquisition is the wait between channel selection and the start of the
	// conversion. Zero selects DefaultAcquisition, a negative value disables
	// the wait.
	Acquisition time.Duration
	// ConversionTimeout bounds the wait for GO/DONE to clear. Zero waits
	// forever.
	ConversionTimeout time.Duration
	// PollInterval is the pause between two reads of ADCON0 while waiting
	// for the conversion. Zero polls back to back.
	PollInterval time.Duration
}

// DefaultOpts selects right justified results and powers the converter on
// with AN0 selected.
var DefaultOpts = Opts{
	ADCON1:      DefaultADCON1,
	ADCON0:      DefaultADCON0,
	MaxChannel:  DefaultMaxChannel,
	Acquisition: DefaultAcquisition,
}

// Dev is a handle to a register mapped converter.
type Dev struct {
	mu   sync.Mutex
	regs mmr.Dev8
	opts Opts
}

// NewI2C returns a converter reached at addr on bus.
func NewI2C(bus i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	return New(&i2c.Dev{Bus: bus, Addr: addr}, opts)
}

// New returns an initialized converter using c for register access. c must
// be half-duplex.
//
// ADCON1 then ADCON0 are written once here; Read never rewrites ADCON1.
func New(c conn.Conn, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.ADCON1 == 0 {
		o.ADCON1 = DefaultADCON1
	}
	if o.ADCON0 == 0 {
		o.ADCON0 = DefaultADCON0
	}
	if o.MaxChannel == 0 {
		o.MaxChannel = DefaultMaxChannel
	}
	if o.Acquisition == 0 {
		o.Acquisition = DefaultAcquisition
	}
	d := &Dev{
		regs: mmr.Dev8{Conn: c, Order: binary.BigEndian},
		opts: o,
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init() error {
	if err := d.regs.WriteUint8(RegADCON1, d.opts.ADCON1); err != nil {
		return fmt.Errorf("adc: init ADCON1: %w", err)
	}
	if err := d.regs.WriteUint8(RegADCON0, d.opts.ADCON0); err != nil {
		return fmt.Errorf("adc: init ADCON0: %w", err)
	}
	return nil
}

// MaxChannel returns the highest channel Read accepts.
func (d *Dev) MaxChannel() int {
	return d.opts.MaxChannel
}

// Read converts the voltage on channel and returns the 10 bit result.
//
// A channel outside [0, MaxChannel()] returns 0 without touching the
// converter. The call blocks until the conversion completes; see
// Opts.ConversionTimeout.
func (d *Dev) Read(channel int) (uint16, error) {
	if channel < 0 || channel > d.opts.MaxChannel {
		return 0, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	ctl, err := d.regs.ReadUint8(RegADCON0)
	if err != nil {
		return 0, fmt.Errorf("adc: %w", err)
	}
	ctl = ctl&^(chsMask|adcon0GoDone) | byte(channel)<<chsShift
	if err = d.regs.WriteUint8(RegADCON0, ctl); err != nil {
		return 0, fmt.Errorf("adc: select channel %d: %w", channel, err)
	}
	if d.opts.Acquisition > 0 {
		time.Sleep(d.opts.Acquisition)
	}
	if err = d.regs.WriteUint8(RegADCON0, ctl|adcon0GoDone); err != nil {
		return 0, fmt.Errorf("adc: start conversion: %w", err)
	}
	if err = d.waitDone(); err != nil {
		return 0, err
	}
	hi, err := d.regs.ReadUint8(RegADRESH)
	if err != nil {
		return 0, fmt.Errorf("adc: %w", err)
	}
	lo, err := d.regs.ReadUint8(RegADRESL)
	if err != nil {
		return 0, fmt.Errorf("adc: %w", err)
	}
	return (uint16(hi)<<8 | uint16(lo)) & ResultMask, nil
}

// waitDone polls ADCON0 until the hardware clears GO/DONE.
func (d *Dev) waitDone() error {
	var deadline time.Time
	if d.opts.ConversionTimeout > 0 {
		deadline = time.Now().Add(d.opts.ConversionTimeout)
	}
	for {
		ctl, err := d.regs.ReadUint8(RegADCON0)
		if err != nil {
			return fmt.Errorf("adc: %w", err)
		}
		if ctl&adcon0GoDone == 0 {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrConversionTimeout
		}
		if d.opts.PollInterval > 0 {
			time.Sleep(d.opts.PollInterval)
		}
	}
}

// Halt powers the converter down by clearing ADON.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ctl, err := d.regs.ReadUint8(RegADCON0)
	if err != nil {
		return fmt.Errorf("adc: %w", err)
	}
	return d.regs.WriteUint8(RegADCON0, ctl&^adcon0ADON)
}

func (d *Dev) String() string {
	return fmt.Sprintf("adc{%s, channels: %d}", d.regs.Conn, d.opts.MaxChannel+1)
}

var _ conn.Resource = &Dev{}
