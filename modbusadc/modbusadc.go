// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package modbusadc reads gas transmitters that publish their sensor value as
// Modbus input registers.
//
// Each channel maps to one input register starting at Opts.Base. The raw
// register value is rescaled from Opts.FullScale to the 10 bit range used by
// the rest of the monitor.
package modbusadc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

const (
	// MaxSample is the full scale of a returned sample.
	MaxSample = 1023
	// DefaultChannels is the number of registers exposed when Opts.Channels
	// is zero.
	DefaultChannels = 8
)

// RegisterReader is the part of modbus.Client used by Source.
type RegisterReader interface {
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
}

// Opts selects the register window and scaling.
type Opts struct {
	// Base is the address of the register backing channel 0.
	Base uint16
	// Channels is the number of consecutive registers, channel numbers at or
	// above it read 0.
	Channels int
	// FullScale is the raw register value that maps to MaxSample. Zero
	// selects MaxSample, i.e. no scaling.
	FullScale uint16
}

// Source is a channel reader backed by a Modbus slave.
type Source struct {
	mu        sync.Mutex
	client    RegisterReader
	closer    func() error
	base      uint16
	channels  int
	fullScale uint32
	name      string
}

// New returns a Source on an already connected client.
func New(client RegisterReader, opts *Opts) *Source {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Channels <= 0 {
		o.Channels = DefaultChannels
	}
	if o.FullScale == 0 {
		o.FullScale = MaxSample
	}
	return &Source{
		client:    client,
		base:      o.Base,
		channels:  o.Channels,
		fullScale: uint32(o.FullScale),
		name:      "modbusadc",
	}
}

// Read returns the scaled value of the register for channel. Channels outside
// the window read 0 without any bus traffic.
func (s *Source) Read(channel int) (uint16, error) {
	if channel < 0 || channel >= s.channels {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.client.ReadInputRegisters(s.base+uint16(channel), 1)
	if err != nil {
		return 0, fmt.Errorf("modbusadc: channel %d: %w", channel, err)
	}
	if len(b) < 2 {
		return 0, fmt.Errorf("modbusadc: channel %d: short response of %d bytes", channel, len(b))
	}
	return s.scale(binary.BigEndian.Uint16(b)), nil
}

func (s *Source) scale(raw uint16) uint16 {
	v := uint32(raw)
	if v >= s.fullScale {
		return MaxSample
	}
	return uint16(v * MaxSample / s.fullScale)
}

// Close releases the transport opened by Dial. It is a no-op for sources
// built with New.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closer == nil {
		return nil
	}
	err := s.closer()
	s.closer = nil
	return err
}

func (s *Source) String() string {
	return s.name
}

// Config describes how to reach the transmitter.
type Config struct {
	// Transport is "tcp" or "rtu", empty selects tcp.
	Transport string
	// Endpoint is host:port for tcp or the serial device for rtu.
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
	// Serial line settings, rtu only. Zero values keep the library defaults.
	BaudRate int
	DataBits int
	Parity   string
	StopBits int

	Opts Opts
}

// Dial connects to the transmitter and returns a Source reading from it.
func Dial(cfg Config) (*Source, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbusadc: endpoint required")
	}
	if cfg.Transport == "" {
		cfg.Transport = "tcp"
	}
	var (
		handler modbus.ClientHandler
		connect func() error
		closer  func() error
	)
	switch cfg.Transport {
	case "tcp":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.SlaveId = cfg.UnitID
		if cfg.Timeout > 0 {
			h.Timeout = cfg.Timeout
		}
		handler, connect, closer = h, h.Connect, h.Close
	case "rtu":
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.SlaveId = cfg.UnitID
		if cfg.Timeout > 0 {
			h.Timeout = cfg.Timeout
		}
		if cfg.BaudRate > 0 {
			h.BaudRate = cfg.BaudRate
		}
		if cfg.DataBits > 0 {
			h.DataBits = cfg.DataBits
		}
		if cfg.Parity != "" {
			h.Parity = cfg.Parity
		}
		if cfg.StopBits > 0 {
			h.StopBits = cfg.StopBits
		}
		handler, connect, closer = h, h.Connect, h.Close
	default:
		return nil, fmt.Errorf("modbusadc: unknown transport %q", cfg.Transport)
	}
	if err := connect(); err != nil {
		return nil, fmt.Errorf("modbusadc: connect %s: %w", cfg.Endpoint, err)
	}
	s := New(modbus.NewClient(handler), &cfg.Opts)
	s.closer = closer
	s.name = fmt.Sprintf("modbusadc{%s %s unit %d}", cfg.Transport, cfg.Endpoint, cfg.UnitID)
	return s, nil
}
