// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package adc

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/analog"
)

// PinSource multiplexes periph analog pins behind a channel number. Channel n
// reads the n-th pin given to NewPinSource.
type PinSource struct {
	pins []analog.PinADC
}

// NewPinSource returns a PinSource over pins.
func NewPinSource(pins ...analog.PinADC) *PinSource {
	return &PinSource{pins: pins}
}

// Read samples the pin selected by channel and scales the raw value from
// the pin's range onto [0, 1023].
//
// An unknown channel returns 0 without touching any pin.
func (s *PinSource) Read(channel int) (uint16, error) {
	if channel < 0 || channel >= len(s.pins) {
		return 0, nil
	}
	p := s.pins[channel]
	sample, err := p.Read()
	if err != nil {
		return 0, fmt.Errorf("adc: %s: %w", p, err)
	}
	lo, hi := p.Range()
	return scale(sample.Raw, lo.Raw, hi.Raw), nil
}

// scale maps raw within [lo, hi] onto [0, ResultMask], clamping outliers.
func scale(raw, lo, hi int32) uint16 {
	if hi <= lo {
		return 0
	}
	if raw <= lo {
		return 0
	}
	if raw >= hi {
		return ResultMask
	}
	return uint16(int64(raw-lo) * int64(ResultMask) / int64(hi-lo))
}

// Halt halts every pin.
func (s *PinSource) Halt() error {
	for _, p := range s.pins {
		if err := p.Halt(); err != nil {
			return err
		}
	}
	return nil
}

func (s *PinSource) String() string {
	names := make([]string, len(s.pins))
	for i, p := range s.pins {
		names[i] = p.Name()
	}
	return "PinSource{" + strings.Join(names, ", ") + "}"
}
