// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package alarm maps a gas reading onto the two indicator LEDs and the
// buzzer.
//
// The thresholds are fixed: the low indicator lights at 400, the high
// indicator at 700 and the buzzer sounds at 900. Each output depends only on
// the current reading, so the outputs switch off as soon as the reading drops
// below a threshold.
package alarm

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

const (
	LowThreshold     uint16 = 400
	HighThreshold    uint16 = 700
	AudibleThreshold uint16 = 900
)

// Level names the combination of active outputs.
type Level int

const (
	Normal Level = iota
	Warning
	Danger
	Critical
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Danger:
		return "danger"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// State is the desired level of each output.
type State struct {
	Low     bool
	High    bool
	Audible bool
}

// Evaluate returns the output state for sample. Each comparison is inclusive.
func Evaluate(sample uint16) State {
	return State{
		Low:     sample >= LowThreshold,
		High:    sample >= HighThreshold,
		Audible: sample >= AudibleThreshold,
	}
}

// Level returns the highest active stage.
func (s State) Level() Level {
	switch {
	case s.Audible:
		return Critical
	case s.High:
		return Danger
	case s.Low:
		return Warning
	default:
		return Normal
	}
}

func (s State) String() string {
	return fmt.Sprintf("%s{low:%t high:%t audible:%t}", s.Level(), s.Low, s.High, s.Audible)
}

// Outputs drives the indicator pins.
type Outputs struct {
	low     gpio.PinOut
	high    gpio.PinOut
	audible gpio.PinOut
}

// NewOutputs configures the three pins as outputs, all driven low.
func NewOutputs(low, high, audible gpio.PinOut) (*Outputs, error) {
	if low == nil || high == nil || audible == nil {
		return nil, errors.New("alarm: all three output pins are required")
	}
	o := &Outputs{low: low, high: high, audible: audible}
	if err := o.Apply(State{}); err != nil {
		return nil, err
	}
	return o, nil
}

// Apply drives every pin to the level requested by s.
func (o *Outputs) Apply(s State) error {
	if err := o.low.Out(gpio.Level(s.Low)); err != nil {
		return fmt.Errorf("alarm: %s: %w", o.low, err)
	}
	if err := o.high.Out(gpio.Level(s.High)); err != nil {
		return fmt.Errorf("alarm: %s: %w", o.high, err)
	}
	if err := o.audible.Out(gpio.Level(s.Audible)); err != nil {
		return fmt.Errorf("alarm: %s: %w", o.audible, err)
	}
	return nil
}

// Halt silences the buzzer and turns both LEDs off.
func (o *Outputs) Halt() error {
	return o.Apply(State{})
}

func (o *Outputs) String() string {
	return fmt.Sprintf("alarm.Outputs{%s, %s, %s}", o.low, o.high, o.audible)
}
