// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package monitor runs the sample, display and alarm cycle.
//
// Each iteration reads one converter channel, shows a fixed label on the
// first LCD row and the reading on the second, then drives the alarm outputs
// from the same reading. The display is cleared after the refresh interval
// and the cycle starts again.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GermanBionicSystems/gasmon/alarm"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	// DefaultInterval is how long each frame stays on the display.
	DefaultInterval = 500 * time.Millisecond
	// DefaultLabel is shown on the first row.
	DefaultLabel = "Gas Detected"

	levelPrefix = "Gas Level: "
)

// AnalogSource returns a 10 bit sample for a channel. Unknown channels read
// 0 without error.
type AnalogSource interface {
	Read(channel int) (uint16, error)
}

// CharacterDisplay is the subset of the LCD driver used by the loop. Rows and
// columns are 1 based.
type CharacterDisplay interface {
	Command(cmd byte) error
	WriteChar(c byte) error
	WriteString(s string) (int, error)
	Clear() error
	SetCursor(row, col int) error
}

// Indicators applies an alarm state to the outputs.
type Indicators interface {
	Apply(s alarm.State) error
}

// Opts configures a Monitor. The zero value is valid.
type Opts struct {
	// Channel is the converter channel the sensor is wired to.
	Channel int
	// Interval is the time each frame is displayed before the clear.
	Interval time.Duration
	// Label is written on row 1.
	Label string
	// Clock defaults to the wall clock.
	Clock clockwork.Clock
	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
	// Observe, when set, is called with every completed Reading.
	Observe func(Reading)
}

// Reading is the outcome of one iteration.
type Reading struct {
	Sample uint16
	State  alarm.State
	Line   string
}

// Monitor owns the three drivers for the duration of Run.
type Monitor struct {
	src      AnalogSource
	lcd      CharacterDisplay
	out      Indicators
	channel  int
	interval time.Duration
	label    string
	clock    clockwork.Clock
	log      zerolog.Logger
	observe  func(Reading)

	buf  [16]byte
	last alarm.Level
}

// New returns a Monitor. It does not touch the hardware; call Setup or Run.
func New(src AnalogSource, lcd CharacterDisplay, out Indicators, opts *Opts) *Monitor {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	m := &Monitor{
		src:      src,
		lcd:      lcd,
		out:      out,
		channel:  o.Channel,
		interval: o.Interval,
		label:    o.Label,
		clock:    o.Clock,
		log:      zerolog.Nop(),
		observe:  o.Observe,
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.label == "" {
		m.label = DefaultLabel
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if o.Logger != nil {
		m.log = *o.Logger
	}
	return m
}

// Setup blanks the display and switches every alarm output off.
func (m *Monitor) Setup() error {
	if err := m.lcd.Clear(); err != nil {
		return fmt.Errorf("monitor: clear: %w", err)
	}
	if err := m.out.Apply(alarm.State{}); err != nil {
		return fmt.Errorf("monitor: outputs: %w", err)
	}
	m.last = alarm.Normal
	return nil
}

// Step runs one sample, display and alarm iteration.
func (m *Monitor) Step() (Reading, error) {
	sample, err := m.src.Read(m.channel)
	if err != nil {
		return Reading{}, fmt.Errorf("monitor: read channel %d: %w", m.channel, err)
	}
	if err = m.lcd.SetCursor(1, 1); err != nil {
		return Reading{}, fmt.Errorf("monitor: %w", err)
	}
	if _, err = m.lcd.WriteString(m.label); err != nil {
		return Reading{}, fmt.Errorf("monitor: %w", err)
	}
	if err = m.lcd.SetCursor(2, 1); err != nil {
		return Reading{}, fmt.Errorf("monitor: %w", err)
	}
	line := string(m.format(sample))
	if _, err = m.lcd.WriteString(line); err != nil {
		return Reading{}, fmt.Errorf("monitor: %w", err)
	}
	state := alarm.Evaluate(sample)
	if err = m.out.Apply(state); err != nil {
		return Reading{}, fmt.Errorf("monitor: outputs: %w", err)
	}
	r := Reading{Sample: sample, State: state, Line: line}
	m.report(r)
	return r, nil
}

// Run calls Setup then repeats Step until ctx is cancelled or a driver
// fails. The first failure is returned as is; there is no retry.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Setup(); err != nil {
		return err
	}
	m.log.Info().Int("channel", m.channel).Dur("interval", m.interval).Msg("monitor started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.Step(); err != nil {
			m.log.Error().Err(err).Msg("monitor stopped")
			return err
		}
		if err := m.wait(ctx); err != nil {
			return err
		}
		if err := m.lcd.Clear(); err != nil {
			err = fmt.Errorf("monitor: clear: %w", err)
			m.log.Error().Err(err).Msg("monitor stopped")
			return err
		}
	}
}

func (m *Monitor) wait(ctx context.Context) error {
	t := m.clock.NewTimer(m.interval)
	select {
	case <-t.Chan():
		return nil
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	}
}

func (m *Monitor) report(r Reading) {
	m.log.Debug().Uint16("sample", r.Sample).Stringer("state", r.State).Msg("reading")
	if lvl := r.State.Level(); lvl != m.last {
		var e *zerolog.Event
		if lvl > m.last {
			e = m.log.Warn()
		} else {
			e = m.log.Info()
		}
		e.Uint16("sample", r.Sample).Stringer("from", m.last).Stringer("to", lvl).Msg("alarm level changed")
		m.last = lvl
	}
	if m.observe != nil {
		m.observe(r)
	}
}

// format renders the second row into the fixed buffer. The longest line,
// "Gas Level: 65535", is exactly 16 bytes.
func (m *Monitor) format(sample uint16) []byte {
	return strconv.AppendUint(append(m.buf[:0], levelPrefix...), uint64(sample), 10)
}

// FormatLevel returns the second row text for sample.
func FormatLevel(sample uint16) string {
	var m Monitor
	return string(m.format(sample))
}

// IsShutdown reports whether err only signals a cancelled Run.
func IsShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
