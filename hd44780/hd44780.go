// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780 over a 4
// bit parallel bus.
//
// Every transfer is built from a single nibble strobe: the nibble is placed on
// D4-D7, then the enable line is pulsed high for a fixed hold time. A byte is
// sent high nibble first. The R/W line is expected to be tied low, so the
// busy flag is never read and fixed delays are used instead.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

const (
	modeCommand gpio.Level = gpio.Low
	modeData    gpio.Level = gpio.High

	// Instruction set.
	CmdClear        byte = 0x01
	CmdHome         byte = 0x02
	CmdEntryMode    byte = 0x04
	CmdDisplay      byte = 0x08
	CmdShift        byte = 0x10
	CmdFunctionSet  byte = 0x20
	CmdSetDDRAMAddr byte = 0x80

	entryIncrement byte = 0x02
	displayOn      byte = 0x04
	cursorOn       byte = 0x02
	blinkOn        byte = 0x01
	shiftRight     byte = 0x04
	functionTwoRow byte = 0x08

	// Line 2 starts at DDRAM address 0x40 on two line displays.
	row2Offset byte = 0x40

	DefaultRows = 2
	DefaultCols = 16
	// DefaultEnableHold is how long E stays high for each nibble.
	DefaultEnableHold = time.Millisecond
	// DefaultClearDelay covers the 1.52ms execution time of clear and home.
	DefaultClearDelay = 2 * time.Millisecond
)

// DDRAM offsets of each row. Four line modules continue row 1 and 2 at 0x14
// and 0x54.
var rowOffsets = []byte{0x00, row2Offset, 0x14, 0x54}

// Opts holds the display geometry and bus timing.
type Opts struct {
	Rows int
	Cols int
	// EnableHold is the E pulse width. Zero selects DefaultEnableHold, a
	// negative value disables the wait.
	EnableHold time.Duration
	// ClearDelay is waited after clear, home and the init sequence. Zero
	// selects DefaultClearDelay, a negative value disables the wait.
	ClearDelay time.Duration
}

// HD44780 drives a character LCD through a gpio.Group for D4-D7 and discrete
// pins for register select and enable.
//
// Implements periph.io/conn/x/display/TextDisplay and display.DisplayBacklight
type HD44780 struct {
	mu         sync.Mutex
	dataPins   gpio.Group
	rsPin      gpio.PinOut
	enablePin  gpio.PinOut
	backlight  display.DisplayBacklight
	rows       int
	cols       int
	enableHold time.Duration
	clearDelay time.Duration
	on         bool
	cursor     bool
	blink      bool
}

// NewHD44780 returns the display in an initialized state and ready for use.
//
// The first 4 pins of dataPins must be connected to D4-D7 of the display.
// backlight may be nil when the backlight is hard wired.
func NewHD44780(dataPins gpio.Group, rsPin, enablePin gpio.PinOut, backlight display.DisplayBacklight, opts *Opts) (*HD44780, error) {
	if dataPins == nil || len(dataPins.Pins()) < 4 {
		return nil, fmt.Errorf("hd44780: need 4 data pins")
	}
	if rsPin == nil || enablePin == nil {
		return nil, fmt.Errorf("hd44780: register select and enable pins are required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.Rows == 0 {
		o.Rows = DefaultRows
	}
	if o.Cols == 0 {
		o.Cols = DefaultCols
	}
	if o.Rows < 1 || o.Rows > len(rowOffsets) {
		return nil, fmt.Errorf("hd44780: unsupported row count %d", o.Rows)
	}
	if o.EnableHold == 0 {
		o.EnableHold = DefaultEnableHold
	}
	if o.ClearDelay == 0 {
		o.ClearDelay = DefaultClearDelay
	}
	lcd := &HD44780{
		dataPins:   dataPins,
		rsPin:      rsPin,
		enablePin:  enablePin,
		backlight:  backlight,
		rows:       o.Rows,
		cols:       o.Cols,
		enableHold: o.EnableHold,
		clearDelay: o.ClearDelay,
		on:         true,
	}
	return lcd, lcd.init()
}

// init runs the power-on command sequence. It must run once, before any other
// transfer.
func (lcd *HD44780) init() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if err := lcd.enablePin.Out(gpio.Low); err != nil {
		return fmt.Errorf("hd44780: %w", err)
	}
	functionSet := CmdFunctionSet | functionTwoRow
	if lcd.rows == 1 {
		functionSet = CmdFunctionSet
	}
	// 4 bit mode, line count and 5x7 font, display on without cursor, auto
	// increment, clear.
	for _, cmd := range []byte{CmdHome, functionSet, CmdDisplay | displayOn, CmdEntryMode | entryIncrement, CmdClear} {
		if err := lcd.send(modeCommand, cmd); err != nil {
			return err
		}
	}
	lcd.wait(lcd.clearDelay)
	if lcd.backlight != nil {
		return lcd.backlight.Backlight(0xff)
	}
	return nil
}

// Command sends an instruction byte with RS low.
func (lcd *HD44780) Command(cmd byte) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.send(modeCommand, cmd)
}

// WriteChar writes one character at the cursor with RS high.
func (lcd *HD44780) WriteChar(c byte) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.send(modeData, c)
}

// SetCursor moves the cursor to a 1 based column of row 1 or row 2. Any row
// other than 1 selects row 2. Neither value is validated; use MoveTo for a
// checked move.
func (lcd *HD44780) SetCursor(row, col int) error {
	addr := CmdSetDDRAMAddr + byte(col-1)
	if row != 1 {
		addr = CmdSetDDRAMAddr + row2Offset + byte(col-1)
	}
	return lcd.Command(addr)
}

// Clears the screen and moves the cursor to the first position.
func (lcd *HD44780) Clear() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if err := lcd.send(modeCommand, CmdClear); err != nil {
		return err
	}
	lcd.wait(lcd.clearDelay)
	return nil
}

// Not supported by this device. Returns display.ErrNotImplemented
func (lcd *HD44780) AutoScroll(enabled bool) error {
	return display.ErrNotImplemented
}

// Return the number of columns the display supports
func (lcd *HD44780) Cols() int {
	return lcd.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (lcd *HD44780) Cursor(modes ...display.CursorMode) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	cursor, blink := lcd.cursor, lcd.blink
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor, blink = false, false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlock, display.CursorBlink:
			blink = true
		default:
			return fmt.Errorf("hd44780: unexpected cursor: %d", mode)
		}
	}
	lcd.cursor, lcd.blink = cursor, blink
	return lcd.send(modeCommand, lcd.displayControl())
}

// Move the cursor home (MinRow(),MinCol())
func (lcd *HD44780) Home() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if err := lcd.send(modeCommand, CmdHome); err != nil {
		return err
	}
	lcd.wait(lcd.clearDelay)
	return nil
}

// Return the min column position.
func (lcd *HD44780) MinCol() int {
	return 1
}

// Return the min row position.
func (lcd *HD44780) MinRow() int {
	return 1
}

// Move the cursor forward or backward.
func (lcd *HD44780) Move(dir display.CursorDirection) error {
	cmd := CmdShift
	switch dir {
	case display.Backward:
	case display.Forward:
		cmd |= shiftRight
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
	return lcd.Command(cmd)
}

// Move the cursor to arbitrary position.
func (lcd *HD44780) MoveTo(row, col int) error {
	if row < lcd.MinRow() || row > lcd.rows || col < lcd.MinCol() || col > lcd.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) value out of range", row, col)
	}
	return lcd.Command(CmdSetDDRAMAddr + rowOffsets[row-1] + byte(col-1))
}

// Return the number of rows the display supports.
func (lcd *HD44780) Rows() int {
	return lcd.rows
}

// Return info about the display.
func (lcd *HD44780) String() string {
	return fmt.Sprintf("HD44780::%s - Rows: %d, Cols: %d", lcd.dataPins.String(), lcd.rows, lcd.cols)
}

// Turn the display on / off
func (lcd *HD44780) Display(on bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	lcd.on = on
	return lcd.send(modeCommand, lcd.displayControl())
}

// Write sends p as character data. It never interprets bytes as commands.
func (lcd *HD44780) Write(p []byte) (n int, err error) {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	for _, c := range p {
		if err = lcd.send(modeData, c); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes text up to its end or to the first NUL byte, whichever
// comes first. Text running past the last column is not wrapped.
func (lcd *HD44780) WriteString(text string) (int, error) {
	for i := 0; i < len(text); i++ {
		if text[i] == 0 {
			text = text[:i]
			break
		}
	}
	return lcd.Write([]byte(text))
}

// Halt clears the display, turns the backlight off, and turns the display off.
// Halt() is called for the data pins gpio.Group. Every step runs even when an
// earlier one fails; the failures are returned together.
func (lcd *HD44780) Halt() error {
	return errors.Join(
		lcd.Clear(),
		lcd.Backlight(0),
		lcd.Display(false),
		lcd.dataPins.Halt(),
	)
}

// Turn the display's backlight on or off. Without a backlight only the
// display itself is switched.
func (lcd *HD44780) Backlight(intensity display.Intensity) error {
	on := intensity > 0
	if err := lcd.Display(on); err != nil {
		return err
	}
	if lcd.backlight != nil {
		return lcd.backlight.Backlight(intensity)
	}
	return nil
}

func (lcd *HD44780) displayControl() byte {
	val := CmdDisplay
	if lcd.on {
		val |= displayOn
	}
	if lcd.cursor {
		val |= cursorOn
	}
	if lcd.blink {
		val |= blinkOn
	}
	return val
}

// send selects the register with RS and strobes value high nibble first.
func (lcd *HD44780) send(mode gpio.Level, value byte) error {
	if err := lcd.rsPin.Out(mode); err != nil {
		return fmt.Errorf("hd44780: %w", err)
	}
	if err := lcd.sendNibble(value >> 4); err != nil {
		return err
	}
	return lcd.sendNibble(value & 0x0f)
}

// sendNibble places nibble on D4-D7 and pulses E.
func (lcd *HD44780) sendNibble(nibble byte) error {
	if err := lcd.dataPins.Out(gpio.GPIOValue(nibble), 0x0f); err != nil {
		return fmt.Errorf("hd44780: %w", err)
	}
	if err := lcd.enablePin.Out(gpio.High); err != nil {
		return fmt.Errorf("hd44780: %w", err)
	}
	lcd.wait(lcd.enableHold)
	if err := lcd.enablePin.Out(gpio.Low); err != nil {
		return fmt.Errorf("hd44780: %w", err)
	}
	return nil
}

func (lcd *HD44780) wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

var _ display.TextDisplay = &HD44780{}
var _ display.DisplayBacklight = &HD44780{}
var _ conn.Resource = &HD44780{}
