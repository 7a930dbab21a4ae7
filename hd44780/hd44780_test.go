// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/gasmon/hd44780/hd44780test"
	periphDisplay "periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

const (
	testRows = 2
	testCols = 16
)

var fastOpts = Opts{EnableHold: -1, ClearDelay: -1}

func getLCD(t *testing.T) (*HD44780, *hd44780test.Controller) {
	ctl := hd44780test.NewController(testRows, testCols)
	dev, err := NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), nil, &fastOpts)
	if err != nil {
		t.Fatal(err)
	}
	return dev, ctl
}

func TestInit(t *testing.T) {
	_, ctl := getLCD(t)
	// The first nibble of 0x02 reaches the controller in 8 bit mode as 0x00,
	// the second one as a function set selecting the 4 bit interface.
	expected := []byte{0x00, 0x20, 0x28, 0x0c, 0x06, 0x01}
	if got := ctl.Commands(); !bytes.Equal(got, expected) {
		t.Errorf("init commands %#v expected %#v", got, expected)
	}
	if !ctl.FourBit() {
		t.Error("controller still in 8 bit mode")
	}
	if !ctl.TwoLine() {
		t.Error("two line mode not selected")
	}
	if !ctl.DisplayOn() {
		t.Error("display not turned on")
	}
	if u, b := ctl.CursorOn(); u || b {
		t.Errorf("cursor visible after init: underline=%t blink=%t", u, b)
	}
	if ctl.Address() != 0 {
		t.Errorf("address counter=%#x after init", ctl.Address())
	}
}

func TestInitOneRow(t *testing.T) {
	ctl := hd44780test.NewController(1, 16)
	if _, err := NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), nil, &Opts{Rows: 1, Cols: 16, EnableHold: -1, ClearDelay: -1}); err != nil {
		t.Fatal(err)
	}
	if ctl.TwoLine() {
		t.Error("one row display configured for two lines")
	}
}

func TestNewErrors(t *testing.T) {
	ctl := hd44780test.NewController(testRows, testCols)
	if _, err := NewHD44780(nil, ctl.RS(), ctl.E(), nil, &fastOpts); err == nil {
		t.Error("expected error for missing data pins")
	}
	if _, err := NewHD44780(ctl.Data(), nil, ctl.E(), nil, &fastOpts); err == nil {
		t.Error("expected error for missing RS")
	}
	if _, err := NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), nil, &Opts{Rows: 5, EnableHold: -1, ClearDelay: -1}); err == nil {
		t.Error("expected error for 5 rows")
	}
}

func TestSetCursor(t *testing.T) {
	dev, ctl := getLCD(t)
	tests := []struct {
		row, col int
		expected byte
	}{
		{1, 1, 0x80},
		{2, 1, 0xc0},
		{1, 5, 0x84},
		{2, 16, 0xcf},
		{7, 3, 0xc2},
	}
	for _, test := range tests {
		if err := dev.SetCursor(test.row, test.col); err != nil {
			t.Fatal(err)
		}
		if got := ctl.LastCommand(); got != test.expected {
			t.Errorf("SetCursor(%d,%d) sent %#x expected %#x", test.row, test.col, got, test.expected)
		}
	}
}

func TestCommandNibbles(t *testing.T) {
	dev, ctl := getLCD(t)
	before := ctl.Nibbles()
	if err := dev.Command(0x0f); err != nil {
		t.Fatal(err)
	}
	if err := dev.WriteChar('A'); err != nil {
		t.Fatal(err)
	}
	if n := ctl.Nibbles() - before; n != 4 {
		t.Errorf("two bytes took %d strobes, expected 4", n)
	}
	if ctl.LastCommand() != 0x0f {
		t.Errorf("last command %#x expected 0x0f", ctl.LastCommand())
	}
	if ctl.DDRAM()[0] != 'A' {
		t.Errorf("DDRAM[0]=%q expected 'A'", ctl.DDRAM()[0])
	}
}

func TestWriteString(t *testing.T) {
	dev, ctl := getLCD(t)
	if err := dev.SetCursor(1, 1); err != nil {
		t.Fatal(err)
	}
	if n, err := dev.WriteString("Gas Detected"); err != nil || n != 12 {
		t.Fatalf("WriteString()=%d, %v", n, err)
	}
	if err := dev.SetCursor(2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.WriteString("Gas Level: 512"); err != nil {
		t.Fatal(err)
	}
	lines := ctl.Lines()
	expected := []string{"Gas Detected    ", "Gas Level: 512  "}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d=%q expected %q", i+1, lines[i], expected[i])
		}
	}
}

func TestWriteStringNUL(t *testing.T) {
	dev, ctl := getLCD(t)
	n, err := dev.WriteString("abc\x00def")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("wrote %d bytes expected 3", n)
	}
	if l := ctl.Line(1); !strings.HasPrefix(l, "abc ") {
		t.Errorf("line 1=%q", l)
	}
}

func TestWriteNoWrap(t *testing.T) {
	dev, ctl := getLCD(t)
	if _, err := dev.WriteString("0123456789abcdefXYZ"); err != nil {
		t.Fatal(err)
	}
	if l := ctl.Line(1); l != "0123456789abcdef" {
		t.Errorf("line 1=%q", l)
	}
	// The overflow lands in off screen DDRAM, not on line 2.
	if l := ctl.Line(2); strings.TrimSpace(l) != "" {
		t.Errorf("line 2=%q expected blank", l)
	}
	if got := string(ctl.DDRAM()[16:19]); got != "XYZ" {
		t.Errorf("DDRAM[16:19]=%q", got)
	}
}

func TestClear(t *testing.T) {
	dev, ctl := getLCD(t)
	if _, err := dev.WriteString("residue"); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := dev.Clear(); err != nil {
			t.Fatal(err)
		}
		for i, l := range ctl.Lines() {
			if strings.TrimSpace(l) != "" {
				t.Errorf("line %d=%q after Clear", i+1, l)
			}
		}
		if ctl.Address() != 0 {
			t.Errorf("address counter=%#x after Clear", ctl.Address())
		}
	}
}

func TestMoveTo(t *testing.T) {
	dev, ctl := getLCD(t)
	if err := dev.MoveTo(2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.WriteString("xy"); err != nil {
		t.Fatal(err)
	}
	if l := ctl.Line(2); l[:3] != " xy" {
		t.Errorf("line 2=%q", l)
	}
	for _, rc := range [][2]int{{0, 1}, {1, 0}, {3, 1}, {1, 17}} {
		if err := dev.MoveTo(rc[0], rc[1]); err == nil {
			t.Errorf("MoveTo(%d,%d) expected error", rc[0], rc[1])
		}
	}
}

func TestMove(t *testing.T) {
	dev, ctl := getLCD(t)
	if err := dev.Move(periphDisplay.Forward); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(periphDisplay.Forward); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(periphDisplay.Backward); err != nil {
		t.Fatal(err)
	}
	if ctl.Address() != 1 {
		t.Errorf("address=%d expected 1", ctl.Address())
	}
	if err := dev.Move(periphDisplay.Up); !errors.Is(err, periphDisplay.ErrNotImplemented) {
		t.Errorf("Move(Up) returned %v", err)
	}
}

func TestCursorAndDisplay(t *testing.T) {
	dev, ctl := getLCD(t)
	if err := dev.Cursor(periphDisplay.CursorUnderline, periphDisplay.CursorBlink); err != nil {
		t.Fatal(err)
	}
	if u, b := ctl.CursorOn(); !u || !b {
		t.Errorf("underline=%t blink=%t", u, b)
	}
	if err := dev.Cursor(periphDisplay.CursorOff); err != nil {
		t.Fatal(err)
	}
	if u, b := ctl.CursorOn(); u || b {
		t.Errorf("underline=%t blink=%t after CursorOff", u, b)
	}
	if err := dev.Display(false); err != nil {
		t.Fatal(err)
	}
	if ctl.DisplayOn() {
		t.Error("display still on")
	}
	if err := dev.Cursor(periphDisplay.CursorBlink + 1); err == nil {
		t.Error("expected error for invalid cursor mode")
	}
}

func TestInterface(t *testing.T) {
	dev, _ := getLCD(t)
	errs := displaytest.TestTextDisplay(dev, false)
	for _, err := range errs {
		if !errors.Is(err, periphDisplay.ErrNotImplemented) {
			t.Error(err)
		}
	}
}

func TestBacklights(t *testing.T) {
	ctl := hd44780test.NewController(testRows, testCols)
	blPin := &gpiotest.Pin{N: "BL"}
	dev, err := NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), NewBacklight(blPin), &fastOpts)
	if err != nil {
		t.Fatal(err)
	}
	if blPin.Read() != gpio.High {
		t.Error("backlight not turned on by init")
	}
	if err = dev.Backlight(0); err != nil {
		t.Fatal(err)
	}
	if blPin.Read() != gpio.Low {
		t.Error("backlight still on")
	}
	if ctl.DisplayOn() {
		t.Error("display still on with backlight off")
	}
	if err = dev.Backlight(0xff); err != nil {
		t.Fatal(err)
	}
	if blPin.Read() != gpio.High || !ctl.DisplayOn() {
		t.Error("backlight or display not restored")
	}

	low := &gpiotest.Pin{N: "BL", L: gpio.High}
	bl := NewBacklightActiveLow(low)
	if err = bl.Backlight(1); err != nil {
		t.Fatal(err)
	}
	if low.Read() != gpio.Low {
		t.Error("active low backlight not driven low")
	}
}

func TestHalt(t *testing.T) {
	dev, ctl := getLCD(t)
	if _, err := dev.WriteString("bye"); err != nil {
		t.Fatal(err)
	}
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	if ctl.DisplayOn() {
		t.Error("display on after Halt")
	}
	if strings.TrimSpace(ctl.Line(1)) != "" {
		t.Errorf("line 1=%q after Halt", ctl.Line(1))
	}
	if len(dev.String()) == 0 {
		t.Error("display.String()")
	}
}

// brokenBacklight works until fail is set.
type brokenBacklight struct {
	fail bool
}

var errBacklight = errors.New("backlight: driver gone")

func (b *brokenBacklight) Backlight(intensity periphDisplay.Intensity) error {
	if b.fail {
		return errBacklight
	}
	return nil
}

func TestHaltReportsError(t *testing.T) {
	ctl := hd44780test.NewController(testRows, testCols)
	bl := &brokenBacklight{}
	dev, err := NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), bl, &fastOpts)
	if err != nil {
		t.Fatal(err)
	}
	bl.fail = true
	if err = dev.Halt(); !errors.Is(err, errBacklight) {
		t.Errorf("Halt() returned %v, expected %v", err, errBacklight)
	}
	// The display is still switched off after the backlight failed.
	if ctl.DisplayOn() {
		t.Error("display on after a failed Halt")
	}
}
