// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/GermanBionicSystems/gasmon/hd44780"
	"github.com/GermanBionicSystems/gasmon/hd44780/hd44780test"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"
	"periph.io/x/host/v3/gpioioctl"
)

// This example drives a display wired straight to the header. The first 4
// lines of the set are D4-D7, followed by RS, E and the backlight.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	ls, err := gpioioctl.Chips[0].LineSet(gpioioctl.LineOutput, gpio.NoEdge, gpio.PullNoChange,
		"GPIO27", "GPIO22", "GPIO23", "GPIO24", "GPIO17", "GPIO18", "GPIO25")
	if err != nil {
		log.Fatal(err)
	}
	pins := ls.Pins()
	rs := pins[4].(gpio.PinOut)
	enable := pins[5].(gpio.PinOut)
	bl := hd44780.NewBacklight(pins[6].(gpio.PinOut))
	lcd, err := hd44780.NewHD44780(ls, rs, enable, bl, &hd44780.Opts{Rows: 2, Cols: 16})
	if err != nil {
		log.Fatal(err)
	}
	defer lcd.Halt()
	_ = lcd.SetCursor(1, 1)
	_, _ = lcd.WriteString("Gas Detected")
	_ = lcd.SetCursor(2, 1)
	_, _ = lcd.WriteString("Gas Level: 0")

	for _, e := range displaytest.TestTextDisplay(lcd, true) {
		if !errors.Is(e, display.ErrNotImplemented) {
			log.Println(e)
		}
	}
}

// The simulated controller decodes the bus so the text can be checked
// without hardware.
func ExampleNewHD44780_simulated() {
	ctl := hd44780test.NewController(2, 16)
	lcd, err := hd44780.NewHD44780(ctl.Data(), ctl.RS(), ctl.E(), nil, &hd44780.Opts{EnableHold: -1, ClearDelay: -1})
	if err != nil {
		log.Fatal(err)
	}
	_ = lcd.SetCursor(1, 1)
	_, _ = lcd.WriteString("Gas Detected")
	_ = lcd.SetCursor(2, 1)
	_, _ = lcd.WriteString("Gas Level: 42")
	fmt.Printf("%q\n", ctl.Line(1))
	fmt.Printf("%q\n", ctl.Line(2))
	// Output:
	// "Gas Detected    "
	// "Gas Level: 42   "
}
