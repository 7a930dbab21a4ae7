// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// GPIOMonoBacklight switches a backlight LED through a single GPIO pin.
type GPIOMonoBacklight struct {
	blPin     gpio.PinOut
	activeLow bool
}

// NewBacklight returns a backlight driven high to turn on.
func NewBacklight(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin}
}

// NewBacklightActiveLow returns a backlight behind a PNP transistor, driven
// low to turn on.
func NewBacklightActiveLow(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin, activeLow: true}
}

// Turn the display backlight on for any non zero intensity.
func (bl *GPIOMonoBacklight) Backlight(intensity display.Intensity) error {
	on := intensity != 0
	return bl.blPin.Out(gpio.Level(on != bl.activeLow))
}

var _ display.DisplayBacklight = &GPIOMonoBacklight{}
