// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gasmon is a gas level monitor built on periph.io.
//
// A gas sensor is sampled through a 10 bit converter, the level is shown on a
// 16x2 HD44780 character LCD, and two LEDs and a buzzer signal the alarm
// stages. The device drivers live in their own packages:
//
//	adc        register mapped converter and analog pin sources
//	modbusadc  gas transmitters reached over Modbus
//	hd44780    4 bit parallel LCD driver
//	alarm      thresholds and indicator outputs
//	monitor    the sample, display and alarm loop
//	board      the wiring description
//
// Simulations of the converter (adc/adctest), of the LCD controller
// (hd44780/hd44780test) and of the indicators (screen1d, lcdview) let the
// whole loop run without hardware; see cmd/gasmon -sim.
package gasmon
