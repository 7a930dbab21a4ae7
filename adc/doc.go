// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package adc reads 10-bit samples from a successive approximation
// analog-to-digital converter.
//
// Dev drives a converter whose control and result registers are laid out like
// the PIC16F87x family (ADCON0, ADCON1, ADRESH, ADRESL) and reachable through
// a half-duplex register connection, typically an I²C bridge. PinSource
// exposes any set of periph analog.PinADC pins through the same channel based
// Read.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/39582b.pdf
package adc
