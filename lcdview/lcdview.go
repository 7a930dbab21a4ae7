// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdview renders the text of a character LCD to an image.
//
// It is used to snapshot the simulated display: each character cell is drawn
// as a lighter box on the panel background with the glyph centered in it.
package lcdview

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

// Opts controls the geometry and colors of the rendering.
type Opts struct {
	// CellW and CellH are the size of a character cell in pixels.
	CellW int
	CellH int
	// Gap is the space between cells and around the panel.
	Gap        int
	Background color.Color
	Cell       color.Color
	Ink        color.Color
}

// DefaultOpts is the yellow green backlit panel look.
var DefaultOpts = Opts{
	CellW:      20,
	CellH:      32,
	Gap:        3,
	Background: color.NRGBA{0x5a, 0x8f, 0x1c, 0xff},
	Cell:       color.NRGBA{0x7c, 0xb3, 0x2c, 0xff},
	Ink:        color.NRGBA{0x10, 0x20, 0x08, 0xff},
}

// Render draws lines on a panel cols characters wide. Lines longer than cols
// are cut.
func Render(lines []string, cols int, opts *Opts) (image.Image, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if cols <= 0 || len(lines) == 0 {
		return nil, fmt.Errorf("lcdview: empty panel %dx%d", len(lines), cols)
	}
	if o.CellW <= 0 || o.CellH <= 0 || o.Gap < 0 {
		return nil, fmt.Errorf("lcdview: invalid cell %dx%d gap %d", o.CellW, o.CellH, o.Gap)
	}
	f, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("lcdview: %w", err)
	}
	w := cols*(o.CellW+o.Gap) + o.Gap
	h := len(lines)*(o.CellH+o.Gap) + o.Gap
	dc := gg.NewContext(w, h)
	dc.SetColor(o.Background)
	dc.Clear()
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: float64(o.CellH) * 0.7}))
	for row, line := range lines {
		y := float64(o.Gap + row*(o.CellH+o.Gap))
		for col := 0; col < cols; col++ {
			x := float64(o.Gap + col*(o.CellW+o.Gap))
			dc.SetColor(o.Cell)
			dc.DrawRectangle(x, y, float64(o.CellW), float64(o.CellH))
			dc.Fill()
			if col >= len(line) || line[col] == ' ' {
				continue
			}
			dc.SetColor(o.Ink)
			dc.DrawStringAnchored(string(line[col]), x+float64(o.CellW)/2, y+float64(o.CellH)/2, 0.5, 0.5)
		}
	}
	return dc.Image(), nil
}

// WritePNG renders lines and encodes the result as PNG to w.
func WritePNG(w io.Writer, lines []string, cols int, opts *Opts) error {
	img, err := Render(lines, cols, opts)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	return dc.EncodePNG(w)
}

// SavePNG renders lines into the PNG file at path.
func SavePNG(path string, lines []string, cols int, opts *Opts) error {
	img, err := Render(lines, cols, opts)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
