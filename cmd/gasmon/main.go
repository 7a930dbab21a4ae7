// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// gasmon samples a gas sensor, shows the level on a 16x2 LCD and drives the
// warning LEDs and buzzer.
//
// With -sim the converter, the LCD and the indicators are simulated, so the
// whole loop runs on any machine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GermanBionicSystems/gasmon/board"
	"github.com/GermanBionicSystems/gasmon/monitor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func mainImpl() error {
	boardPath := flag.String("board", "", "board description, empty for the built-in wiring")
	sim := flag.Bool("sim", false, "simulate the converter, the LCD and the indicators")
	frames := flag.Int("frames", 0, "stop after this many readings, 0 runs until interrupted")
	pngPath := flag.String("png", "", "with -sim, save the last LCD frame to this PNG file")
	verbose := flag.Bool("v", false, "log every reading")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	b, err := board.Load(*boardPath)
	if err != nil {
		return err
	}
	if *pngPath != "" && !*sim {
		return errors.New("-png requires -sim")
	}

	var r *rig
	if *sim {
		r, err = openSim(b, stdoutIsTerminal())
	} else {
		r, err = openHardware(b)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()
	log.Info().Str("source", r.name).Int("channel", b.Sensor.Channel).Msg("devices ready")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	count := 0
	logger := log.Logger
	m := monitor.New(r.src, r.lcd, r.out, &monitor.Opts{
		Channel:  b.Sensor.Channel,
		Interval: b.Loop.Interval,
		Label:    b.Loop.Label,
		Logger:   &logger,
		Observe: func(monitor.Reading) {
			if r.observe != nil {
				r.observe()
			}
			count++
			if *frames > 0 && count >= *frames {
				cancel()
			}
		},
	})
	err = m.Run(ctx)
	log.Info().Int("readings", count).Msg("monitor stopped")
	if *pngPath != "" {
		if perr := r.snapshot(*pngPath); perr != nil {
			return perr
		}
		log.Info().Str("path", *pngPath).Msg("saved LCD frame")
	}
	if monitor.IsShutdown(err) {
		return nil
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "gasmon: %s.\n", err)
		os.Exit(1)
	}
}
