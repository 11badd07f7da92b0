/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/massung/chip16emu/chip16"
	"github.com/massung/chip16emu/internal/diagnostics"
	"github.com/massung/chip16emu/internal/sdlpresent"
)

func main() {
	cfg := defaultConfig()

	root := &cobra.Command{
		Use:   "chip16 [rom]",
		Short: "Chip16 fantasy console emulator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.ROM = args[0]
			}
			if cfg.ROM == "" {
				return fmt.Errorf("chip16: no rom given (pass a path or set CHIP16_ROM)")
			}
			return run(cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, or warn")
	flags.IntVar(&cfg.Speed, "speed", cfg.Speed, "instructions executed per frame")
	flags.Uint16Var(&cfg.StartPC, "start-pc", cfg.StartPC, "override the ROM header's initial program counter (0 keeps the header value)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	level := diagnostics.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = diagnostics.LevelDebug
	case "warn":
		level = diagnostics.LevelWarn
	}
	log := diagnostics.New(level)

	rom, err := os.ReadFile(cfg.ROM)
	if err != nil {
		return fmt.Errorf("chip16: read rom: %w", err)
	}

	m := chip16.NewMachine(log)
	m.Speed = cfg.Speed

	if err := m.LoadROM(rom); err != nil {
		return fmt.Errorf("chip16: load rom: %w", err)
	}
	if cfg.StartPC != 0 {
		m.CPU.SetPC(cfg.StartPC)
	}

	audio := sdlpresent.NewAudioDevice()
	m.Presenter = sdlpresent.New(cfg.ROM, audio)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return m.Run(ctx)
}
