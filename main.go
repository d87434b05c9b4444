// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package main implements a two-pass 6502 assembler that produces KIM-1
// hex records and a source listing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/beevik/kimasm/asm"
	"github.com/beevik/kimasm/host"
	"github.com/beevik/term"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "0.1.0"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	input   string
	kim     string
	listing string
	srcMap  string
	origin  string
	script  string

	strictMultiply bool
	interactive    bool
	verbose        bool
	quiet          bool
}

func main() {
	options := readArguments()
	logger := createLogger(options.verbose, options.quiet)

	if !options.quiet {
		printBanner()
	}

	origin, err := parseOrigin(options.origin)
	if err != nil {
		exitOnError(err)
	}

	if options.script == "" && !options.interactive {
		if err := assembleFile(options, origin, logger); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	h := host.New(logger)
	exitOnError(h.Set("Origin", origin))
	exitOnError(h.Set("StrictMultiply", options.strictMultiply))

	if options.input != "" {
		if err := h.AssembleFile(options.input); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	// Run commands contained in the command-line script.
	if options.script != "" {
		file, err := os.Open(options.script)
		if err != nil {
			exitOnError(err)
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Run commands interactively.
	if options.interactive {
		h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
	}
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.kim, "o", "", "name of the KIM-1 hex output file (default <source>.kim)")
	flags.StringVar(&options.listing, "l", "", "name of the listing file (default <source>.lst)")
	flags.StringVar(&options.srcMap, "m", "", "name of the source map file (default <source>.map)")
	flags.StringVar(&options.origin, "org", "0", "initial location counter, e.g. $0200")
	flags.BoolVar(&options.strictMultiply, "strictmul", false, "treat 0*x as 0 in expressions")
	flags.BoolVar(&options.interactive, "i", false, "start an interactive shell after assembling")
	flags.StringVar(&options.script, "x", "", "run shell commands from a script file")
	flags.BoolVar(&options.verbose, "v", false, "log each assembled line")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) > 1 {
		printBanner()
		fmt.Printf("usage: kimasm [options] [<file to assemble>]\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	switch {
	case len(args) == 1:
		options.input = args[0]
	case options.script == "":
		options.interactive = true
	}
	return options
}

func createLogger(verbose, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if verbose {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func printBanner() {
	fmt.Println("[-----------------------------------]")
	fmt.Println("[ kimasm - 6502 assembler for KIM-1 ]")
	fmt.Printf("[-----------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

// Parse the origin flag using the assembler's expression syntax.
func parseOrigin(s string) (uint16, error) {
	e, err := asm.ParseExpr(s)
	if err != nil {
		return 0, fmt.Errorf("invalid origin '%s': %w", s, err)
	}
	v, err := e.Eval(&asm.Env{Symbols: asm.NewSymbolTable()})
	if err != nil {
		return 0, fmt.Errorf("invalid origin '%s': %w", s, err)
	}
	if !v.Defined || v.N < 0 || v.N > 0xffff {
		return 0, errors.New("origin must be a constant between $0000 and $FFFF")
	}
	return uint16(v.N), nil
}

func assembleFile(options optionFlags, origin uint16, logger *log.Logger) error {
	a, err := asm.AssembleFile(options.input, asm.Options{
		Origin:         origin,
		StrictMultiply: options.strictMultiply,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	paths := asm.DefaultOutputPaths(options.input)
	if options.kim != "" {
		paths.KIM = options.kim
	}
	if options.listing != "" {
		paths.Listing = options.listing
	}
	if options.srcMap != "" {
		paths.SourceMap = options.srcMap
	}
	if err := a.WriteFiles(paths); err != nil {
		return err
	}

	logger.Info("Assembly complete",
		log.String("file", options.input),
		log.Int("bytes", a.Memory.Len()),
		log.Int("symbols", len(a.Symbols)))
	return nil
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
