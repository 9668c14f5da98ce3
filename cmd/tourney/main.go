package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"tourney/internal/book"
	"tourney/internal/config"
	"tourney/internal/tour"
)

const (
	exitOk          = 0
	exitConfigError = 1
	exitIOError     = 2
	exitInterrupted = 3
)

func main() {
	os.Exit(run())
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tourney <command> [flags]

commands:
  tour   run a tournament
  bench  run a single match between the first two players

flags:
  -c string   config file (required)
  -v          verbose logging
`)
}

func run() int {
	if len(os.Args) < 2 {
		usage()
		return exitConfigError
	}
	var command = os.Args[1]
	switch command {
	case "tour", "bench":
	case "--help", "-h", "help":
		usage()
		return exitOk
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		usage()
		return exitConfigError
	}

	var flags = flag.NewFlagSet(command, flag.ExitOnError)
	var configPath = flags.String("c", "", "config file")
	var verbose = flags.Bool("v", false, "verbose logging")
	flags.Parse(os.Args[2:])

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "missing -c <config>")
		return exitConfigError
	}

	var cfg, err = config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	log, closeLog, err := newLogger(cfg.LogFile, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitIOError
	}
	defer closeLog()

	var tourCfg = cfg.TourConfig()
	if command == "bench" {
		// a single match: the first two participants, one pair of games
		if len(tourCfg.Engines) < 2 {
			fmt.Fprintln(os.Stderr, "bench needs two engines")
			return exitConfigError
		}
		tourCfg.Engines = tourCfg.Engines[:2]
		tourCfg.Type = "roundrobin"
		tourCfg.Concurrency = 1
	}

	books, err := book.NewMng(cfg.BookOptions(), log)
	if err != nil {
		log.Error().Err(err).Msg("book load failed")
		return exitConfigError
	}

	tournament, err := tour.New(tourCfg, books, log)
	if err != nil {
		log.Error().Err(err).Msg("bad tournament setup")
		return exitConfigError
	}

	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tournament.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("interrupted")
			return exitInterrupted
		}
		log.Error().Err(err).Msg("tournament failed")
		return exitIOError
	}
	return exitOk
}

func newLogger(logFile string, verbose bool) (zerolog.Logger, func(), error) {
	var level = zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		var log = zerolog.New(file).Level(level).With().Timestamp().Logger()
		return log, func() { file.Close() }, nil
	}
	var console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	var log = zerolog.New(console).Level(level).With().Timestamp().Logger()
	return log, func() {}, nil
}
