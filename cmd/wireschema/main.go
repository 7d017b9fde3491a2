// Package main is the wireschema command line tool: it loads a schema
// URL, fixes it, and validates or dumps the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/wireschema/loader"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	schemaURL := flag.String("schema", "", "Schema URL (file://path, yaml://inline, or a plain path)")
	dumpFormat := flag.String("dump", "", "Dump the fixed schema in the given format (yaml)")
	validate := flag.Bool("validate", false, "Validate the schema and exit")
	showVersion := flag.Bool("version", false, "Show version and exit")
	logLevel := flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wireschema %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := setupLogger(*logLevel)

	if *schemaURL == "" {
		fmt.Fprintln(os.Stderr, "a schema URL is required")
		flag.Usage()
		os.Exit(2)
	}

	s, err := loader.Load(*schemaURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", *schemaURL).Msg("schema load failed")
	}
	defer s.Unref()

	if *validate {
		logger.Info().
			Str("url", *schemaURL).
			Int("messages", len(s.Messages)).
			Int("enums", len(s.Enums)).
			Int("unions", len(s.Unions)).
			Msg("schema is valid")
		return
	}

	if *dumpFormat != "" {
		out, err := s.Dump(*dumpFormat)
		if err != nil {
			logger.Fatal().Err(err).Msg("dump failed")
		}
		os.Stdout.Write(out)
		return
	}

	// Default: print a layout summary.
	for _, m := range s.Messages {
		if m.ID != 0 {
			fmt.Printf("%s (id %d): %d bytes\n", m.Name, m.ID, m.Size)
		} else {
			fmt.Printf("%s: %d bytes\n", m.Name, m.Size)
		}
		for _, f := range m.Fields {
			marker := ""
			if f.IsVariable() {
				marker = " -> variable data"
			}
			fmt.Printf("  @%-4d %-20s %d bytes%s\n", f.Offset, f.Name, f.Size, marker)
		}
	}
}

func setupLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).With().Timestamp().Logger()
}
