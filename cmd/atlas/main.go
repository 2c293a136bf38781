package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/atlasapi/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override atlas api config path (optional)")
	prefsPath := flag.String("prefs", "", "override prefs path (optional)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (default warn)")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	logFile := flag.String("log-file", "", "also append logs to this file (optional)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		LogLevel:   *logLevel,
		LogFormat:  *logFormat,
		LogFile:    *logFile,
		Args:       flag.Args(),
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "atlas: %v\n", err)
		if errors.Is(err, app.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
