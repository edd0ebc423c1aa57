package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/snowduck/snowduck/handler"
	"github.com/snowduck/snowduck/plugin"
)

func main() {
	logPath := flag.String("log", "", "log file path (stderr if empty)")
	debug := flag.Bool("debug", false, "log every call")
	manifest := flag.String("manifest", "", "write the method manifest to this path and exit")
	flag.Parse()

	if err := run(*logPath, *debug, *manifest); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logPath string, debug bool, manifest string) error {
	logger, err := plugin.NewLogger(logPath, debug)
	if err != nil {
		return fmt.Errorf("plugin.NewLogger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := plugin.New(os.Stdin, os.Stdout, os.Stdout, logger)
	if err != nil {
		return err
	}

	h := handler.New(logger)
	defer func() {
		if err := h.Close(); err != nil {
			logger.Errorf("h.Close: %s", err)
		}
	}()

	if err := mountEndpoints(ctx, p, h); err != nil {
		return err
	}

	if manifest != "" {
		executable, err := os.Executable()
		if err != nil {
			return fmt.Errorf("os.Executable: %w", err)
		}

		file, err := os.Create(manifest)
		if err != nil {
			return fmt.Errorf("os.Create: %w", err)
		}
		defer file.Close()

		return p.Manifest(file, executable)
	}

	go func() {
		<-ctx.Done()
		_ = p.Close()
	}()

	logger.Infof("serving %d methods", len(p.Methods()))
	if err := p.Serve(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("p.Serve: %w", err)
	}
	return nil
}
