// Command moonlit renders the moonlit statue scene in a window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/moonlit/engine"
	"github.com/Carmen-Shannon/moonlit/engine/config"
	"github.com/Carmen-Shannon/moonlit/engine/logger"
	"go.uber.org/zap"
)

func init() {
	// GLFW and the GPU surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.FromArgs("moonlit", args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "moonlit:", err)
		return 2
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, "moonlit:", err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	eng, err := engine.NewEngine(cfg, engine.WithLogger(log))
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return 1
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("frame loop failed", zap.Error(err))
		return 1
	}
	return 0
}
