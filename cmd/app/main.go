// Command app serves the prediction dashboard.
//
//	app -config oncolens.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/YuminosukeSato/oncolens/config"
	"github.com/YuminosukeSato/oncolens/dashboard"
	"github.com/YuminosukeSato/oncolens/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to oncolens.yaml (defaults are used when empty)")
	loglevel := flag.String("loglevel", "", "log level, overrides the config file. debug|info|warn|error")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can not read configuration: %v\n", err)
		os.Exit(2)
	}
	if *loglevel != "" {
		cfg.Log.Level = *loglevel
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logger, closer, err := log.Setup(cfg.LogOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "can not set up logging: %v\n", err)
		os.Exit(2)
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Dashboard failed", err)
		cancel()
		closer.Close()
		os.Exit(1)
	}
	logger.Info("Dashboard stopped")
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg config.Config, logger log.Logger) error {
	server, err := dashboard.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	stopped := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(stopped)
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(graceful); err != nil {
			logger.Error("Dashboard shutdown failed", err)
		}
	})

	if err := server.Start(); err != nil {
		if !stop() {
			<-stopped
		}
		return err
	}
	<-stopped
	return nil
}
