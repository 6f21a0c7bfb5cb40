package main

import (
	"context"
	"testing"

	"github.com/YuminosukeSato/oncolens/config"
	"github.com/YuminosukeSato/oncolens/pkg/log"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		cancel  bool
		wantErr bool
	}{
		{"listen failure", "127.0.0.1:-1", false, true},
		{"interrupted", "127.0.0.1:0", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Server.Addr = tt.addr
			logger, _ := log.NewTestLogger(log.LevelDebug)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}
			err := run(ctx, cfg, logger)
			if (err != nil) != tt.wantErr {
				t.Errorf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
