// Command relaymesh-client runs a subscription client against a
// loopback relay.
//
// This example shows how to:
//   - Load client configuration from a YAML file
//   - Assemble a controller over an on-disk snapshot store
//   - Subscribe to topics and receive payloads via the event bus
//   - Survive a restart: state is restored on the next Start
//
// Usage:
//
//	go run ./cmd/relaymesh-client -config config.yaml -topics orders,invoices
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/relaymesh/relaymesh-go/pkg/config"
	"github.com/relaymesh/relaymesh-go/pkg/events"
	"github.com/relaymesh/relaymesh-go/pkg/relay"
	"github.com/relaymesh/relaymesh-go/pkg/storage"
	"github.com/relaymesh/relaymesh-go/pkg/subscriber"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	topics := flag.String("topics", "", "comma-separated topics to subscribe on startup")
	flag.Parse()

	if err := run(*configPath, *topics); err != nil {
		fmt.Fprintf(os.Stderr, "relaymesh-client: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, topics string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	kv := storage.NewFileStore(cfg.StorageDir)

	lb := relay.NewLoopback()
	defer lb.Close()

	ctrl, err := subscriber.NewController(subscriber.Config{
		Relay:      lb,
		Storage:    kv,
		ClientID:   cfg.ClientID,
		Namespace:  cfg.Namespace,
		Encrypted:  cfg.Encrypted,
		DefaultTTL: time.Duration(cfg.DefaultTTL),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Close() //nolint:errcheck

	ctrl.Events().Subscribe(events.KindPayload, func(ev events.Event) {
		logger.Info("payload received",
			zap.String("topic", ev.Topic),
			zap.Int("bytes", len(ev.Payload)))
	})
	ctrl.Events().Subscribe(events.KindDeleted, func(ev events.Event) {
		logger.Info("subscription removed",
			zap.String("topic", ev.Topic),
			zap.String("reason", ev.Reason))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	logger.Info("client started",
		zap.String("client_id", cfg.ClientID),
		zap.String("namespace", cfg.Namespace),
		zap.Int("restored", ctrl.Store().Len()))

	for _, topic := range splitTopics(topics) {
		if err := ctrl.Set(ctx, topic, nil, subscriber.Options{}); err != nil {
			return fmt.Errorf("subscribing %q: %w", topic, err)
		}
		logger.Info("subscribed", zap.String("topic", topic))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	return ctrl.Close()
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func splitTopics(raw string) []string {
	var out []string
	for _, topic := range strings.Split(raw, ",") {
		if topic = strings.TrimSpace(topic); topic != "" {
			out = append(out, topic)
		}
	}
	return out
}
