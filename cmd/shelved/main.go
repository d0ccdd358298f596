// Command shelved runs the shelve daemon: it ingests inbound transfers,
// downloads them under the concurrency cap, classifies completed files, and
// places them into the library. Without a chat platform adapter it still
// processes files dropped into the download directory.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shelve/internal/config"
	"shelve/internal/daemon"
	"shelve/internal/logging"
	"shelve/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, resolved, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger.Info("configuration loaded", logging.String("path", resolved))

	d, err := daemon.New(cfg, transport.NewLogTransport(logger), logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}

	if err := d.Start(ctx, nil); err != nil {
		logger.Error("start daemon", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shelved shutting down")
	d.Stop()
}
