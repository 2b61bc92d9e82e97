package main

import (
	"context"
	"flag"
	"mmbot/internal/config"
	"mmbot/internal/engine"
	"mmbot/internal/exchange/gateway"
	"mmbot/internal/logger"
	"mmbot/internal/storage"
	"mmbot/internal/strategy"
	"os"
	"os/signal"
	"syscall"

	"github.com/sourcegraph/conc"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	purge := flag.String("purge", "", "delete stored data of the named worker and exit")
	flag.Parse()

	cfg, err := config.LoadFrom(*configDir)
	if err != nil {
		panic(err)
	}

	log := logger.New(loggerConfig(cfg.Runtime.Log))
	ordersLog := logger.NewOrdersLog(loggerConfig(cfg.Runtime.OrdersLog))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.DSN,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage.")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("Failed to close storage.")
		}
	}()

	if *purge != "" {
		if err := engine.PurgeWorkerData(ctx, backend, *purge); err != nil {
			log.WithError(err).WithField("worker", *purge).Error("Failed to purge worker data.")
			os.Exit(1)
		}
		log.WithWorker(*purge).Info("Worker data purged.")
		return
	}

	if len(cfg.Workers) == 0 {
		log.Warn("No workers configured.")
		return
	}

	client := gateway.New(gateway.Config{
		BaseURL: cfg.Exchange.BaseUrl,
		WSURL:   cfg.Exchange.WSUrl,
		APIKey:  cfg.Exchange.ApiKey,
		Secret:  cfg.Exchange.Secret,
		Timeout: cfg.Exchange.Timeout,
	}, log)

	log.WithFields(map[string]interface{}{"workers": len(cfg.Workers)}).Info("Market maker started.")

	var wg conc.WaitGroup
	for _, wcfg := range cfg.Workers {
		wg.Go(func() {
			runWorker(ctx, wcfg, client, backend, log, ordersLog)
		})
	}
	wg.Wait()

	log.Info("Market maker stopped.")
}

func runWorker(ctx context.Context, wcfg config.WorkerConfig, client *gateway.Client, backend storage.Backend, log *logger.Logger, ordersLog *logger.OrdersLog) {
	entry := log.WithWorker(wcfg.Name)

	eng := engine.New(wcfg, client.ForWorker(wcfg.Bundle), backend.Worker(wcfg.Name), log, engine.WithOrdersLog(ordersLog))
	if err := eng.Init(ctx); err != nil {
		entry.WithError(err).Error("Failed to initialize worker.")
		return
	}

	if _, err := strategy.New(eng, log); err != nil {
		entry.WithError(err).Error("Failed to build strategy.")
		return
	}

	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		entry.WithError(err).Error("Worker stopped with error.")
		return
	}
	entry.Info("Worker stopped.")
}

func loggerConfig(c config.LogConfig) logger.Config {
	return logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.File,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}
