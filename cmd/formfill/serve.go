package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mendrika-alma/formfill/pkg/config"
	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/engine"
	"github.com/mendrika-alma/formfill/pkg/formmap"
	"github.com/mendrika-alma/formfill/pkg/metrics"
	"github.com/mendrika-alma/formfill/pkg/progress"
	"github.com/mendrika-alma/formfill/pkg/server"
	"github.com/mendrika-alma/formfill/pkg/store"
)

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the form-fill HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	return cmd
}

func serve(cfg config.Config) error {
	logger := log.New(os.Stderr, "formfill ", log.LstdFlags)

	if err := formmap.Validate(formmap.DefaultEntries()); err != nil {
		return err
	}

	shots, err := buildStore(cfg)
	if err != nil {
		return err
	}

	channel := progress.NewChannel()
	channel.OnSubscribe = func(total int) { metrics.ProgressSubscribers.Set(float64(total)) }
	channel.OnUnsubscribe = func(total int) { metrics.ProgressSubscribers.Set(float64(total)) }

	pub := progress.Publisher(channel)
	if cfg.NATSURL != "" {
		natsPub, err := progress.NewNATSPublisher(progress.NATSConfig{URL: cfg.NATSURL, Logger: logger})
		if err != nil {
			return err
		}
		defer natsPub.Close()
		pub = progress.Multi(channel, natsPub)
		logger.Printf("mirroring progress events to NATS at %s", cfg.NATSURL)
	}

	eng := engine.New(
		driver.NewRodFactory(driver.RodConfig{Headless: cfg.Headless}),
		pub,
		shots,
		engine.Config{
			TargetURL:       cfg.TargetFormURL,
			PageLoadTimeout: cfg.PageLoadTimeout(),
			LocatorTimeout:  cfg.LocatorTimeout(),
			RetryCount:      cfg.RetryCount,
			RetryBackoff:    cfg.RetryBackoff(),
			StepDelay:       cfg.StepDelay(),
		},
		engine.WithLogger(logger),
	)

	srv := server.New(engine.NewRunner(eng), channel, shots, server.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("target form: %s", cfg.TargetFormURL)
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}

func buildStore(cfg config.Config) (store.Store, error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return store.NewRedisStore(client, 24*time.Hour), nil
	}
	return store.NewDiskStore(cfg.UploadDir)
}
