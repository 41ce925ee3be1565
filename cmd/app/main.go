package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/wichananm65/food-order-backend/internal/address"
	"github.com/wichananm65/food-order-backend/internal/cart"
	"github.com/wichananm65/food-order-backend/internal/config"
	"github.com/wichananm65/food-order-backend/internal/database"
	"github.com/wichananm65/food-order-backend/internal/order"
	"github.com/wichananm65/food-order-backend/internal/payment"
	"github.com/wichananm65/food-order-backend/internal/restaurant"
	"github.com/wichananm65/food-order-backend/internal/server"
	"github.com/wichananm65/food-order-backend/internal/user"
)

func main() {
	app := &cli.App{
		Name:  "food-order",
		Usage: "food ordering API backed by Postgres",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Usage: "apply pending migrations before serving", Value: true},
				},
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back schema migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "down", Usage: "roll back this many migrations instead of applying"},
					&cli.BoolFlag{Name: "seed", Usage: "load the sample catalog into empty catalog tables"},
				},
				Action: migrateCmd,
			},
		},
		DefaultCommand: "serve",
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("food-order")
	}
}

func setup(c *cli.Context) (config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return cfg, nil, err
	}
	db, err := database.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

func migrateCmd(c *cli.Context) error {
	_, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if steps := c.Int("down"); steps > 0 {
		return database.Rollback(db, steps)
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if c.Bool("seed") {
		seeded, err := restaurant.NewPostgresRepository(db).Seed(c.Context, restaurant.SeedRestaurants(), restaurant.SeedCuisines())
		if err != nil {
			return err
		}
		log.WithField("seeded", seeded).Info("catalog seed")
	}
	return nil
}

func serve(c *cli.Context) error {
	cfg, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("migrate") {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	backends := server.Backends{
		Users:     user.NewPostgresRepository(db),
		Addresses: address.NewPostgresRepository(db),
		Carts:     cart.NewPostgresRepository(db),
		Catalog:   restaurant.NewPostgresRepository(db),
		Gateway: payment.NewPaystack(payment.PaystackConfig{
			BaseURL:     cfg.Payment.BaseURL,
			SecretKey:   cfg.Payment.SecretKey,
			CallbackURL: cfg.Payment.CallbackURL,
			Timeout:     cfg.Payment.Timeout,
		}),
	}
	ready := []func(context.Context) error{db.PingContext}

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(c.Context).Err(); err != nil {
			return errors.Wrap(err, "ping redis")
		}
		backends.CatalogCache = restaurant.NewRedisCache(rdb, cfg.Redis.CacheTTL)
		backends.Publisher = order.NewRedisPublisher(rdb, order.DefaultChannel)
		ready = append(ready, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	app := server.New(cfg, server.NewServices(cfg, backends), func(ctx context.Context) error {
		for _, check := range ready {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil)

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("starting server")
		errc <- app.Listen(cfg.Addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutting down")
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}
