package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/wichananm65/food-order-backend/internal/config"
	"github.com/wichananm65/food-order-backend/internal/payment"
	"github.com/wichananm65/food-order-backend/internal/server"
)

// main runs the API on in-memory storage with the sample catalog. Nothing
// survives a restart.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.WithError(err).Fatal("configure logging")
	}
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	gateway := payment.NewPaystack(payment.PaystackConfig{
		BaseURL:     cfg.Payment.BaseURL,
		SecretKey:   cfg.Payment.SecretKey,
		CallbackURL: cfg.Payment.CallbackURL,
		Timeout:     cfg.Payment.Timeout,
	})
	app := server.New(cfg, server.NewServices(cfg, server.MemoryBackends(gateway)), nil, nil)

	log.WithField("addr", cfg.Addr).Info("starting in-memory server")
	if err := app.Listen(cfg.Addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
