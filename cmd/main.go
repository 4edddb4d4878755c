package main

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/application"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/config"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/logger"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/lukso"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/presentation"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/shopify"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	sessions := shopify.NewStaticSessionStore(cfg.ShopifyShopDomain, cfg.ShopifyAdminToken)
	meta := shopify.NewClient(shopify.ClientConfig{
		ShopDomain:  cfg.ShopifyShopDomain,
		AccessToken: cfg.ShopifyAdminToken,
		APIVersion:  cfg.ShopifyAPIVersion,
	})

	minter, err := lukso.NewMinter(lukso.Config{
		RPCURL:     cfg.RPCURL,
		ChainID:    cfg.ChainID,
		PrivateKey: cfg.OperatorPrivateKey,
		TxTimeout:  cfg.MintTxTimeout,
	})
	if err != nil {
		logger.Error("minter init failed", "err", err)
		os.Exit(1)
	}
	logger.Info("chain client ready", "rpc", cfg.RPCURL, "chain_id", cfg.ChainID)

	proc := application.NewProcessor(sessions, meta, minter)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	h := presentation.NewHandler(proc, minter, cfg.ShopifyAPISecret)
	h.Register(r)

	addr := ":" + cfg.HTTPPort
	logger.Info("starting http", "addr", addr, "shop", cfg.ShopifyShopDomain)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("http server crashed", "err", err)
		os.Exit(1)
	}
}
