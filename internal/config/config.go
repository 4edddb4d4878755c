package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	ShopifyShopDomain string
	ShopifyAdminToken string
	ShopifyAPISecret  string
	ShopifyAPIVersion string

	RPCURL             string
	ChainID            int64
	OperatorPrivateKey string
	MintTxTimeout      time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:           getenv("HTTP_PORT", "8080"),
		ShopifyShopDomain:  os.Getenv("SHOPIFY_SHOP_DOMAIN"),
		ShopifyAdminToken:  os.Getenv("SHOPIFY_ADMIN_TOKEN"),
		ShopifyAPISecret:   os.Getenv("SHOPIFY_API_SECRET"),
		ShopifyAPIVersion:  getenv("SHOPIFY_API_VERSION", "2024-07"),
		RPCURL:             getenv("RPC_URL", "https://rpc.mainnet.lukso.network"),
		OperatorPrivateKey: os.Getenv("OPERATOR_PRIVATE_KEY"),
	}

	chainID, err := strconv.ParseInt(getenv("CHAIN_ID", "42"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse CHAIN_ID: %w", err)
	}
	cfg.ChainID = chainID

	timeout, err := time.ParseDuration(getenv("MINT_TX_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("parse MINT_TX_TIMEOUT: %w", err)
	}
	cfg.MintTxTimeout = timeout

	var missing []string
	for _, v := range []struct{ name, val string }{
		{"SHOPIFY_SHOP_DOMAIN", cfg.ShopifyShopDomain},
		{"SHOPIFY_ADMIN_TOKEN", cfg.ShopifyAdminToken},
		{"SHOPIFY_API_SECRET", cfg.ShopifyAPISecret},
		{"OPERATOR_PRIVATE_KEY", cfg.OperatorPrivateKey},
	} {
		if v.val == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
