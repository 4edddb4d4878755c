package application

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/domain"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/logger"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/lukso"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/shopify"
)

// Processor runs the fulfillment pipeline: resolve the customer's profile
// address, then mint one token per eligible line item and record the token
// id on the product.
type Processor struct {
	sessions shopify.SessionStore
	meta     shopify.Metafields
	minter   lukso.TokenMinter
	now      func() time.Time
}

func NewProcessor(sessions shopify.SessionStore, meta shopify.Metafields, minter lukso.TokenMinter) *Processor {
	return &Processor{
		sessions: sessions,
		meta:     meta,
		minter:   minter,
		now:      time.Now,
	}
}

// ProcessFulfillment handles one orders/fulfilled delivery. A non-nil error
// means the whole event was aborted (missing credential or a failed
// top-level lookup); per-item failures are logged and swallowed.
//
// The "already minted" check and the mint are two separate remote calls with
// no lock between them. Concurrent deliveries for the same product can race
// past the check and double-mint.
func (p *Processor) ProcessFulfillment(ctx context.Context, shopDomain string, order *domain.WebhookOrder) error {
	if order.Customer == nil || order.Customer.AdminID == "" {
		logger.Info("order has no customer, skipping", "order", order.AdminID)
		return nil
	}

	if _, err := p.sessions.Offline(ctx, shopDomain); err != nil {
		logger.Error("no offline session for shop", "shop", shopDomain, "order", order.AdminID, "err", err)
		return err
	}

	profileAddr, err := p.meta.CustomerProfileAddress(ctx, order.Customer.AdminID)
	if err != nil {
		logger.Error("profile address lookup failed", "customer", order.Customer.AdminID, "err", err)
		return err
	}
	if profileAddr == "" {
		logger.Info("customer has no profile address, skipping", "customer", order.Customer.AdminID)
		return nil
	}

	for _, item := range order.Items {
		p.processItem(ctx, order, item, profileAddr)
	}
	return nil
}

func (p *Processor) processItem(ctx context.Context, order *domain.WebhookOrder, item domain.LineItem, recipient string) {
	lineID := strconv.FormatInt(item.ID, 10)

	if item.ProductID == nil || !item.ProductExists {
		logger.Info("line item without product, skipping", "order", order.AdminID, "line_item", lineID)
		return
	}
	productGID := fmt.Sprintf("gid://shopify/Product/%d", *item.ProductID)

	cfg, err := p.meta.ProductNFTConfig(ctx, productGID)
	if err != nil {
		logger.Warn("product config lookup failed", "product", productGID, "line_item", lineID, "err", err)
		return
	}
	if cfg == nil {
		logger.Info("product deleted, skipping", "product", productGID, "line_item", lineID)
		return
	}
	if cfg.TokenID != "" {
		logger.Info("product already minted, skipping", "product", productGID, "token_id", cfg.TokenID)
		return
	}
	if !cfg.Mintable() {
		logger.Info("product not configured for minting, skipping", "product", productGID)
		return
	}

	tokenID := lukso.TokenID(order.AdminID, lineID, order.Customer.AdminID, p.now())
	tokenURI := strings.TrimSuffix(cfg.BaseURI, "/") + "/" + tokenID.Hex() + ".json"

	txHash, err := p.minter.Mint(ctx, cfg.ContractAddress, recipient, tokenID, tokenURI)
	if err != nil {
		logger.Error("mint failed", "order", order.AdminID, "line_item", lineID,
			"product", productGID, "kind", domain.KindOf(err), "err", err)
		return
	}
	logger.Info("token minted", "order", order.AdminID, "line_item", lineID,
		"product", productGID, "token_id", tokenID.Hex(), "tx", txHash)

	if err := p.meta.SetProductTokenID(ctx, productGID, tokenID.Hex()); err != nil {
		logger.Error("token id write-back failed, token is minted but unrecorded",
			"product", productGID, "token_id", tokenID.Hex(), "tx", txHash, "err", err)
	}
}
