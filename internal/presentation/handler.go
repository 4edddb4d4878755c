package presentation

import (
	"context"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/domain"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/logger"
	"github.com/phygital-labs/shopify-lukso-bridge/internal/presentation/helpers"
)

const (
	topicOrdersFulfilled      = "orders/fulfilled"
	topicCustomersDataRequest = "customers/data_request"
	topicCustomersRedact      = "customers/redact"
	topicShopRedact           = "shop/redact"
)

type FulfillmentProcessor interface {
	ProcessFulfillment(ctx context.Context, shopDomain string, order *domain.WebhookOrder) error
}

type BalanceReader interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
}

type Handler struct {
	proc          FulfillmentProcessor
	chain         BalanceReader
	webhookSecret string
}

func NewHandler(proc FulfillmentProcessor, chain BalanceReader, webhookSecret string) *Handler {
	return &Handler{proc: proc, chain: chain, webhookSecret: webhookSecret}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(VerifyWebhookHMAC(h.webhookSecret))
		r.Post("/webhooks", h.HandleWebhook)
	})
	r.Get("/balance/{address}", h.GetBalance)
	r.Get("/health", h.Health)
}

// HandleWebhook routes a delivery by its topic header. Shopify retries any
// non-2xx response, so unknown topics and per-item failures still ack 200.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	topic := r.Header.Get("X-Shopify-Topic")
	shop := r.Header.Get("X-Shopify-Shop-Domain")
	deliveryID := r.Header.Get("X-Shopify-Webhook-Id")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}

	switch topic {
	case topicOrdersFulfilled:
		var order domain.WebhookOrder
		if err := helpers.DecodeJSON(r.Body, &order); err != nil {
			logger.Warn("webhook payload unparseable", "delivery", deliveryID, "err", err)
			helpers.HttpError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		logger.Info("fulfillment received", "delivery", deliveryID, "shop", shop,
			"order", order.AdminID, "items", len(order.Items))
		if err := h.proc.ProcessFulfillment(r.Context(), shop, &order); err != nil {
			helpers.HttpError(w, http.StatusInternalServerError, "fulfillment processing failed")
			return
		}

	case topicCustomersDataRequest, topicCustomersRedact, topicShopRedact:
		// Mandatory compliance topics. Acknowledged only; the shop stores
		// no customer data in this service.
		logger.Info("compliance webhook acknowledged", "delivery", deliveryID, "topic", topic, "shop", shop)

	default:
		logger.Warn("unhandled webhook topic", "delivery", deliveryID, "topic", topic)
	}

	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(chi.URLParam(r, "address"))
	if !common.IsHexAddress(address) {
		helpers.HttpError(w, http.StatusBadRequest, "invalid address")
		return
	}

	wei, err := h.chain.Balance(r.Context(), address)
	if err != nil {
		logger.Warn("balance lookup failed", "address", address, "err", err)
		helpers.HttpError(w, http.StatusBadGateway, "balance lookup failed")
		return
	}

	lyx := decimal.NewFromBigInt(wei, -18)
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"wei":     wei.String(),
		"lyx":     lyx.String(),
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "shopify-lukso-bridge",
	})
}
