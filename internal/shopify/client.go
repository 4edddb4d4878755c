package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	graphql "github.com/hasura/go-graphql-client"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/domain"
)

// Metafields is the slice of the Admin API the processor needs: reading the
// lukso-namespace metafields of customers and products, and writing the
// minted token id back.
type Metafields interface {
	CustomerProfileAddress(ctx context.Context, customerGID string) (string, error)
	ProductNFTConfig(ctx context.Context, productGID string) (*domain.ProductNFTConfig, error)
	SetProductTokenID(ctx context.Context, productGID, tokenID string) error
}

type ClientConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	HTTPClient  *http.Client
}

// Client talks to the Shopify Admin GraphQL API of a single shop.
type Client struct {
	gql *graphql.Client
}

func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	endpoint := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.ShopDomain, cfg.APIVersion)
	gql := graphql.NewClient(endpoint, hc).WithRequestModifier(func(r *http.Request) {
		r.Header.Set("X-Shopify-Access-Token", cfg.AccessToken)
	})
	return &Client{gql: gql}
}

// CustomerProfileAddress returns the customer's registered Universal Profile
// address, or "" when the customer or the metafield does not exist.
func (c *Client) CustomerProfileAddress(ctx context.Context, customerGID string) (string, error) {
	var q struct {
		Customer *struct {
			Metafield *struct {
				Value string
			} `graphql:"metafield(namespace: \"lukso\", key: \"profile_address\")"`
		} `graphql:"customer(id: $id)"`
	}
	vars := map[string]any{"id": graphql.ID(customerGID)}
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return "", classify("shopify.customer_profile_address", err)
	}
	if q.Customer == nil || q.Customer.Metafield == nil {
		return "", nil
	}
	return q.Customer.Metafield.Value, nil
}

// ProductNFTConfig fetches the product's minting configuration. A nil config
// with nil error means the product no longer exists.
func (c *Client) ProductNFTConfig(ctx context.Context, productGID string) (*domain.ProductNFTConfig, error) {
	var q struct {
		Product *struct {
			Contract *struct {
				Value string
			} `graphql:"contract: metafield(namespace: \"lukso\", key: \"nft_contract_address\")"`
			BaseURI *struct {
				Value string
			} `graphql:"baseUri: metafield(namespace: \"lukso\", key: \"nft_base_uri\")"`
			TokenID *struct {
				Value string
			} `graphql:"tokenId: metafield(namespace: \"lukso\", key: \"nft_token_id\")"`
		} `graphql:"product(id: $id)"`
	}
	vars := map[string]any{"id": graphql.ID(productGID)}
	if err := c.gql.Query(ctx, &q, vars); err != nil {
		return nil, classify("shopify.product_nft_config", err)
	}
	if q.Product == nil {
		return nil, nil
	}
	cfg := &domain.ProductNFTConfig{}
	if q.Product.Contract != nil {
		cfg.ContractAddress = q.Product.Contract.Value
	}
	if q.Product.BaseURI != nil {
		cfg.BaseURI = q.Product.BaseURI.Value
	}
	if q.Product.TokenID != nil {
		cfg.TokenID = q.Product.TokenID.Value
	}
	return cfg, nil
}

// MetafieldsSetInput mirrors the Admin API input type of the same name.
type MetafieldsSetInput struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// SetProductTokenID records the minted token id on the product.
func (c *Client) SetProductTokenID(ctx context.Context, productGID, tokenID string) error {
	var m struct {
		MetafieldsSet *struct {
			Metafields []struct {
				ID string
			}
			UserErrors []struct {
				Field   []string
				Message string
			}
		} `graphql:"metafieldsSet(metafields: $metafields)"`
	}
	vars := map[string]any{
		"metafields": []MetafieldsSetInput{{
			OwnerID:   productGID,
			Namespace: "lukso",
			Key:       "nft_token_id",
			Type:      "single_line_text_field",
			Value:     tokenID,
		}},
	}
	if err := c.gql.Mutate(ctx, &m, vars); err != nil {
		return classify("shopify.set_product_token_id", err)
	}
	if m.MetafieldsSet != nil && len(m.MetafieldsSet.UserErrors) > 0 {
		first := m.MetafieldsSet.UserErrors[0]
		return domain.NewRemoteError(domain.ErrKindPlatform, "shopify.set_product_token_id",
			fmt.Errorf("metafieldsSet: %s", first.Message))
	}
	return nil
}

// classify folds transport and GraphQL failures into the tagged error set.
func classify(op string, err error) error {
	var gqlErrs graphql.Errors
	if errors.As(err, &gqlErrs) {
		for _, e := range gqlErrs {
			code, _ := e.Extensions["code"].(string)
			if code == "ACCESS_DENIED" || code == "UNAUTHENTICATED" {
				return domain.NewRemoteError(domain.ErrKindAuth, op, err)
			}
		}
		return domain.NewRemoteError(domain.ErrKindPlatform, op, err)
	}
	return domain.NewRemoteError(domain.ErrKindNetwork, op, err)
}
