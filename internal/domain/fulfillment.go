package domain

// WebhookOrder is the payload of an orders/fulfilled webhook delivery.
// Only the fields the processor reads are decoded; Shopify sends many more.
type WebhookOrder struct {
	ID       int64            `json:"id"`
	AdminID  string           `json:"admin_graphql_api_id"`
	Customer *WebhookCustomer `json:"customer"`
	Items    []LineItem       `json:"line_items"`
}

type WebhookCustomer struct {
	ID      int64  `json:"id"`
	AdminID string `json:"admin_graphql_api_id"`
}

type LineItem struct {
	ID            int64  `json:"id"`
	ProductID     *int64 `json:"product_id"`
	ProductExists bool   `json:"product_exists"`
}

// ProductNFTConfig is the lukso-namespace metafield triple of a product.
// Empty strings mean the metafield is not set.
type ProductNFTConfig struct {
	ContractAddress string
	BaseURI         string
	TokenID         string
}

// Mintable reports whether the product is configured for minting and has
// not been minted yet.
func (c *ProductNFTConfig) Mintable() bool {
	return c != nil && c.TokenID == "" && c.ContractAddress != "" && c.BaseURI != ""
}

// MintResult is what a successful mint leaves behind: the transaction hash
// of the mint call and the token id it minted.
type MintResult struct {
	TxHash  string
	TokenID string
}
