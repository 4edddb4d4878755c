package shopify

import (
	"context"
	"fmt"
	"strings"

	"github.com/phygital-labs/shopify-lukso-bridge/internal/domain"
)

// Session is a long-lived offline credential for background API calls
// against one shop.
type Session struct {
	Shop        string
	AccessToken string
}

type SessionStore interface {
	// Offline returns the offline session for the shop, or an auth-kind
	// RemoteError when none is registered.
	Offline(ctx context.Context, shopDomain string) (*Session, error)
}

// StaticSessionStore holds the single offline token this deployment is
// provisioned with. The OAuth dance that would normally populate a store
// happens outside this service.
type StaticSessionStore struct {
	session Session
}

func NewStaticSessionStore(shopDomain, accessToken string) *StaticSessionStore {
	return &StaticSessionStore{session: Session{Shop: shopDomain, AccessToken: accessToken}}
}

func (s *StaticSessionStore) Offline(_ context.Context, shopDomain string) (*Session, error) {
	if !strings.EqualFold(shopDomain, s.session.Shop) || s.session.AccessToken == "" {
		return nil, domain.NewRemoteError(domain.ErrKindAuth, "sessions.offline",
			fmt.Errorf("no offline session for shop %q", shopDomain))
	}
	return &s.session, nil
}
