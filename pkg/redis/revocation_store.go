package redis

import (
	"context"
	"errors"
	"time"
)

var ErrEmptyTokenID = errors.New("token id is required")

// RevocationStore keeps logged-out session token ids until the tokens would
// have expired on their own.
type RevocationStore struct {
	prefix string
}

var (
	setRevocation    = Set
	existsRevocation = Exists
)

// NewRevocationStore creates a revocation store
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{prefix: "revoked:"}
}

// Revoke marks tokenID as revoked for ttl. A non-positive ttl is a no-op
// since the token is already expired.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}
	if ttl <= 0 {
		return nil
	}
	return setRevocation(ctx, s.prefix+tokenID, "1", ttl)
}

// IsRevoked reports whether tokenID was revoked
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	return existsRevocation(ctx, s.prefix+tokenID)
}
