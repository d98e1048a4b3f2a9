package viewerauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"twofold-chess/internal/db"
)

var ErrInvalidOAuthState = errors.New("invalid or expired oauth state")

// StateStore persists OAuth2 CSRF state tokens in the oauth_states
// collection (TTL-indexed by internal/db) instead of the teacher's
// in-memory map, so state survives an OAuth round trip across
// multiple server instances.
type StateStore struct {
	coll *mongo.Collection
	ttl  time.Duration
}

func NewStateStore(database *db.MongoDB) *StateStore {
	return &StateStore{coll: database.OAuthStates(), ttl: 10 * time.Minute}
}

// Create mints a random state token and records its expiry.
func (s *StateStore) Create(ctx context.Context) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	state := hex.EncodeToString(buf)

	_, err := s.coll.InsertOne(ctx, bson.M{
		"state":     state,
		"createdAt": time.Now(),
		"expiresAt": time.Now().Add(s.ttl),
	})
	if err != nil {
		return "", err
	}
	return state, nil
}

// Consume validates state exists and has not expired, then deletes it
// so it cannot be replayed.
func (s *StateStore) Consume(ctx context.Context, state string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{
		"state":     state,
		"expiresAt": bson.M{"$gt": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrInvalidOAuthState
	}
	return nil
}
