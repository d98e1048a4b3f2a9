package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoDB wraps the driver client/database pair the History sink and
// viewer-auth OAuth state store read and write. Collection set is
// pruned to exactly what SPEC_FULL §4.6/§4.7 need: there is no
// Users/RefreshTokens/MatchHistory/MatchmakingQueue/ApiKeys set
// because the features that wrote to them (local accounts, ranked
// matchmaking, Elo) are Non-goals.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	logger   *zap.Logger
}

func NewMongoDB(uri, database string, logger *zap.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(500).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := &MongoDB{
		Client:   client,
		Database: client.Database(database),
		logger:   logger,
	}

	go db.ensureIndexes()

	return db, nil
}

// Ping verifies the Mongo connection is reachable, for the detailed
// health check.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// ensureIndexes creates all required indexes. Called once on startup.
func (m *MongoDB) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	indexes := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			"games",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "roomId", Value: 1}}},
				{Keys: bson.D{{Key: "finishedAt", Value: -1}}},
			},
		},
		{
			"moves",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "moveNumber", Value: 1}}},
			},
		},
		{
			"audit_log",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(90 * 24 * 3600)},
				{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "createdAt", Value: -1}}},
			},
		},
		{
			"oauth_states",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
			},
		},
	}

	for _, idx := range indexes {
		coll := m.Database.Collection(idx.collection)
		_, err := coll.Indexes().CreateMany(ctx, idx.models)
		if err != nil && m.logger != nil {
			m.logger.Warn("index_create_failed", zap.String("collection", idx.collection), zap.Error(err))
		}
	}

	if m.logger != nil {
		m.logger.Info("database_indexes_ensured")
	}
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) Games() *mongo.Collection { return m.Database.Collection("games") }
func (m *MongoDB) Moves() *mongo.Collection { return m.Database.Collection("moves") }

func (m *MongoDB) AuditLog() *mongo.Collection    { return m.Database.Collection("audit_log") }
func (m *MongoDB) OAuthStates() *mongo.Collection { return m.Database.Collection("oauth_states") }
