package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/config"
)

// Collection names in the community store.
const (
	UsersCollection       = "users"
	PublicMealsCollection = "public_meals"
	LikesCollection       = "recipe_likes"
	RatingsCollection     = "recipe_ratings"
	FollowsCollection     = "follows"
)

// Mongo wraps the community document store connection.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// NewMongo connects to the community store and ensures its indexes.
func NewMongo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m := &Mongo{
		client: client,
		db:     client.Database(cfg.MongoDB),
		log:    log.Named("mongodb"),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	m.log.Info("connected to community store", zap.String("database", cfg.MongoDB))
	return m, nil
}

// NewMongoFromClient wraps an existing client; used by tests.
func NewMongoFromClient(client *mongo.Client, dbName string, log *zap.Logger) (*Mongo, error) {
	m := &Mongo{
		client: client,
		db:     client.Database(dbName),
		log:    log.Named("mongodb"),
	}
	return m, m.ensureIndexes(context.Background())
}

// ensureIndexes creates the uniqueness constraints the social graph relies
// on: one like and one rating per (meal, user), one follow edge per pair,
// unique email and username per account.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		LikesCollection: {{
			Keys:    bson.D{{Key: "meal_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		RatingsCollection: {{
			Keys:    bson.D{{Key: "meal_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		FollowsCollection: {{
			Keys:    bson.D{{Key: "follower_id", Value: 1}, {Key: "followed_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		PublicMealsCollection: {{
			Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "created_at", Value: -1}},
		}},
	}
	for name, models := range indexes {
		if _, err := m.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// Disconnect closes the MongoDB connection
func (m *Mongo) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	m.log.Info("closing MongoDB connection")
	return m.client.Disconnect(ctx)
}

// Collection returns a MongoDB collection
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Client returns the MongoDB client
func (m *Mongo) Client() *mongo.Client {
	return m.client
}
