// Package mongo implements the user store on MongoDB.
package mongo

import (
	"context"
	"fmt"

	"github.com/msomdec/approval-gate/internal/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// DB wraps a MongoDB client bound to one database.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

var _ domain.Store = (*DB)(nil)

// New connects to uri and verifies the deployment is reachable.
func New(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &DB{client: client, database: client.Database(database)}, nil
}

// Migrate ensures the unique and pending-lookup indexes exist.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.database.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("phone_number_unique"),
		},
		{
			Keys:    bson.D{{Key: "is_approved", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("pending"),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (d *DB) Close() error {
	return d.client.Disconnect(context.Background())
}

// Users returns the MongoDB-backed user repository.
func (d *DB) Users() domain.UserRepository {
	return NewUserRepository(d.database.Collection(usersCollection))
}
