// Package mongo implements the configuration store ports on a MongoDB
// database. Each collection holds at most one active document.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activeID is the fixed _id of the single active document in each collection.
// Replacing by a fixed _id is a single-document atomic write, so readers see
// either the previous document or the new one.
const activeID = "active"

const (
	credentialCollection = "wp_config"
	analyticsCollection  = "analytics_config"
)

// Store owns the MongoDB client and database handle.
type Store struct {
	client *mongodriver.Client
	db     *mongodriver.Database
}

// Connect dials uri, verifies the connection and selects database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// findActive decodes the active document of coll into out. It reports false
// when the collection has no active document.
func (s *Store) findActive(ctx context.Context, coll string, out any) (bool, error) {
	err := s.db.Collection(coll).FindOne(ctx, bson.M{"_id": activeID}).Decode(out)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find %s: %w", coll, err)
	}
	return true, nil
}

// replaceActive upserts doc as the active document of coll and then removes
// any other document, such as records written by earlier deployments.
func (s *Store) replaceActive(ctx context.Context, coll string, doc any) error {
	c := s.db.Collection(coll)

	if _, err := c.ReplaceOne(ctx, bson.M{"_id": activeID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("replace %s: %w", coll, err)
	}
	if _, err := c.DeleteMany(ctx, bson.M{"_id": bson.M{"$ne": activeID}}); err != nil {
		return fmt.Errorf("prune %s: %w", coll, err)
	}
	return nil
}
