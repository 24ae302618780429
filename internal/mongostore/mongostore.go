// Package mongostore keeps the cart backup tier in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"techstore/internal/cart"
)

const Collection = "cart_backups"

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(20)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(database), nil
}

type snapshotDoc struct {
	SessionID string    `bson:"_id"`
	Version   int64     `bson:"version"`
	Payload   string    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type BackupTier struct {
	collection *mongo.Collection
}

func NewBackupTier(db *mongo.Database) *BackupTier {
	return &BackupTier{collection: db.Collection(Collection)}
}

func (b *BackupTier) Name() string { return "backup.mongo" }

func (b *BackupTier) Load(ctx context.Context, key string) ([]byte, error) {
	var doc snapshotDoc
	err := b.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cart.ErrMiss
		}
		return nil, fmt.Errorf("failed to load backup: %w", err)
	}
	return []byte(doc.Payload), nil
}

// Save upserts unless a newer version is already stored.
func (b *BackupTier) Save(ctx context.Context, key string, version int64, payload []byte) error {
	filter := bson.M{"_id": key, "version": bson.M{"$lte": version}}
	update := bson.M{"$set": bson.M{"version": version, "payload": string(payload), "updated_at": time.Now().UTC()}}
	_, err := b.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// a newer record holds the _id; the filter missed it and the upsert collided
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save backup: %w", err)
	}
	return nil
}

func (b *BackupTier) Delete(ctx context.Context, key string) error {
	if _, err := b.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}
