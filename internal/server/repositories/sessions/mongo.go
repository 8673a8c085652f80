// Package sessions stores SyncSession state in a MongoDB collection.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/server/models"
)

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, session *models.SyncSession) error {
	if _, err := r.col.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, ownerID, id string) (*models.SyncSession, error) {
	session := &models.SyncSession{}
	err := r.col.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

// UpdatePending conditions the write on completed == false so a late
// writer cannot reopen a completed session.
func (r *MongoRepository) UpdatePending(ctx context.Context, ownerID, id string, pending map[string]string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID, "completed": false},
		bson.M{"$set": bson.M{
			"pending":      pending,
			"last_updated": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("update session pending: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrConflict
	}
	return nil
}

// Complete is the terminal transition. The completed == false filter makes
// it idempotent under races: at most one caller matches, the rest observe
// ErrConflict and re-read.
func (r *MongoRepository) Complete(ctx context.Context, ownerID, id string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID, "completed": false},
		bson.M{"$set": bson.M{
			"completed":    true,
			"pending":      map[string]string{},
			"completed_at": at,
			"last_updated": at,
		}},
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrConflict
	}
	return nil
}
