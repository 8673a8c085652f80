// Package files stores FileRecord metadata in a MongoDB collection.
package files

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/server/models"
)

// MongoRepository implements Repository over a mongo collection. All
// filters are plain equality filters including owner_id.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, record *models.FileRecord) error {
	if _, err := r.col.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

func (r *MongoRepository) InsertMany(ctx context.Context, records []*models.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec)
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert file records: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, ownerID, id string) (*models.FileRecord, error) {
	record := &models.FileRecord{}
	err := r.col.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("find file record: %w", err)
	}
	return record, nil
}

func (r *MongoRepository) List(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.FileRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode file records: %w", err)
	}
	return records, nil
}

func (r *MongoRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("count file records: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) UpdateFields(ctx context.Context, ownerID, id string, update models.FileUpdate) error {
	set := bson.M{}
	if update.FileName != nil {
		set["file_name"] = *update.FileName
	}
	if update.Size != nil {
		set["size"] = *update.Size
	}
	if update.Checksum != nil {
		set["checksum"] = *update.Checksum
	}
	if update.LastUpdated != nil {
		set["last_updated"] = *update.LastUpdated
	}
	if len(set) == 0 {
		return nil
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "owner_id": ownerID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update file record: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) BulkUpsert(ctx context.Context, records []*models.FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": rec.ID, "owner_id": rec.OwnerID}).
			SetReplacement(rec).
			SetUpsert(true))
	}
	// the updates are independent, order does not matter
	_, err := r.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("bulk upsert file records: %w", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}
