package utils

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUniqueIndex creates a unique index on the specified collection and keys.
// Sparse indexes skip documents missing the field, which is what the optional
// google_id binding needs.
func CreateUniqueIndex(ctx context.Context, collection *mongo.Collection, keys interface{}, fieldName string, sparse bool) error {
	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true).SetSparse(sparse),
	}

	_, err := collection.Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		return fmt.Errorf("failed to create index for %s: %w", fieldName, err)
	}
	return nil
}
