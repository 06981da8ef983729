package mongodb

import (
	"context"
	"errors"
	"fmt"

	"unicarpool/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor, what string) ([]*T, error) {
	defer cursor.Close(ctx)

	items := make([]*T, 0)
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", what, err)
		}
		items = append(items, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return items, nil
}

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter interface{}, what string) (*T, error) {
	var item T
	err := collection.FindOne(ctx, filter).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return &item, nil
}

// casUpdate applies update only when filter (which must include _id) still
// matches, distinguishing a missing document from one in another state.
func casUpdate[T any](ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, filter bson.M, update bson.M, what string) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item T
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update %s: %w", what, err)
	}

	count, err := collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", what, err)
	}
	if count == 0 {
		return nil, interfaces.ErrNotFound
	}
	return nil, interfaces.ErrConflict
}
