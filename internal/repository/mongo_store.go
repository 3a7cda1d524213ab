package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aisurvey/internal/survey"
)

type mongoStore struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewMongoStore creates a store keeping one document per row, fields in
// column order.
func NewMongoStore(db *mongo.Database, collection string) ResponseStore {
	return &mongoStore{
		db:         db,
		collection: db.Collection(collection),
	}
}

// EnsureIndexes creates the unique session id index.
func EnsureIndexes(ctx context.Context, store ResponseStore) error {
	m, ok := store.(*mongoStore)
	if !ok {
		return nil
	}
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: survey.ColumnID, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create response index: %w", err)
	}
	return nil
}

func (r *mongoStore) Append(ctx context.Context, rec survey.Record) error {
	_, err := r.collection.InsertOne(ctx, recordDoc(rec))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateResponse
	}
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}
	return nil
}

func (r *mongoStore) Exists(ctx context.Context) (bool, error) {
	names, err := r.db.ListCollectionNames(ctx, bson.M{"name": r.collection.Name()})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	return len(names) > 0, nil
}

func (r *mongoStore) ReadAll(ctx context.Context) (*Table, error) {
	opts := options.Find().SetSort(bson.D{{Key: survey.ColumnSubmittedAt, Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer cursor.Close(ctx)

	t := &Table{Columns: []string{}, Rows: [][]string{}}
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		cols, cells := docRow(doc)
		t.AddRow(cols, cells)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func recordDoc(rec survey.Record) bson.D {
	doc := make(bson.D, 0, len(rec.Columns))
	for _, c := range rec.Columns {
		doc = append(doc, bson.E{Key: c, Value: rec.Values[c]})
	}
	return doc
}

func docRow(doc bson.D) ([]string, []string) {
	cols := make([]string, 0, len(doc))
	cells := make([]string, 0, len(doc))
	for _, e := range doc {
		if e.Key == "_id" {
			continue
		}
		cols = append(cols, e.Key)
		cells = append(cells, survey.FormatCell(e.Value))
	}
	return cols, cells
}
