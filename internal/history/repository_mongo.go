package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nutriscan/nutriscan/internal/product"
)

// CollectionName is the MongoDB collection holding scan records.
const CollectionName = "scan_histories"

var _ Repository = (*MongoRepository)(nil)

// MongoRepository stores scans in a MongoDB collection.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type scanDocument struct {
	ID            primitive.ObjectID    `bson:"_id,omitempty"`
	Barcode       string                `bson:"barcode"`
	ProductName   string                `bson:"productName"`
	Brands        string                `bson:"brands"`
	ImageURL      string                `bson:"imageUrl,omitempty"`
	HealthScore   int                   `bson:"healthScore"`
	NutriScore    string                `bson:"nutriScore"`
	NutritionData product.NutritionData `bson:"nutritionData"`
	ScannedAt     time.Time             `bson:"scannedAt"`
	UserID        string                `bson:"userId,omitempty"`
	CreatedAt     time.Time             `bson:"createdAt"`
	UpdatedAt     time.Time             `bson:"updatedAt"`
}

// NewMongoRepository binds the repository to database.
func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{
		client: client,
		coll:   client.Database(database).Collection(CollectionName),
	}
}

// EnsureIndexes creates the listing indexes if they are missing.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "scannedAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "scannedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("history: create indexes: %w", err)
	}
	return nil
}

// Insert stores record and returns it with the generated id.
func (r *MongoRepository) Insert(ctx context.Context, record Record) (Record, error) {
	doc := toDocument(record)
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return Record{}, fmt.Errorf("history: insert: %w", err)
	}
	return fromDocument(doc), nil
}

// List returns up to limit records, newest first.
func (r *MongoRepository) List(ctx context.Context, limit int) ([]Record, error) {
	cursor, err := r.coll.Find(ctx, bson.D{}, listOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("history: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []scanDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("history: decode: %w", err)
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromDocument(doc))
	}
	return records, nil
}

// Delete removes the record with id. Unknown and malformed ids are no-ops.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	return nil
}

// RecentBarcodes returns the distinct barcodes of the latest scans.
func (r *MongoRepository) RecentBarcodes(ctx context.Context, limit int) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$barcode"},
			{Key: "last", Value: bson.D{{Key: "$max", Value: "$scannedAt"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("history: aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Barcode string `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("history: decode: %w", err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Barcode)
	}
	return out, nil
}

// DeleteBefore removes records scanned before cutoff.
func (r *MongoRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"scannedAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.DeletedCount, nil
}

// Ping checks that the primary is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("history: mongo client not configured")
	}
	return r.client.Ping(ctx, readpref.Primary())
}

func listOptions(limit int) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "scannedAt", Value: -1}}).
		SetLimit(int64(limit))
}

func toDocument(r Record) scanDocument {
	return scanDocument{
		Barcode:       r.Barcode,
		ProductName:   r.ProductName,
		Brands:        r.Brands,
		ImageURL:      r.ImageURL,
		HealthScore:   r.HealthScore,
		NutriScore:    r.NutriScore,
		NutritionData: r.NutritionData,
		ScannedAt:     r.ScannedAt,
		UserID:        r.UserID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromDocument(d scanDocument) Record {
	return Record{
		ID:            d.ID.Hex(),
		Barcode:       d.Barcode,
		ProductName:   d.ProductName,
		Brands:        d.Brands,
		ImageURL:      d.ImageURL,
		HealthScore:   d.HealthScore,
		NutriScore:    d.NutriScore,
		NutritionData: d.NutritionData,
		ScannedAt:     d.ScannedAt,
		UserID:        d.UserID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
