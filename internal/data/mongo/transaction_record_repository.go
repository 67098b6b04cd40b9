package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/banquito-core-processor/internal/domain/audit"
)

const (
	// TransactionRecordCollectionName is the name of the transaction journal collection in MongoDB
	TransactionRecordCollectionName = "transaction_records"
)

// TransactionRecordRepository implements the audit.Repository interface for MongoDB
type TransactionRecordRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewTransactionRecordRepository creates a new MongoDB transaction record repository
func NewTransactionRecordRepository(logger *slog.Logger, db *mongo.Database) *TransactionRecordRepository {
	return &TransactionRecordRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the lookup indexes used by the query endpoints
func (r *TransactionRecordRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(TransactionRecordCollectionName)

	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "unique_code", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "card_bank_swift", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		r.logger.Error("Failed to create transaction record indexes", "error", err)
		return fmt.Errorf("failed to create transaction record indexes: %w", err)
	}
	return nil
}

// Create appends a record to the journal. A unique code may appear more than once.
func (r *TransactionRecordRepository) Create(ctx context.Context, record *audit.Record) error {
	collection := r.db.Collection(TransactionRecordCollectionName)

	_, err := collection.InsertOne(ctx, record)
	if err != nil {
		r.logger.Error("Failed to create transaction record",
			"unique_code", record.UniqueCode,
			"record_id", record.RecordID.String(),
			"error", err)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// GetByUniqueCode returns the most recent record for a unique code.
// Returns ErrRecordNotFound if the code was never processed.
func (r *TransactionRecordRepository) GetByUniqueCode(ctx context.Context, uniqueCode string) (*audit.Record, error) {
	collection := r.db.Collection(TransactionRecordCollectionName)

	filter := bson.M{"unique_code": uniqueCode}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var record audit.Record
	err := collection.FindOne(ctx, filter, opts).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrRecordNotFound{UniqueCode: uniqueCode}
		}
		r.logger.Error("Failed to get transaction record",
			"unique_code", uniqueCode,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}

	return &record, nil
}

// GetByBankSwift retrieves paginated records for a card issuer, newest first
func (r *TransactionRecordRepository) GetByBankSwift(ctx context.Context, bankSwift string, limit, offset int) ([]*audit.Record, error) {
	collection := r.db.Collection(TransactionRecordCollectionName)

	filter := bson.M{"card_bank_swift": bankSwift}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get transaction records",
			"bank_swift", bankSwift,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction records: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]*audit.Record, 0)
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode transaction records",
			"bank_swift", bankSwift,
			"error", err)
		return nil, fmt.Errorf("failed to decode transaction records: %w", err)
	}

	return records, nil
}

// CountByBankSwift counts the records for a card issuer
func (r *TransactionRecordRepository) CountByBankSwift(ctx context.Context, bankSwift string) (int64, error) {
	collection := r.db.Collection(TransactionRecordCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"card_bank_swift": bankSwift})
	if err != nil {
		r.logger.Error("Failed to count transaction records",
			"bank_swift", bankSwift,
			"error", err)
		return 0, fmt.Errorf("failed to count transaction records: %w", err)
	}

	return count, nil
}
