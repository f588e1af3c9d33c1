package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// SanctionStore keeps outstanding sanctions in the "sanctions" collection.
// Writes are never queued offline: the caller must know whether a row exists.
type SanctionStore struct {
	db *Database
}

var _ sanctions.Store = (*SanctionStore)(nil)

// NewSanctionStore creates a store over db
func NewSanctionStore(db *Database) *SanctionStore {
	return &SanctionStore{db: db}
}

// byExpiry is the order every list query returns
var byExpiry = bson.D{{Key: "expiresAt", Value: 1}, {Key: "_id", Value: 1}}

func (s *SanctionStore) Insert(ctx context.Context, row *models.Sanction) error {
	col, err := s.db.collection(SanctionsCollection)
	if err != nil {
		return err
	}
	_, err = col.InsertOne(ctx, row)
	return err
}

func (s *SanctionStore) Get(ctx context.Context, id string) (*models.Sanction, error) {
	col, err := s.db.collection(SanctionsCollection)
	if err != nil {
		return nil, err
	}
	var row models.Sanction
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&row); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sanctions.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (s *SanctionStore) Delete(ctx context.Context, id string) (bool, error) {
	col, err := s.db.collection(SanctionsCollection)
	if err != nil {
		return false, err
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (s *SanctionStore) Expired(ctx context.Context, guildID string, now time.Time) ([]models.Sanction, error) {
	return s.find(ctx, bson.M{"guildId": guildID, "expiresAt": bson.M{"$lte": now}})
}

func (s *SanctionStore) CountWarnings(ctx context.Context, guildID, subjectID string) (int, error) {
	col, err := s.db.collection(SanctionsCollection)
	if err != nil {
		return 0, err
	}
	n, err := col.CountDocuments(ctx, warningFilter(guildID, subjectID))
	return int(n), err
}

func (s *SanctionStore) ListForSubject(ctx context.Context, guildID, subjectID string, kind models.SanctionKind) ([]models.Sanction, error) {
	filter := bson.M{"guildId": guildID, "subjectId": subjectID}
	if kind != "" {
		filter["kind"] = kind
	}
	return s.find(ctx, filter)
}

func (s *SanctionStore) ListForGuild(ctx context.Context, guildID string) ([]models.Sanction, error) {
	return s.find(ctx, bson.M{"guildId": guildID})
}

func (s *SanctionStore) find(ctx context.Context, filter bson.M) ([]models.Sanction, error) {
	col, err := s.db.collection(SanctionsCollection)
	if err != nil {
		return nil, err
	}
	cursor, err := col.Find(ctx, filter, options.Find().SetSort(byExpiry))
	if err != nil {
		return nil, err
	}
	var rows []models.Sanction
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sanctions: %w", err)
	}
	return rows, nil
}

// warningFilter matches outstanding warnings; an empty guildID spans guilds
func warningFilter(guildID, subjectID string) bson.M {
	filter := bson.M{"kind": models.KindWarning, "subjectId": subjectID}
	if guildID != "" {
		filter["guildId"] = guildID
	}
	return filter
}
