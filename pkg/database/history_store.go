package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/sanctions"
)

// HistoryStore appends lifecycle events to the "sanction_history" collection
type HistoryStore struct {
	db *Database
}

var _ sanctions.History = (*HistoryStore)(nil)

// NewHistoryStore creates a history store over db
func NewHistoryStore(db *Database) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append inserts e. Offline it is queued like any other write.
func (h *HistoryStore) Append(ctx context.Context, e models.SanctionHistoryEntry) error {
	col, err := h.db.collection(HistoryCollection)
	if err != nil {
		h.db.pending.push(pendingWrite{
			collection: HistoryCollection,
			filter:     bson.M{"_id": e.ID},
			op:         opUpsert,
			set:        e,
		})
		return nil
	}
	_, err = col.InsertOne(ctx, e)
	return err
}

// ForSubject returns up to limit entries, newest first. limit <= 0 returns all.
func (h *HistoryStore) ForSubject(ctx context.Context, guildID, subjectID string, limit int) ([]models.SanctionHistoryEntry, error) {
	col, err := h.db.collection(HistoryCollection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := col.Find(ctx, bson.M{"guildId": guildID, "subjectId": subjectID}, opts)
	if err != nil {
		return nil, err
	}
	var out []models.SanctionHistoryEntry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
