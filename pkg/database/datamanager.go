package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const opTimeout = 5 * time.Second

// CacheOptions sizes the read cache of a DataManager
type CacheOptions struct {
	Size int
	TTL  time.Duration
}

// DataManager reads documents of one collection by _id through an expiring
// LRU. Absent documents are cached too, as nil. Upserts and deletes made
// while offline are queued on the Database.
type DataManager[T any] struct {
	name  string
	db    *Database
	cache *expirable.LRU[string, *T]
}

// NewDataManager creates a manager for collection. The cache holds 1000
// documents for ten minutes unless opts says otherwise.
func NewDataManager[T any](collection string, db *Database, opts ...CacheOptions) *DataManager[T] {
	o := CacheOptions{Size: 1000, TTL: 10 * time.Minute}
	if len(opts) > 0 {
		o = opts[0]
	}
	logger.Debug(fmt.Sprintf("Caché de '%s': %d documentos, ttl %s", collection, o.Size, o.TTL), "DataManager")
	return &DataManager[T]{
		name:  collection,
		db:    db,
		cache: expirable.NewLRU[string, *T](o.Size, nil, o.TTL),
	}
}

// Get returns the document with id, or (nil, nil) when there is none
func (dm *DataManager[T]) Get(ctx context.Context, id string) (*T, error) {
	if doc, ok := dm.cache.Get(id); ok {
		return doc, nil
	}
	col, err := dm.db.collection(dm.name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc T
	err = col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		dm.cache.Add(id, nil)
		return nil, nil
	case err != nil:
		logger.Warn(fmt.Sprintf("Fallo al leer %s/%s: %v", dm.name, id, err), "DataManager")
		return nil, err
	}
	dm.cache.Add(id, &doc)
	return &doc, nil
}

// Upsert applies set to the document with id and returns the result. Offline
// the write is queued and (nil, nil) is returned.
func (dm *DataManager[T]) Upsert(ctx context.Context, id string, set bson.M) (*T, error) {
	dm.cache.Remove(id)
	write := pendingWrite{collection: dm.name, filter: bson.M{"_id": id}, op: opUpsert, set: set}

	col, err := dm.db.collection(dm.name)
	if err != nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando escritura de %s/%s", dm.name, id), "DataManager")
		dm.db.pending.push(write)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc T
	if err := col.FindOneAndUpdate(ctx, write.filter, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("upsert %s/%s: %w", dm.name, id, err)
	}
	dm.cache.Add(id, &doc)
	return &doc, nil
}

// Delete removes the document with id. Offline the delete is queued.
func (dm *DataManager[T]) Delete(ctx context.Context, id string) error {
	dm.cache.Remove(id)
	write := pendingWrite{collection: dm.name, filter: bson.M{"_id": id}, op: opDelete}

	col, err := dm.db.collection(dm.name)
	if err != nil {
		logger.Warn(fmt.Sprintf("DB offline. Encolando eliminación de %s/%s", dm.name, id), "DataManager")
		dm.db.pending.push(write)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	_, err = col.DeleteOne(ctx, write.filter)
	return err
}
