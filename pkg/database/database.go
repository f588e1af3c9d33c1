// Package database provides the MongoDB connection, the offline write queue and
// the collection-backed stores used by the moderation core.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// Collection names
const (
	SanctionsCollection = "sanctions"
	HistoryCollection   = "sanction_history"
	SettingsCollection  = "GuildSettings"
)

const (
	dialTimeout   = 5 * time.Second
	retryInterval = 15 * time.Second
)

// ErrOffline is returned by reads and by writes that cannot be queued while
// the connection is down.
var ErrOffline = errors.New("database not connected")

// Database owns the MongoDB client. It starts offline, and while offline it
// keeps redialing in the background and buffers queueable writes.
type Database struct {
	mu     sync.RWMutex
	client *mongo.Client
	db     *mongo.Database

	pending *writeQueue

	redialing bool
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewDatabase creates a disconnected Database
func NewDatabase() *Database {
	return &Database{
		pending: &writeQueue{},
		stop:    make(chan struct{}),
	}
}

// Connect dials MongoDB. On failure the error is returned and redialing
// continues in the background until Disconnect.
func (d *Database) Connect(ctx context.Context, uri, name string) error {
	if err := d.dial(ctx, uri, name); err != nil {
		logger.Warn("Sin conexión con la base de datos. Activando modo offline.", "DB")
		d.redial(uri, name)
		return err
	}
	return nil
}

func (d *Database) dial(ctx context.Context, uri, name string) error {
	if d.Connected() {
		return nil
	}
	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(dialTimeout))
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos: "+err.Error(), "DB")
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Critical("La base de datos no respondió al ping: "+err.Error(), "DB")
		_ = client.Disconnect(context.Background())
		return err
	}

	d.mu.Lock()
	d.client, d.db = client, client.Database(name)
	d.mu.Unlock()
	logger.Success("Conectado a la base de datos "+name, "DB")

	go d.ready()
	return nil
}

// ready runs after every successful dial
func (d *Database) ready() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.EnsureIndexes(ctx); err != nil {
		logger.Warn("No se pudieron crear los índices: "+err.Error(), "DB")
	}
	d.pending.replay(d)
}

func (d *Database) redial(uri, name string) {
	d.mu.Lock()
	if d.redialing {
		d.mu.Unlock()
		return
	}
	d.redialing = true
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(retryInterval)
		defer ticker.Stop()
		defer func() {
			d.mu.Lock()
			d.redialing = false
			d.mu.Unlock()
		}()
		for {
			select {
			case <-d.stop:
				return
			case <-ticker.C:
				if d.dial(context.Background(), uri, name) == nil {
					return
				}
			}
		}
	}()
}

// Connected reports whether a client is live
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db != nil
}

// collection resolves name or fails with ErrOffline
func (d *Database) collection(name string) (*mongo.Collection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, ErrOffline
	}
	return d.db.Collection(name), nil
}

// EnsureIndexes creates the indexes the sweep and the warning count rely on
func (d *Database) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		SanctionsCollection: {
			{Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "expiresAt", Value: 1}}},
			{Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "kind", Value: 1}}},
		},
		HistoryCollection: {
			{Keys: bson.D{{Key: "guildId", Value: 1}, {Key: "subjectId", Value: 1}, {Key: "recordedAt", Value: -1}}},
		},
	}
	for name, models := range indexes {
		col, err := d.collection(name)
		if err != nil {
			return err
		}
		if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s indexes: %w", name, err)
		}
	}
	logger.System("Índices de sanciones verificados.", "DB")
	return nil
}

// Disconnect stops redialing and closes the client
func (d *Database) Disconnect(ctx context.Context) error {
	d.stopOnce.Do(func() { close(d.stop) })

	d.mu.Lock()
	client := d.client
	d.client, d.db = nil, nil
	d.mu.Unlock()
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return err
	}
	logger.Warn("La base de datos ha sido desconectada", "DB")
	return nil
}

// Ping measures the round trip to the primary
func (d *Database) Ping(ctx context.Context) (time.Duration, error) {
	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()
	if client == nil {
		return 0, ErrOffline
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	start := time.Now()
	err := client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// GetStatus renders the connection state for status embeds
func (d *Database) GetStatus(ctx context.Context) (string, bool) {
	if _, err := d.Ping(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// QueueLen returns the number of writes waiting for a connection
func (d *Database) QueueLen() int {
	return d.pending.len()
}
