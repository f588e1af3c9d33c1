package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

type writeOp int

const (
	opUpsert writeOp = iota
	opDelete
)

// pendingWrite is a write accepted while offline
type pendingWrite struct {
	collection string
	filter     bson.M
	op         writeOp
	set        interface{}
}

// writeQueue buffers pendingWrites in arrival order
type writeQueue struct {
	mu     sync.Mutex
	writes []pendingWrite
}

func (q *writeQueue) push(w pendingWrite) {
	q.mu.Lock()
	q.writes = append(q.writes, w)
	q.mu.Unlock()
}

func (q *writeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.writes)
}

func (q *writeQueue) drain() []pendingWrite {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.writes
	q.writes = nil
	return out
}

// replay applies every queued write against d. Failures go back on the queue
// behind anything queued in the meantime.
func (q *writeQueue) replay(d *Database) {
	writes := q.drain()
	if len(writes) == 0 {
		return
	}
	logger.System(fmt.Sprintf("Sincronizando %d operaciones pendientes con la DB...", len(writes)), "DB-Sync")

	var failed []pendingWrite
	for _, w := range writes {
		if err := w.apply(d); err != nil {
			logger.Error(fmt.Sprintf("No se pudo sincronizar '%s': %v", w.collection, err), "DB-Sync")
			failed = append(failed, w)
		}
	}
	for _, w := range failed {
		q.push(w)
	}
	if len(failed) > 0 {
		logger.Warn(fmt.Sprintf("%d operaciones se reintentarán en la próxima conexión.", len(failed)), "DB-Sync")
		return
	}
	logger.Success("Sincronización completada.", "DB-Sync")
}

func (w pendingWrite) apply(d *Database) error {
	col, err := d.collection(w.collection)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch w.op {
	case opDelete:
		_, err = col.DeleteOne(ctx, w.filter)
	default:
		_, err = col.UpdateOne(ctx, w.filter, bson.M{"$set": w.set}, options.Update().SetUpsert(true))
	}
	return err
}
