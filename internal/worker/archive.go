// Package worker runs background jobs fed by the Redis queue.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/classroom/internal/coordinator"
	"github.com/aura-webinar/classroom/internal/models"
	"github.com/aura-webinar/classroom/internal/store"
	"github.com/aura-webinar/classroom/pkg/queue"
	"github.com/aura-webinar/classroom/pkg/storage"
)

// Blobs is the archive bucket as the processor sees it.
type Blobs interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Jobs is the queue side the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Enqueuer accepts archive jobs.
type Enqueuer interface {
	EnqueueRoomArchive(ctx context.Context, payload queue.RoomArchivePayload) error
}

// ArchiveProcessor uploads the final snapshot of closed rooms to object storage.
type ArchiveProcessor struct {
	rooms   store.Store
	blobs   Blobs
	jobs    Jobs
	logger  *zap.Logger
	backoff time.Duration
}

// NewArchiveProcessor creates a room archive processor.
func NewArchiveProcessor(rooms store.Store, blobs Blobs, jobs Jobs, logger *zap.Logger) *ArchiveProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveProcessor{rooms: rooms, blobs: blobs, jobs: jobs, logger: logger, backoff: queue.RetryBackoff}
}

// Process executes one archive job. Re-running a job for an already uploaded
// version is a no-op.
func (p *ArchiveProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeRoomArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.RoomArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	room, err := p.rooms.Get(ctx, payload.RoomID)
	if err != nil {
		return fmt.Errorf("load room %s: %w", payload.RoomID, err)
	}
	if room == nil || !room.IsClosed() {
		p.logger.Warn("skipping archive of missing or active room", zap.String("room_id", payload.RoomID))
		return nil
	}

	key := storage.ArchiveKey(room.ID, room.Version)
	exists, err := p.blobs.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		p.logger.Info("room already archived", zap.String("room_id", room.ID), zap.String("key", key))
		return nil
	}
	doc, err := json.Marshal(archiveDocument(room))
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	if err := p.blobs.Upload(ctx, key, "application/json", bytes.NewReader(doc)); err != nil {
		return err
	}
	p.logger.Info("room archived", zap.String("room_id", room.ID), zap.Int64("version", room.Version), zap.String("key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ArchiveProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("archive worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

// archiveDocument is the stored form of a closed room. Notes are private to
// their authors and never leave the room document.
func archiveDocument(room *models.Room) *models.Room {
	doc := room.Clone()
	doc.Notes = nil
	return doc
}

func (p *ArchiveProcessor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.backoff):
	}
}

const enqueueTimeout = 5 * time.Second

// EnqueueOnClose returns a commit hook that schedules an archive job when a room
// transitions to closed.
func EnqueueOnClose(q Enqueuer, logger *zap.Logger) coordinator.CommitHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, c coordinator.Commit) {
		if c.After == nil || !c.After.IsClosed() || (c.Before != nil && c.Before.IsClosed()) {
			return
		}
		// The close request may finish before the enqueue does.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
		defer cancel()
		payload := queue.RoomArchivePayload{RoomID: c.RoomID, Version: c.After.Version}
		if err := q.EnqueueRoomArchive(ctx, payload); err != nil {
			logger.Error("enqueue room archive", zap.String("room_id", c.RoomID), zap.Error(err))
		}
	}
}
