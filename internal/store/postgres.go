package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/classroom/internal/models"
)

// Postgres keeps each room as one JSONB row in classroom_rooms.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store. The schema comes from database.Migrate.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, roomID string) (*models.Room, error) {
	const q = `SELECT document FROM classroom_rooms WHERE id = $1`
	var doc []byte
	err := p.pool.QueryRow(ctx, q, roomID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select room: %w", err)
	}
	var room models.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

func (p *Postgres) Save(ctx context.Context, room *models.Room, prevVersion int64) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	if prevVersion == 0 {
		const q = `INSERT INTO classroom_rooms (id, version, status, last_activity_at, document)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`
		tag, err := p.pool.Exec(ctx, q, room.ID, room.Version, room.Status, room.LastActivityAt, doc)
		if err != nil {
			return fmt.Errorf("insert room: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	}
	const q = `UPDATE classroom_rooms
		SET version = $2, status = $3, last_activity_at = $4, document = $5, updated_at = NOW()
		WHERE id = $1 AND version = $6`
	tag, err := p.pool.Exec(ctx, q, room.ID, room.Version, room.Status, room.LastActivityAt, doc, prevVersion)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (p *Postgres) ListIdle(ctx context.Context, before time.Time, limit int) ([]Summary, error) {
	const q = `SELECT id, last_activity_at FROM classroom_rooms
		WHERE status = $1 AND last_activity_at < $2
		ORDER BY last_activity_at, id
		LIMIT $3`
	if limit <= 0 {
		limit = 1000
	}
	rows, err := p.pool.Query(ctx, q, models.RoomStatusActive, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list idle rooms: %w", err)
	}
	defer rows.Close()

	var list []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.RoomID, &s.LastActivityAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
