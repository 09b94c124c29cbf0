package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aura-webinar/classroom/internal/models"
)

const (
	redisRoomPrefix = "classroom:room:"
	// redisActiveKey is a sorted set of active room ids scored by last activity (unix ms).
	redisActiveKey = "classroom:rooms:active"

	fieldVersion  = "version"
	fieldDocument = "document"
)

// Redis keeps each room as a hash {version, document} and indexes active rooms for the sweeper.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func roomKey(roomID string) string { return redisRoomPrefix + roomID }

func (r *Redis) Get(ctx context.Context, roomID string) (*models.Room, error) {
	doc, err := r.client.HGet(ctx, roomKey(roomID), fieldDocument).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget room: %w", err)
	}
	var room models.Room
	if err := json.Unmarshal(doc, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

func (r *Redis) Save(ctx context.Context, room *models.Room, prevVersion int64) error {
	doc, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	key := roomKey(room.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldVersion).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return fmt.Errorf("hget version: %w", err)
		}
		if current != prevVersion {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldVersion, strconv.FormatInt(room.Version, 10), fieldDocument, doc)
			if room.IsClosed() {
				pipe.ZRem(ctx, redisActiveKey, room.ID)
			} else {
				pipe.ZAdd(ctx, redisActiveKey, redis.Z{Score: float64(room.LastActivityAt.UnixMilli()), Member: room.ID})
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil && !errors.Is(err, ErrVersionConflict) {
		return fmt.Errorf("save room: %w", err)
	}
	return err
}

func (r *Redis) ListIdle(ctx context.Context, before time.Time, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 1000
	}
	entries, err := r.client.ZRangeByScoreWithScores(ctx, redisActiveKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(before.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore: %w", err)
	}
	list := make([]Summary, 0, len(entries))
	for _, e := range entries {
		id, _ := e.Member.(string)
		list = append(list, Summary{RoomID: id, LastActivityAt: time.UnixMilli(int64(e.Score)).UTC()})
	}
	return list, nil
}
