package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aura-webinar/classroom/internal/models"
)

// Memory is a process-local Store for single-instance deployments and tests.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]*models.Room)}
}

func (m *Memory) Get(_ context.Context, roomID string) (*models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID].Clone(), nil
}

func (m *Memory) Save(_ context.Context, room *models.Room, prevVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current int64
	if r, ok := m.rooms[room.ID]; ok {
		current = r.Version
	}
	if current != prevVersion {
		return ErrVersionConflict
	}
	m.rooms[room.ID] = room.Clone()
	return nil
}

func (m *Memory) ListIdle(_ context.Context, before time.Time, limit int) ([]Summary, error) {
	m.mu.RLock()
	var list []Summary
	for id, r := range m.rooms {
		if !r.IsClosed() && r.LastActivityAt.Before(before) {
			list = append(list, Summary{RoomID: id, LastActivityAt: r.LastActivityAt})
		}
	}
	m.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastActivityAt.Equal(list[j].LastActivityAt) {
			return list[i].RoomID < list[j].RoomID
		}
		return list[i].LastActivityAt.Before(list[j].LastActivityAt)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}
