package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROOM_STORE_DRIVER", "")
	t.Setenv("ROOM_LOCK_DRIVER", "")
	t.Setenv("ZEGO_APP_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Room.StoreDriver)
	assert.Equal(t, LockLocal, cfg.Room.LockDriver)
	assert.Equal(t, 3*time.Second, cfg.Room.PollInterval)
	assert.False(t, cfg.Room.NeedsRedis())
	assert.False(t, cfg.Zego.Enabled())
}

func TestLoadRoomOverrides(t *testing.T) {
	t.Setenv("ROOM_STORE_DRIVER", "Postgres")
	t.Setenv("ROOM_LOCK_DRIVER", "redis")
	t.Setenv("ROOM_ORPHAN_TTL_SEC", "600")
	t.Setenv("ROOM_MAX_PARTICIPANTS", "40")
	t.Setenv("ZEGO_APP_ID", "123456")
	t.Setenv("ZEGO_SERVER_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Room.StoreDriver)
	assert.True(t, cfg.Room.NeedsRedis())
	assert.Equal(t, 10*time.Minute, cfg.Room.OrphanTTL)
	assert.Equal(t, 40, cfg.Room.MaxParticipants)
	assert.Equal(t, uint32(123456), cfg.Zego.AppID)
	assert.True(t, cfg.Zego.Enabled())
}

func TestLoadRejectsUnknownDrivers(t *testing.T) {
	t.Setenv("ZEGO_APP_ID", "")

	t.Setenv("ROOM_STORE_DRIVER", "mongo")
	_, err := Load()
	assert.ErrorContains(t, err, "ROOM_STORE_DRIVER")

	t.Setenv("ROOM_STORE_DRIVER", "memory")
	t.Setenv("ROOM_LOCK_DRIVER", "etcd")
	_, err = Load()
	assert.ErrorContains(t, err, "ROOM_LOCK_DRIVER")
}

func TestLoadRejectsBadAppID(t *testing.T) {
	t.Setenv("ZEGO_APP_ID", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "classroom", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/classroom?sslmode=disable", c.DSN())

	c.URL = "postgres://elsewhere/x"
	assert.Equal(t, "postgres://elsewhere/x", c.DSN())
}
