package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "archive/math-101/42.json", ArchiveKey("math-101", 42))
}

func TestPresignExpireDefault(t *testing.T) {
	s := &S3{}
	assert.Equal(t, "15m0s", s.PresignExpire().String())

	s.cfg.PresignExpireMinutes = 5
	assert.Equal(t, "5m0s", s.PresignExpire().String())
}
