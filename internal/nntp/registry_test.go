package nntp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nzbtriage/internal/domain"
)

func TestKeyIsDeterministicAndSensitiveToEachField(t *testing.T) {
	base := domain.ServerConfig{Host: "news.example.com", Port: 563, Username: "u", TLS: true}

	k1 := Key(base, 4, 15000)
	k2 := Key(base, 4, 15000)
	require.Equal(t, k1, k2)

	variants := []domain.PoolKey{
		Key(domain.ServerConfig{Host: "other.example.com", Port: 563, Username: "u", TLS: true}, 4, 15000),
		Key(domain.ServerConfig{Host: "news.example.com", Port: 119, Username: "u", TLS: true}, 4, 15000),
		Key(domain.ServerConfig{Host: "news.example.com", Port: 563, Username: "v", TLS: true}, 4, 15000),
		Key(domain.ServerConfig{Host: "news.example.com", Port: 563, Username: "u", TLS: false}, 4, 15000),
		Key(base, 8, 15000),
		Key(base, 4, 30000),
	}
	for _, v := range variants {
		require.NotEqual(t, k1, v)
	}
}

func TestIsStaleLockedNilPoolIsStale(t *testing.T) {
	r := &Registry{}
	require.True(t, r.isStaleLocked())
}

func TestIsStaleLockedFreshPoolIsNotStale(t *testing.T) {
	r := &Registry{pool: &Pool{lastUsed: time.Now()}}
	require.False(t, r.isStaleLocked())
}

func TestIsStaleLockedOldPoolIsStale(t *testing.T) {
	r := &Registry{pool: &Pool{lastUsed: time.Now().Add(-10 * time.Minute)}}
	require.True(t, r.isStaleLocked())
}

func TestIsStaleLockedZeroLastUsedIsStale(t *testing.T) {
	r := &Registry{pool: &Pool{}}
	require.True(t, r.isStaleLocked())
}
