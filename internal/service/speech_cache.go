package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type cachedAudio struct {
	audio      []byte
	lastAccess time.Time
}

// cachingSynthesizer keeps recently synthesized clips in memory so repeated
// questions and the short stock feedback lines skip the provider round trip.
// Eviction is least-recently-used by total byte size.
type cachingSynthesizer struct {
	inner    Synthesizer
	maxBytes int

	mu         sync.Mutex
	entries    map[string]*cachedAudio
	totalBytes int
}

// NewCachingSynthesizer wraps a synthesizer with an in-memory LRU audio
// cache. maxBytes <= 0 disables caching.
func NewCachingSynthesizer(inner Synthesizer, maxBytes int) Synthesizer {
	return &cachingSynthesizer{
		inner:    inner,
		maxBytes: maxBytes,
		entries:  make(map[string]*cachedAudio),
	}
}

func (c *cachingSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if c.maxBytes <= 0 {
		return c.inner.Synthesize(ctx, text, language)
	}

	key := audioCacheKey(text, language)
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		entry.lastAccess = time.Now()
		audio := entry.audio
		c.mu.Unlock()
		return audio, nil
	}
	c.mu.Unlock()

	audio, err := c.inner.Synthesize(ctx, text, language)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = &cachedAudio{audio: audio, lastAccess: time.Now()}
		c.totalBytes += len(audio)
		c.evictLocked()
	}
	c.mu.Unlock()
	return audio, nil
}

// evictLocked drops the least recently used entries until the cache fits the
// byte budget. Caller holds c.mu.
func (c *cachingSynthesizer) evictLocked() {
	for c.totalBytes > c.maxBytes && len(c.entries) > 1 {
		oldestKey := ""
		var oldest time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.lastAccess.Before(oldest) {
				oldestKey = key
				oldest = entry.lastAccess
			}
		}
		c.totalBytes -= len(c.entries[oldestKey].audio)
		delete(c.entries, oldestKey)
		log.Debug().Str("key", oldestKey).Msg("Evicted cached audio clip")
	}
}

func audioCacheKey(text, language string) string {
	sum := sha256.Sum256([]byte(text + ":" + language))
	return hex.EncodeToString(sum[:])[:16]
}
