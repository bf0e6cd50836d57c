package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSynthesizer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte(text), nil
}

func TestCachedSynthesisSkipsProvider(t *testing.T) {
	inner := &countingSynthesizer{}
	synth := NewCachingSynthesizer(inner, 1024)

	first, err := synth.Synthesize(context.Background(), "Correct!", "en")
	require.NoError(t, err)
	second, err := synth.Synthesize(context.Background(), "Correct!", "en")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheKeyIncludesLanguage(t *testing.T) {
	inner := &countingSynthesizer{}
	synth := NewCachingSynthesizer(inner, 1024)

	_, err := synth.Synthesize(context.Background(), "Correct!", "en")
	require.NoError(t, err)
	_, err = synth.Synthesize(context.Background(), "Correct!", "sk")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestSynthesisErrorsAreNotCached(t *testing.T) {
	inner := &countingSynthesizer{err: errors.New("provider down")}
	synth := NewCachingSynthesizer(inner, 1024)

	_, err := synth.Synthesize(context.Background(), "Correct!", "en")
	require.Error(t, err)

	inner.err = nil
	audio, err := synth.Synthesize(context.Background(), "Correct!", "en")
	require.NoError(t, err)
	assert.Equal(t, []byte("Correct!"), audio)
	assert.Equal(t, 2, inner.calls)
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingSynthesizer{}
	synth := NewCachingSynthesizer(inner, 8)

	_, err := synth.Synthesize(context.Background(), "aaaa", "en")
	require.NoError(t, err)
	_, err = synth.Synthesize(context.Background(), "bbbb", "en")
	require.NoError(t, err)

	// Touch the first clip so the second becomes the eviction candidate.
	_, err = synth.Synthesize(context.Background(), "aaaa", "en")
	require.NoError(t, err)
	_, err = synth.Synthesize(context.Background(), "cccc", "en")
	require.NoError(t, err)
	require.Equal(t, 3, inner.calls)

	_, err = synth.Synthesize(context.Background(), "aaaa", "en")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls, "recently used clip must survive eviction")

	_, err = synth.Synthesize(context.Background(), "bbbb", "en")
	require.NoError(t, err)
	assert.Equal(t, 4, inner.calls, "evicted clip must be re-synthesized")
}

func TestZeroBudgetDisablesCaching(t *testing.T) {
	inner := &countingSynthesizer{}
	synth := NewCachingSynthesizer(inner, 0)

	_, err := synth.Synthesize(context.Background(), "Correct!", "en")
	require.NoError(t, err)
	_, err = synth.Synthesize(context.Background(), "Correct!", "en")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
