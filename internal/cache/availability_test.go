package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleSlots() []*model.Slot {
	return []*model.Slot{{
		ID:              uuid.New(),
		Date:            model.NewDate(2024, 3, 5),
		StartTime:       model.NewClock(9, 0),
		EndTime:         model.NewClock(10, 0),
		DurationMinutes: 60,
		Modality:        model.ModalityEither,
		Available:       true,
	}}
}

func TestEncodeDecodeKeepsCivilDateAndClock(t *testing.T) {
	in := sampleSlots()

	b, err := encodeSlots(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"date":"2024-03-05"`)
	assert.Contains(t, string(b), `"start_time":"09:00"`)

	out, err := decodeSlots(b)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, in[0].Date.Equal(out[0].Date))
	assert.Equal(t, in[0].StartTime, out[0].StartTime)
	assert.Equal(t, in[0].ID, out[0].ID)

	empty, err := encodeSlots(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := decodeSlots([]byte("{not json"))
	assert.Error(t, err)
}

// Требует запущенный Redis: REDIS_URL=redis://localhost:6379/15
func TestAvailabilityCache_Redis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	c := NewAvailabilityCache(client, time.Minute, zap.NewNop())
	c.Invalidate(ctx)

	_, ok := c.Get(ctx, "k1")
	assert.False(t, ok)

	gen, ok := c.Generation(ctx)
	require.True(t, ok)

	c.Set(ctx, "k1", gen, sampleSlots())
	got, ok := c.Get(ctx, "k1")
	require.True(t, ok)
	assert.Len(t, got, 1)

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok)

	next, ok := c.Generation(ctx)
	require.True(t, ok)
	assert.Greater(t, next, gen)

	// Выдача, прочитанная до Invalidate, не попадает в кэш
	c.Set(ctx, "k1", gen, sampleSlots())
	_, ok = c.Get(ctx, "k1")
	assert.False(t, ok)

	c.Set(ctx, "k1", next, sampleSlots())
	_, ok = c.Get(ctx, "k1")
	assert.True(t, ok)
}
