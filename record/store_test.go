package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/sensorloop/ingest"
	"github.com/lixenwraith/sensorloop/status"
)

func rec(seq uint64, payload string) ingest.Record {
	return ingest.Record{
		Source:  "src",
		Seq:     seq,
		At:      time.Date(2024, 1, 1, 0, 0, 0, int(seq)*int(time.Millisecond), time.UTC),
		Payload: []byte(payload),
	}
}

func TestStoreFlushesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")
	reg := status.NewRegistry()
	s, err := Open(path, Options{FlushInterval: time.Hour, BatchSize: 1000, Registry: reg})
	require.NoError(t, err)

	for i := uint64(1); i <= 10; i++ {
		require.True(t, s.Offer(rec(i, `{"illuminance": 1}`)))
	}
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.EqualValues(t, 10, reg.Counter("record.written").Load())
	assert.False(t, s.Offer(rec(11, `{}`)))

	_, err = s.Count(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	recent, err := reopened.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.EqualValues(t, 10, recent[0].Seq)
	assert.Equal(t, `{"illuminance": 1}`, string(recent[0].Payload))
	assert.True(t, recent[0].At.Equal(rec(10, "").At))
}

func TestStoreBatchesInBackground(t *testing.T) {
	s, err := Open(":memory:", Options{FlushInterval: 10 * time.Millisecond, BatchSize: 4})
	require.NoError(t, err)
	defer s.Close()

	for i := uint64(1); i <= 9; i++ {
		s.Offer(rec(i, `{}`))
	}
	require.Eventually(t, func() bool {
		n, err := s.Count(context.Background())
		return err == nil && n == 9
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStoreDropsWhenFull(t *testing.T) {
	reg := status.NewRegistry()
	// No writer goroutine, so the queue stays full
	s := &Store{
		queue:       make(chan ingest.Record, 2),
		statDropped: reg.Counter("record.dropped"),
	}

	assert.True(t, s.Offer(rec(1, `{}`)))
	assert.True(t, s.Offer(rec(2, `{}`)))
	assert.False(t, s.Offer(rec(3, `{}`)))
	assert.False(t, s.Offer(rec(4, `{}`)))
	assert.EqualValues(t, 2, reg.Counter("record.dropped").Load())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", Options{})
	assert.Error(t, err)
}
