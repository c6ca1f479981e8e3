package ratelimit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/trezcool/bolingo/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mockNow(t *testing.T, start time.Time) *time.Time {
	now := start
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = time.Now })
	return &now
}

func TestMemoryLimiter_Allow(t *testing.T) {
	now := mockNow(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	l := NewMemoryLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "4th request")

	ok, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	*now = now.Add(59 * time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "same window")

	*now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "new window")
}

func TestMemoryLimiter_sweep(t *testing.T) {
	now := mockNow(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	l := NewMemoryLimiter(1, time.Minute)
	_, _ = l.Allow(ctx, "a")
	*now = now.Add(30 * time.Second)
	_, _ = l.Allow(ctx, "b")

	*now = now.Add(40 * time.Second)
	l.sweep()
	l.mu.Lock()
	assert.NotContains(t, l.windows, "a")
	assert.Contains(t, l.windows, "b")
	l.mu.Unlock()

	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close(), "closing twice")
}

func TestMemoryLimiter_concurrent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(50, time.Hour)
	defer l.Close()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow(ctx, "k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

type (
	fakeEntry struct {
		jetstream.KeyValueEntry
		value    []byte
		revision uint64
	}

	// fakeKV keeps the entries in memory. conflicts makes the next Update calls fail as if another process won.
	fakeKV struct {
		jetstream.KeyValue

		mu        sync.Mutex
		entries   map[string]fakeEntry
		seq       uint64
		conflicts int
		err       error
	}
)

func (e fakeEntry) Value() []byte    { return e.value }
func (e fakeEntry) Revision() uint64 { return e.revision }

func newFakeKV() *fakeKV {
	return &fakeKV{entries: make(map[string]fakeEntry)}
}

func (kv *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.err != nil {
		return nil, kv.err
	}
	e, ok := kv.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return e, nil
}

func (kv *fakeKV) Create(_ context.Context, key string, value []byte) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if _, ok := kv.entries[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	kv.seq++
	kv.entries[key] = fakeEntry{value: value, revision: kv.seq}
	return kv.seq, nil
}

func (kv *fakeKV) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.conflicts > 0 {
		kv.conflicts--
		return 0, &jetstream.APIError{Code: 400, ErrorCode: jetstream.JSErrCodeStreamWrongLastSequence, Description: "wrong last sequence"}
	}
	if e, ok := kv.entries[key]; !ok || e.revision != revision {
		return 0, &jetstream.APIError{Code: 400, ErrorCode: jetstream.JSErrCodeStreamWrongLastSequence, Description: "wrong last sequence"}
	}
	kv.seq++
	kv.entries[key] = fakeEntry{value: value, revision: kv.seq}
	return kv.seq, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var _ core.Logger = nopLogger{}

func TestNatsLimiter_Allow(t *testing.T) {
	now := mockNow(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	kv := newFakeKV()
	l := newNatsLimiter(kv, 2, time.Minute, nopLogger{})

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok, "3rd request")

	var w kvWindow
	require.NoError(t, json.Unmarshal(kv.entries["1.2.3.4"].value, &w))
	assert.Equal(t, 2, w.Count)

	*now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "new window")
}

func TestNatsLimiter_conflicts(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	l := newNatsLimiter(kv, 10, time.Minute, nopLogger{})

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)

	kv.conflicts = 2
	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	var w kvWindow
	require.NoError(t, json.Unmarshal(kv.entries["k"].value, &w))
	assert.Equal(t, 2, w.Count, "counted once after the retries")

	kv.conflicts = maxCASRetries
	ok, err = l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "gives up open")
}

func TestNatsLimiter_failsOpen(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("nats: timeout")
	l := newNatsLimiter(kv, 1, time.Minute, nopLogger{})

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func Test_sanitizeKey(t *testing.T) {
	tests := map[string]string{
		"login:1.2.3.4":   "login_1.2.3.4",
		"2001:db8::1":     "2001_db8__1",
		"users/me=ok":     "users/me=ok",
		"a b*c>":          "a_b_c_",
		"Already-Fine_09": "Already-Fine_09",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeKey(in), in)
	}
}
