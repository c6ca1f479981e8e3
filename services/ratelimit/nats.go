package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
)

const maxCASRetries = 5

type kvWindow struct {
	Start time.Time `json:"start"`
	Count int       `json:"count"`
}

// NatsLimiter is a fixed-window limiter shared by every process using the same JetStream KV bucket.
// Windows are updated with compare-and-set on the entry revision. It fails open: store errors allow the request.
type NatsLimiter struct {
	requests int
	period   time.Duration
	kv       jetstream.KeyValue
	logger   core.Logger
}

var _ core.RateLimiter = (*NatsLimiter)(nil) // interface compliance check

// NewNatsLimiter binds to bucket, creating it with a TTL of period if it does not exist yet.
func NewNatsLimiter(ctx context.Context, nc *nats.Conn, bucket string, requests int, period time.Duration, logger core.Logger) (*NatsLimiter, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, errors.Wrap(err, "creating jetstream context")
	}
	kv, err := js.KeyValue(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "request counts per client and window",
			TTL:         period,
		})
	}
	if err != nil {
		return nil, errors.Wrapf(err, "binding kv bucket %q", bucket)
	}
	return newNatsLimiter(kv, requests, period, logger), nil
}

func newNatsLimiter(kv jetstream.KeyValue, requests int, period time.Duration, logger core.Logger) *NatsLimiter {
	return &NatsLimiter{requests: requests, period: period, kv: kv, logger: logger}
}

func (l *NatsLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = sanitizeKey(key)
	for i := 0; i < maxCASRetries; i++ {
		allowed, retry, err := l.try(ctx, key)
		if err != nil {
			l.logger.Error(fmt.Sprintf("ratelimit: %v", err), err)
			return true, nil
		}
		if !retry {
			return allowed, nil
		}
	}
	l.logger.Warn(fmt.Sprintf("ratelimit: gave up on %q after %d conflicting updates", key, maxCASRetries))
	return true, nil
}

// try does one compare-and-set round. retry is set when another process updated the window first.
func (l *NatsLimiter) try(ctx context.Context, key string) (allowed, retry bool, err error) {
	now := nowFunc()

	entry, err := l.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return l.create(ctx, key, now)
	}
	if err != nil {
		return false, false, errors.Wrapf(err, "getting %q", key)
	}

	var w kvWindow
	if err = json.Unmarshal(entry.Value(), &w); err != nil || now.Sub(w.Start) >= l.period {
		w = kvWindow{Start: now}
	}
	if w.Count >= l.requests {
		return false, false, nil
	}
	w.Count++

	val, err := json.Marshal(w)
	if err != nil {
		return false, false, err
	}
	if _, err = l.kv.Update(ctx, key, val, entry.Revision()); err != nil {
		if isCASConflict(err) {
			return false, true, nil
		}
		return false, false, errors.Wrapf(err, "updating %q", key)
	}
	return true, false, nil
}

func (l *NatsLimiter) create(ctx context.Context, key string, now time.Time) (allowed, retry bool, err error) {
	val, err := json.Marshal(kvWindow{Start: now, Count: 1})
	if err != nil {
		return false, false, err
	}
	if _, err = l.kv.Create(ctx, key, val); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return false, true, nil
		}
		return false, false, errors.Wrapf(err, "creating %q", key)
	}
	return true, false, nil
}

func isCASConflict(err error) bool {
	var apiErr *jetstream.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
	}
	return errors.Is(err, jetstream.ErrKeyExists)
}

// sanitizeKey keeps the characters a KV key may hold.
func sanitizeKey(key string) string {
	b := []byte(key)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '/', c == '=', c == '.':
		default:
			b[i] = '_'
		}
	}
	return string(b)
}
