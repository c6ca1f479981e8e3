package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/user"
)

func newObservedLogger() (*RollbarLogger, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	conf := &core.Config{TestMode: true}
	return NewRollbarLogger(zap.New(obs), conf), logs
}

func TestRollbarLogger_prepare(t *testing.T) {
	l, _ := newObservedLogger()
	usr := user.User{ID: "u1", Name: "Vee", Email: "vee@test.cd"}
	other := user.User{ID: "u2"}
	err := errors.New("boom")
	extra := map[string]interface{}{"rsvp_id": "r1"}

	args, fields := l.prepare("msg", []interface{}{err, usr, extra, other, 42})
	assert.Equal(t, []interface{}{"msg", err, extra, 42}, args, "users are not forwarded")
	require.Len(t, fields, 4)
	assert.Equal(t, "error", fields[0].Key)
	assert.Equal(t, zap.String("user_id", "u1"), fields[1])
	assert.Equal(t, "extra", fields[2].Key)
	assert.Equal(t, "arg4", fields[3].Key)
}

func TestRollbarLogger_levels(t *testing.T) {
	l, logs := newObservedLogger()

	l.Debug("debugging")
	l.Info("informing", map[string]interface{}{"count": 2})
	l.Warn("warning")
	l.Error("failing", errors.New("boom"), user.User{ID: "u1"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "failing", entries[3].Message)

	ctx := entries[3].ContextMap()
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "u1", ctx["user_id"])
}
