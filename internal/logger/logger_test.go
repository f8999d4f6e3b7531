package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"upvcerp/internal/config"
)

func TestInitHonoursLevel(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	cfg := config.Default()
	cfg.Log.Level = "warn"
	l, err := Init(cfg)
	require.NoError(t, err)
	assert.Same(t, l, L())
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	cfg.Log.Level = "bogus"
	cfg.Env = "production"
	cfg.Log.Format = "console"
	l, err = Init(cfg)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestContextPropagation(t *testing.T) {
	Set(nil)
	assert.NotNil(t, L(), "nop logger before Init")
	assert.NotNil(t, FromContext(context.Background()))

	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)
	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info("hello", zap.String("k", "v"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello", logs.All()[0].Message)
}
