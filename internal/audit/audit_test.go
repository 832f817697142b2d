package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
)

func TestLogUsesContextLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(obs).With(logger.UserID("u-1")))

	Log(ctx, KeyRotated, logger.KID("v2"))

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "audit", e.LoggerName)
	fields := e.ContextMap()
	assert.Equal(t, KeyRotated, fields["event"])
	assert.Equal(t, "v2", fields["kid"])
	assert.Equal(t, "u-1", fields["user_id"])
}
