package observability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DhairyaKakkar/navai-clarity-suite/internal/config"
)

// syncBuffer adapts a strings.Builder into a zapcore.WriteSyncer.
type syncBuffer struct {
	strings.Builder
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitializeAndGet(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "navai-test"}, &buf)

	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("hello from the engine", zap.String("component", "test"))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "hello from the engine")
	assert.Contains(t, out, "navai-test")
	assert.Contains(t, out, `"component":"test"`)
}

func TestInitializeRunsExactlyOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second syncBuffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, &first)
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, &second)

	GetLogger().Info("routed to the first writer")
	GetLogger().Sync()

	assert.Contains(t, first.String(), "routed to the first writer")
	assert.Empty(t, second.String())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "navai-test"}, &buf)

	GetLogger().Debug("should be filtered")
	GetLogger().Info("should pass")
	GetLogger().Sync()

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should pass")
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// Must be usable without panicking.
	logger.Debug("fallback logger in use")
}

func TestConsoleEncoderNameSuffix(t *testing.T) {
	var buf syncBuffer
	enc := getEncoder(config.LoggerConfig{Format: "console"})
	core := zapcore.NewCore(enc, zapcore.AddSync(&buf), zap.DebugLevel)
	logger := zap.New(core).Named("navai").Named("planner")

	logger.Info("console line")
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "navai.planner.")
}
