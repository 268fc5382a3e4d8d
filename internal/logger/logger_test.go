package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log := New()
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewWithConfig(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithConfig("warn", FormatJSON, buf)
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("user_id", "u1").Msg("shown")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewWithConfig_Console(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithConfig("", FormatConsole, buf)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log.Info().Msg("console message")
	assert.Contains(t, buf.String(), "console message")
}

func TestNewWithConfig_Errors(t *testing.T) {
	_, err := NewWithConfig("loud", FormatJSON, nil)
	assert.Error(t, err)

	_, err = NewWithConfig("info", "xml", nil)
	assert.Error(t, err)
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	assert.Contains(t, buf.String(), "test message")
}

func TestWithContext(t *testing.T) {
	ctx := WithContext(context.Background(), New())
	assert.NotNil(t, ctx.Value(LoggerKey))
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	retrieved := FromContext(ctx)
	retrieved.Info().Msg("test")

	assert.NotZero(t, buf.Len())
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"user_id": "123",
		"action":  "test",
	})
	log.Info().Msg("test message")

	out := buf.String()
	assert.Contains(t, out, `"user_id":"123"`)
	assert.Contains(t, out, `"action":"test"`)
}

func TestForUserAndJob(t *testing.T) {
	buf := &bytes.Buffer{}
	log := ForJob(ForUser(NewWithWriter(buf), "u-7"), "job-1", "monthly_review")
	log.Info().Msg("running")

	out := buf.String()
	assert.Contains(t, out, `"user_id":"u-7"`)
	assert.Contains(t, out, `"job_id":"job-1"`)
	assert.Contains(t, out, `"job_type":"monthly_review"`)
}
