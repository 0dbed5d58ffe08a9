package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutputCarriesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Encoding: "json", Output: &buf})
	require.NoError(t, err)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithRequestID(ctx, log).Info("hello")
	require.NoError(t, log.Sync())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Contains(t, line, "timestamp")
}

func TestNew_LevelFiltersAndFallsBack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)
	log.Info("dropped")
	assert.Zero(t, buf.Len())

	buf.Reset()
	log, err = New(Config{Level: "not-a-level", Output: &buf})
	require.NoError(t, err)
	log.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithRequestID_NoIDReturnsBase(t *testing.T) {
	t.Parallel()

	log, err := New(Config{Output: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Same(t, log, WithRequestID(context.Background(), log))
	assert.NotNil(t, WithRequestID(context.Background(), nil))
	assert.Empty(t, RequestID(context.Background()))
}
