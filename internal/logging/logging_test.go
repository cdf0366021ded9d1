package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_Format(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", &buf).Info("hello", "k", "v")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])

	buf.Reset()
	NewWithWriter("test", &buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "k=v")
}

func TestNewWithWriter_DebugOnlyInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", &buf).Debug("quiet")
	assert.Empty(t, buf.String())

	NewWithWriter("development", &buf).Debug("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestLogError(t *testing.T) {
	t.Run("oops error carries code and context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter("production", &buf)
		err := oops.Code("CUSTOMER_CREATE_FAILED").With("username", "alice01").Errorf("insert failed")

		LogError(logger, "create failed", err, "request_id", "r1")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "create failed", rec["msg"])
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, "r1", rec["request_id"])
		assert.Equal(t, "CUSTOMER_CREATE_FAILED", rec["code"])
		assert.Contains(t, rec["error"], "insert failed")
		ctx, ok := rec["context"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice01", ctx["username"])
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		LogError(NewWithWriter("production", &buf), "boom", errors.New("disk full"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "disk full", rec["error"])
		assert.NotContains(t, rec, "code")
	})
}
