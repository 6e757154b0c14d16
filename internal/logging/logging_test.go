package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_New_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bodwatch.log")

	logger, cleanup, err := New(Options{Level: "debug", Path: path})
	require.NoError(t, err)
	logger.Info("poller started", zap.Int64("user_id", 2))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"poller started"`)
	assert.Contains(t, string(data), `"user_id":2`)
}

func Test_New_RejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func Test_OrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
