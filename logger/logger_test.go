package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-desk/config"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.log")
	log, err := NewLogger(config.Log{Level: "info", Format: "json", Output: path}, "desk")
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("visible")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"visible"`)
	assert.Contains(t, out, `"logger":"desk"`)
	assert.False(t, strings.Contains(out, "hidden"))
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(config.Log{Level: "loud", Format: "console"}, "desk")
	require.Error(t, err)
}
