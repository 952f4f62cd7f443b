package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLogger_CreatesLayout(t *testing.T) {
	base := t.TempDir()
	logger, err := NewFileLogger(base, "abc123")
	require.NoError(t, err)

	assert.Equal(t, "abc123", logger.RunID())
	assert.Equal(t, filepath.Join(base, "testrun-abc123"), logger.RunDir())

	for _, dir := range []string{
		logger.RunDir(),
		filepath.Join(logger.RunDir(), "logs"),
		filepath.Join(logger.RunDir(), "failed"),
	} {
		info, statErr := os.Stat(dir)
		require.NoError(t, statErr, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestNewFileLogger_Validation(t *testing.T) {
	_, err := NewFileLogger("", "abc")
	assert.Error(t, err)

	_, err = NewFileLogger(t.TempDir(), "")
	assert.Error(t, err)
}

func TestFileLogger_WriteTestLog(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run1")
	require.NoError(t, err)

	require.NoError(t, logger.WriteTestLog("spec/a_spec.lua", "3 passed\n", false))

	data, err := os.ReadFile(filepath.Join(logger.RunDir(), "logs", "spec_a_spec.lua.log"))
	require.NoError(t, err)
	assert.Equal(t, "3 passed\n", string(data))

	// Passing files get no copy under failed/.
	_, statErr := os.Stat(filepath.Join(logger.RunDir(), "failed", "spec_a_spec.lua.log"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileLogger_WriteTestLog_FailedCopy(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run1")
	require.NoError(t, err)

	require.NoError(t, logger.WriteTestLog("b_spec.lua", "1 failed\n", true))

	for _, dir := range []string{"logs", "failed"} {
		data, readErr := os.ReadFile(filepath.Join(logger.RunDir(), dir, "b_spec.lua.log"))
		require.NoError(t, readErr)
		assert.Equal(t, "1 failed\n", string(data))
	}
}

func TestFileLogger_StripsANSI(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run1")
	require.NoError(t, err)

	colored := "\x1b[32m3 passed\x1b[0m\n\x1b[31m1 failed\x1b[0m\n"
	require.NoError(t, logger.WriteTestLog("c_spec.lua", colored, true))

	data, err := os.ReadFile(filepath.Join(logger.RunDir(), "logs", "c_spec.lua.log"))
	require.NoError(t, err)
	assert.Equal(t, "3 passed\n1 failed\n", string(data))
}

func TestFileLogger_WriteSummary(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run1")
	require.NoError(t, err)

	require.NoError(t, logger.WriteSummary("TOTAL 5 passed\n"))

	data, err := os.ReadFile(filepath.Join(logger.RunDir(), "summary.log"))
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 5 passed\n", string(data))
}

func TestFileLogger_PayloadDir(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(logger.RunDir(), "payloads"), logger.PayloadDir())
	// Not created eagerly; retention is opt-in.
	_, statErr := os.Stat(logger.PayloadDir())
	assert.True(t, os.IsNotExist(statErr))
}
