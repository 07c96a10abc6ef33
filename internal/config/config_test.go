package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := Load()
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 3*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 4*time.Second, cfg.SSDPWait)
	assert.Equal(t, 1, cfg.SSDPRepeats)
	assert.Equal(t, DefaultBrowseMaxCount, cfg.BrowseMaxCount)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DLNACTL_USER_AGENT", "custom/1.0")
	t.Setenv("DLNACTL_CONNECT_TIMEOUT_MS", "500")
	t.Setenv("DLNACTL_SSDP_REPEATS", "3")

	cfg := Load()
	assert.Equal(t, "custom/1.0", cfg.UserAgent)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, 3, cfg.SSDPRepeats)
}

func TestLoadClampsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DLNACTL_READ_TIMEOUT_MS", "-50")
	t.Setenv("DLNACTL_SSDP_REPEATS", "-2")
	t.Setenv("DLNACTL_BROWSE_MAX_COUNT", "100000")

	cfg := Load()
	assert.Equal(t, time.Duration(DefaultReadTimeoutMS)*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 0, cfg.SSDPRepeats)
	assert.Equal(t, DefaultBrowseMaxCount, cfg.BrowseMaxCount)
}

func TestLoadCreatesInstanceDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "instance_id.txt")
	t.Setenv("DLNACTL_INSTANCE_PATH", path)

	cfg := Load()
	assert.Equal(t, path, cfg.InstancePath)
	assert.DirExists(t, filepath.Dir(path))
}

func TestEnvVarMalformedFallsBack(t *testing.T) {
	t.Setenv("DLNACTL_TEST_INT", "not-a-number")
	assert.Equal(t, 7, envVar("DLNACTL_TEST_INT", 7))
}
