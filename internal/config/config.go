package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultUserAgent    = "dlnactl/1.1 UPnP/1.0"
	DefaultInstancePath = ".local/dlnactl/instance_id.txt"

	// network communication timeouts
	DefaultConnectTimeoutMS  = 3000
	DefaultResponseTimeoutMS = 3000
	DefaultReadTimeoutMS     = 3000
	DefaultSSDPWaitMS        = 4000

	DefaultSSDPRepeats    = 1
	DefaultBrowseMaxCount = 100
)

type Config struct {
	InstancePath string
	UserAgent    string

	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration
	ReadTimeout     time.Duration
	SSDPWait        time.Duration
	SSDPRepeats     int
	BrowseMaxCount  int
}

func Load() Config {
	cfg := Config{
		InstancePath:    envVar("DLNACTL_INSTANCE_PATH", os.Getenv("HOME")+"/"+DefaultInstancePath),
		UserAgent:       envVar("DLNACTL_USER_AGENT", DefaultUserAgent),
		ConnectTimeout:  time.Duration(envVar("DLNACTL_CONNECT_TIMEOUT_MS", DefaultConnectTimeoutMS)) * time.Millisecond,
		ResponseTimeout: time.Duration(envVar("DLNACTL_RESPONSE_TIMEOUT_MS", DefaultResponseTimeoutMS)) * time.Millisecond,
		ReadTimeout:     time.Duration(envVar("DLNACTL_READ_TIMEOUT_MS", DefaultReadTimeoutMS)) * time.Millisecond,
		SSDPWait:        time.Duration(envVar("DLNACTL_SSDP_WAIT_MS", DefaultSSDPWaitMS)) * time.Millisecond,
		SSDPRepeats:     envVar("DLNACTL_SSDP_REPEATS", DefaultSSDPRepeats),
		BrowseMaxCount:  envVar("DLNACTL_BROWSE_MAX_COUNT", DefaultBrowseMaxCount),
	}

	// Validate configuration
	cfg.validate()

	return cfg
}

func envVar[T ~string | ~bool | ~int](key string, def T) T {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	switch any(def).(type) {
	case string:
		return any(v).(T)
	case bool:
		if b, err := strconv.ParseBool(v); err == nil {
			return any(b).(T)
		}
	case int:
		if i, err := strconv.Atoi(v); err == nil {
			return any(i).(T)
		}
	}
	return def
}

// validate performs validation on configuration values
func (c *Config) validate() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeoutMS * time.Millisecond
	}
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = DefaultResponseTimeoutMS * time.Millisecond
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeoutMS * time.Millisecond
	}
	if c.SSDPWait <= 0 {
		c.SSDPWait = DefaultSSDPWaitMS * time.Millisecond
	}
	if c.SSDPRepeats < 0 {
		c.SSDPRepeats = 0
	}
	// RequestedCount stays bounded to keep browse result memory predictable.
	if c.BrowseMaxCount < 1 || c.BrowseMaxCount > DefaultBrowseMaxCount {
		c.BrowseMaxCount = DefaultBrowseMaxCount
	}

	// Ensure instance id path directory exists
	if c.InstancePath != "" {
		if idx := strings.LastIndex(c.InstancePath, "/"); idx > 0 {
			dir := c.InstancePath[:idx]
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				os.MkdirAll(dir, 0755)
			}
		}
	}
}
