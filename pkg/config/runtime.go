package config

import (
	"fmt"
	"time"
)

// LogConfig sets the minimum level of the service logger.
type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) String() string {
	return newSection("Log").add("level", c.Level).String()
}

func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level: %q", c.Level)
}

// PProfConfig exposes net/http/pprof on a separate listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	return newSection("PProf").
		add("enabled", c.Enabled).
		add("address", c.Addr).
		String()
}

func (c *PProfConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	return nil
}

// ShutdownConfig bounds how long each server may take to stop.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	return newSection("Shutdown").add("timeout", c.Timeout).String()
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

// Probe defaults match the paths of the container manifests.
const (
	DefaultReadinessFileName = "/tmp/ready"
	DefaultLivenessFileName  = "/tmp/live"
	DefaultLivenessInterval  = 20 * time.Second
)

// ProbesConfig names the files touched for file based readiness and liveness probes.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

func (c *ProbesConfig) String() string {
	return newSection("Probes").
		add("readinessfilename", c.ReadinessFileName).
		add("livenessfilename", c.LivenessFileName).
		add("livenessinterval", c.LivenessInterval).
		String()
}

// Validate never fails. Missing values take the defaults.
func (c *ProbesConfig) Validate() error {
	if c.ReadinessFileName == "" {
		c.ReadinessFileName = DefaultReadinessFileName
	}
	if c.LivenessFileName == "" {
		c.LivenessFileName = DefaultLivenessFileName
	}
	if c.LivenessInterval <= 0 {
		c.LivenessInterval = DefaultLivenessInterval
	}
	return nil
}
