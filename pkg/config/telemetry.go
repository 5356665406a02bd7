package config

import (
	"fmt"
	"time"
)

// TelemetryConfig enables trace export over OTLP/HTTP. Metrics are always served on /metrics.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

type TracesConfig struct {
	OtlpHttp OtlpHttpConfig `koanf:"otlphttp"`
	// SampleRatio is the share of root spans kept. Zero keeps every span.
	SampleRatio float64 `koanf:"sampleratio"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

func (c *TelemetryConfig) String() string {
	return newSection("Telemetry").
		add("enabled", c.Enabled).
		add("traces.otlphttp.endpoint", c.Traces.OtlpHttp.Endpoint).
		add("traces.otlphttp.insecure", c.Traces.OtlpHttp.Insecure).
		add("traces.otlphttp.timeout", c.Traces.OtlpHttp.Timeout).
		add("traces.sampleratio", c.Traces.SampleRatio).
		String()
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}
	if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be between 0 and 1")
	}
	return nil
}
