package config

import "os"

// ValueSource represents where a configured value comes from.
type ValueSource string

const (
	SourceEnv     ValueSource = "env"
	SourceConfig  ValueSource = "config"
	SourceDefault ValueSource = "default"
)

// EndpointStatus describes one configured upstream endpoint.
type EndpointStatus struct {
	Name   string      `json:"name"`
	URL    string      `json:"url"`
	Source ValueSource `json:"source"`
}

// CheckEndpoints returns the configured endpoints and where each came from.
func CheckEndpoints(cfg *Config) []EndpointStatus {
	return []EndpointStatus{
		checkEndpoint("AMFI NAV feed", cfg.Sources.AMFINAVURL, DefaultAMFINAVURL, "MFINDIA_SOURCES_AMFI_NAV_URL"),
		checkEndpoint("MFAPI", cfg.Sources.MFAPIURL, DefaultMFAPIURL, "MFINDIA_SOURCES_MFAPI_URL"),
		checkEndpoint("Value Research", cfg.Sources.PerformanceURL, DefaultPerformanceURL, "MFINDIA_SOURCES_PERFORMANCE_URL"),
	}
}

func checkEndpoint(name, value, def, envVar string) EndpointStatus {
	status := EndpointStatus{Name: name, URL: value}
	switch {
	case os.Getenv(envVar) != "":
		status.Source = SourceEnv
	case value != def:
		status.Source = SourceConfig
	default:
		status.Source = SourceDefault
	}
	return status
}
