// Package config defines the envcfg-based environment configuration for
// the server and importer entry points, grounded on cl-release's and
// cl.httpd's Cfg-struct-plus-envcfg.Unmarshal idiom.
package config

import (
	"fmt"

	"github.com/tomazk/envcfg"
)

// ServerCfg configures cmd/hwapi-server.
type ServerCfg struct {
	DBURL          string `envcfg:"DB_URL"`
	ListenAddr     string `envcfg:"HWAPI_LISTEN_ADDR"`
	PrometheusAddr string `envcfg:"HWAPI_PROMETHEUS_ADDR"`
}

// ImporterCfg configures cmd/hwapi-import.
type ImporterCfg struct {
	DBURL string `envcfg:"DB_URL"`
	C3URL string `envcfg:"C3_URL"`
}

// LoadServer unmarshals the server environment and applies defaults.
func LoadServer() (ServerCfg, error) {
	var c ServerCfg
	if err := envcfg.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("environment error: %w", err)
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DBURL == "" {
		return c, fmt.Errorf("DB_URL must be set")
	}
	return c, nil
}

// LoadImporter unmarshals the importer environment and applies defaults.
func LoadImporter() (ImporterCfg, error) {
	var c ImporterCfg
	if err := envcfg.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("environment error: %w", err)
	}
	if c.C3URL == "" {
		c.C3URL = "https://certification.canonical.com"
	}
	if c.DBURL == "" {
		return c, fmt.Errorf("DB_URL must be set")
	}
	return c, nil
}
