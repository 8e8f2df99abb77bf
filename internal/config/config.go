// Package config loads the pipeline configuration: the service catalog,
// registry coordinates and the scan roster. The catalog is ordinary
// configuration data rather than a hardcoded enumeration, so it can be
// tested without any CI host.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/melih/slipway/internal/core/domain"
)

const (
	defaultSourceRoot = "src"
	defaultBaseRef    = "origin/main"
)

// serviceNamePattern matches the directory names services may use.
var serviceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// ScanConfig declares one scanner invocation run against every selected
// service.
type ScanConfig struct {
	Name  string   `yaml:"name"`
	Image string   `yaml:"image"`
	Args  []string `yaml:"args"`
}

// RegistryConfig locates the registry images are pushed to. Images are
// tagged <host>/<namespace>/<service>:<tag>.
type RegistryConfig struct {
	Host      string `yaml:"host"`
	Namespace string `yaml:"namespace"`
}

// Config is the full pipeline configuration, immutable after Load.
type Config struct {
	Services   []string       `yaml:"services"`
	SourceRoot string         `yaml:"source_root"`
	BaseRef    string         `yaml:"base_ref"`
	Registry   RegistryConfig `yaml:"registry"`
	Scans      []ScanConfig   `yaml:"scans"`
}

// Parse decodes and validates a configuration payload.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("config: payload is empty")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourceRoot == "" {
		c.SourceRoot = defaultSourceRoot
	}
	if c.BaseRef == "" {
		c.BaseRef = defaultBaseRef
	}
}

func (c *Config) validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("config: services list is empty")
	}
	seen := make(map[string]struct{}, len(c.Services))
	for _, s := range c.Services {
		if !serviceNamePattern.MatchString(s) {
			return fmt.Errorf("config: invalid service name %q", s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("config: duplicate service %q", s)
		}
		seen[s] = struct{}{}
	}
	if c.Registry.Host == "" {
		return fmt.Errorf("config: registry host is required")
	}
	for i, scan := range c.Scans {
		if scan.Name == "" {
			return fmt.Errorf("config: scan %d has no name", i)
		}
		if scan.Image == "" {
			return fmt.Errorf("config: scan %q has no image", scan.Name)
		}
	}
	return nil
}

// Catalog returns the service catalog view of the configuration.
func (c *Config) Catalog() domain.Catalog {
	return domain.Catalog{Services: c.Services, SourceRoot: c.SourceRoot}
}

// ScanSpecs returns the configured scans as domain specs.
func (c *Config) ScanSpecs() []domain.ScanSpec {
	specs := make([]domain.ScanSpec, 0, len(c.Scans))
	for _, s := range c.Scans {
		specs = append(specs, domain.ScanSpec{Name: s.Name, Image: s.Image, Args: s.Args})
	}
	return specs
}

// ImageRef builds the registry reference for a service at a tag.
func (c *Config) ImageRef(service, tag string) string {
	if c.Registry.Namespace == "" {
		return fmt.Sprintf("%s/%s:%s", c.Registry.Host, service, tag)
	}
	return fmt.Sprintf("%s/%s/%s:%s", c.Registry.Host, c.Registry.Namespace, service, tag)
}
