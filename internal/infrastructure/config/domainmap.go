package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// DomainMap maps a request host to the registered name whose website it
// serves.
type DomainMap map[string]string

type domainMapFile struct {
	Domains map[string]string `yaml:"domains" toml:"domains"`
}

// LoadDomainMap reads a domain map from a .yaml, .yml or .toml file:
//
//	domains:
//	  example.org: QortalName
//
// An empty path yields an empty map.
func LoadDomainMap(path string) (DomainMap, error) {
	if path == "" {
		return DomainMap{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain map: %w", err)
	}
	return ParseDomainMap(filepath.Ext(path), data)
}

// ParseDomainMap decodes a domain map in the format named by ext.
func ParseDomainMap(ext string, data []byte) (DomainMap, error) {
	var file domainMapFile
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse domain map: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse domain map: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported domain map format %q", ext)
	}

	m := make(DomainMap, len(file.Domains))
	for host, name := range file.Domains {
		host = normalizeHost(host)
		if host == "" || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("domain map entry %q => %q is incomplete", host, name)
		}
		m[host] = strings.TrimSpace(name)
	}
	return m, nil
}

// Lookup returns the name mapped to host. Ports and case are ignored.
func (m DomainMap) Lookup(host string) (string, bool) {
	name, ok := m[normalizeHost(host)]
	return name, ok
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
