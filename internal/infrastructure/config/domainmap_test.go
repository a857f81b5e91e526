package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomainMapYAML(t *testing.T) {
	m, err := ParseDomainMap(".yaml", []byte("domains:\n  Example.org: QortalName\n  blog.test: Blog\n"))
	require.NoError(t, err)

	name, ok := m.Lookup("example.org:8080")
	assert.True(t, ok)
	assert.Equal(t, "QortalName", name)

	name, ok = m.Lookup("BLOG.test.")
	assert.True(t, ok)
	assert.Equal(t, "Blog", name)

	_, ok = m.Lookup("other.test")
	assert.False(t, ok)
}

func TestParseDomainMapTOML(t *testing.T) {
	m, err := ParseDomainMap("toml", []byte("[domains]\n\"example.org\" = \"QortalName\"\n"))
	require.NoError(t, err)
	assert.Equal(t, DomainMap{"example.org": "QortalName"}, m)
}

func TestParseDomainMapErrors(t *testing.T) {
	_, err := ParseDomainMap(".json", []byte("{}"))
	assert.Error(t, err)

	_, err = ParseDomainMap(".yaml", []byte("domains: [1, 2"))
	assert.Error(t, err)

	_, err = ParseDomainMap(".toml", []byte("domains = 3"))
	assert.Error(t, err)

	_, err = ParseDomainMap(".yml", []byte("domains:\n  example.org: \"\"\n"))
	assert.Error(t, err)
}

func TestLoadDomainMap(t *testing.T) {
	m, err := LoadDomainMap("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = LoadDomainMap(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "domains.yml")
	require.NoError(t, os.WriteFile(file, []byte("domains:\n  a.test: A\n"), 0o600))
	m, err = LoadDomainMap(file)
	require.NoError(t, err)
	assert.Equal(t, DomainMap{"a.test": "A"}, m)
}
