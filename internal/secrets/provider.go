package secrets

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Provider supplies secret values by key. An empty value is treated as
// missing everywhere in this package, so providers may return it as found.
type Provider interface {
	// Lookup returns the value for a key and whether the provider has it.
	Lookup(key string) (string, bool)
	// Name identifies the provider in diagnostics.
	Name() string
}

// EnvProvider reads secrets from the process environment.
type EnvProvider struct{}

// Lookup returns the environment variable's value.
func (EnvProvider) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Name identifies the provider in diagnostics.
func (EnvProvider) Name() string { return "environment" }

// FileProvider reads secrets from a dotenv file loaded at construction time.
type FileProvider struct {
	path   string
	values map[string]string
}

// NewFileProvider loads a dotenv file. A file that does not exist yields an
// empty provider, since the .env file is optional by convention. A file that
// exists but cannot be parsed is an error.
func NewFileProvider(path string) (*FileProvider, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileProvider{path: path, values: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return &FileProvider{path: path, values: values}, nil
}

// Lookup returns the value parsed from the file.
func (p *FileProvider) Lookup(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Name identifies the provider in diagnostics.
func (p *FileProvider) Name() string { return p.path }

// StaticProvider serves a fixed map, primarily for tests.
type StaticProvider map[string]string

// Lookup returns the value from the underlying map.
func (p StaticProvider) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Name identifies the provider in diagnostics.
func (StaticProvider) Name() string { return "static" }
