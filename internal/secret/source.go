// Package secret resolves the role password from its possible sources.
// The resolved value is handed straight to the provisioning plan and never
// logged; callers must not place it in error messages either.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// PasswordSource produces the password for the provisioned role.
type PasswordSource interface {
	// Resolve returns the password. An empty result is a configuration
	// error: the server would otherwise accept a role with an empty
	// password or reject the statement depending on its policy, and
	// neither is acceptable silently.
	Resolve(ctx context.Context) (string, error)

	// String returns a loggable description of the source. Never the value.
	String() string
}

// EnvSource reads the password from an environment variable.
type EnvSource struct {
	// Name is the environment variable name, e.g. KEYCLOAK_DB_PASSWORD.
	Name string
}

// NewEnvSource creates a source reading from the named environment variable.
func NewEnvSource(name string) *EnvSource {
	return &EnvSource{Name: name}
}

// Resolve reads the variable. Unset and empty are both configuration errors.
func (s *EnvSource) Resolve(_ context.Context) (string, error) {
	value, ok := os.LookupEnv(s.Name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set: %w", s.Name, pginit.ErrMissingPassword)
	}
	if value == "" {
		return "", fmt.Errorf("environment variable %s is empty: %w", s.Name, pginit.ErrMissingPassword)
	}
	return value, nil
}

func (s *EnvSource) String() string {
	return fmt.Sprintf("env(%s)", s.Name)
}

// FileSource reads the password from a file, the convention used by
// Docker/Kubernetes secret mounts. A single trailing newline is trimmed.
type FileSource struct {
	// Path is the file to read.
	Path string
}

// NewFileSource creates a source reading from the given file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Resolve reads the file. An empty (or whitespace-only) file is a
// configuration error.
func (s *FileSource) Resolve(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fmt.Errorf("failed to read password file %s: %w", s.Path, err)
	}

	value := strings.TrimRight(string(data), "\r\n")
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("password file %s is empty: %w", s.Path, pginit.ErrMissingPassword)
	}
	return value, nil
}

func (s *FileSource) String() string {
	return fmt.Sprintf("file(%s)", s.Path)
}
