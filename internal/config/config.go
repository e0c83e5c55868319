// Package config loads the optional provisioning manifest. The built-in
// defaults reproduce the DrinkBar init script exactly; a manifest lets an
// operator rename the role and databases or narrow the grants without
// forking the tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/drinkbar/pginit/pkg/pginit"
)

// ErrManifestNotFound is returned when the manifest file does not exist.
// Callers can check for this with errors.Is(err, config.ErrManifestNotFound).
var ErrManifestNotFound = errors.New("manifest file not found")

// ConnectionDefaults are connection parameters a manifest may pin so the
// CLI invocation stays short. CLI flags and environment variables take
// precedence over these.
type ConnectionDefaults struct {
	Host          string `yaml:"host,omitempty"`
	Port          int    `yaml:"port,omitempty"`
	Username      string `yaml:"username,omitempty"`
	AdminDatabase string `yaml:"admin_database,omitempty"`
	SSLMode       string `yaml:"sslmode,omitempty"`
}

// GrantEntry is the YAML form of one grant specification.
type GrantEntry struct {
	// Target is one of: schema, database, future-tables, future-sequences.
	Target string `yaml:"target"`

	// Privileges lists the privileges to grant; empty or ["ALL"] means ALL.
	Privileges []string `yaml:"privileges,omitempty"`
}

// Manifest describes what to provision.
type Manifest struct {
	// Role is the name of the role to create.
	Role string `yaml:"role"`

	// PasswordEnv names the environment variable holding the role password.
	PasswordEnv string `yaml:"password_env,omitempty"`

	// AuthDatabase is the identity provider's database.
	AuthDatabase string `yaml:"auth_database"`

	// AppDatabase is the application database receiving the grants.
	AppDatabase string `yaml:"app_database"`

	// Grants applied to AppDatabase. Empty means the built-in ALL grants.
	Grants []GrantEntry `yaml:"grants,omitempty"`

	// Timeout for the whole run, parsed with time.ParseDuration.
	Timeout string `yaml:"timeout,omitempty"`

	// Connection defaults (lowest precedence).
	Connection ConnectionDefaults `yaml:"connection,omitempty"`
}

// Default returns the built-in manifest reproducing the original init script:
// a keycloak role with CREATEDB, a keycloak database, a drinkbar database,
// and ALL-privilege grants including default privileges for future tables
// and sequences.
func Default() *Manifest {
	return &Manifest{
		Role:         pginit.DefaultRoleName,
		PasswordEnv:  pginit.DefaultPasswordEnv,
		AuthDatabase: pginit.DefaultAuthDatabase,
		AppDatabase:  pginit.DefaultAppDatabase,
		Grants: []GrantEntry{
			{Target: "schema"},
			{Target: "database"},
			{Target: "future-tables"},
			{Target: "future-sequences"},
		},
	}
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	// Fill gaps from the defaults so a manifest can override just one field.
	defaults := Default()
	if m.Role == "" {
		m.Role = defaults.Role
	}
	if m.PasswordEnv == "" {
		m.PasswordEnv = defaults.PasswordEnv
	}
	if m.AuthDatabase == "" {
		m.AuthDatabase = defaults.AuthDatabase
	}
	if m.AppDatabase == "" {
		m.AppDatabase = defaults.AppDatabase
	}
	if len(m.Grants) == 0 {
		m.Grants = defaults.Grants
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return &m, nil
}

func (m *Manifest) validate() error {
	var errs []error

	if m.AuthDatabase == m.AppDatabase {
		errs = append(errs, fmt.Errorf("auth_database and app_database must differ"))
	}

	for i, g := range m.Grants {
		if _, err := ParseGrantTarget(g.Target); err != nil {
			errs = append(errs, fmt.Errorf("grants[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// GrantSpecs converts the manifest's grant entries to the typed form.
// Must only be called on a validated manifest; unknown targets panic.
func (m *Manifest) GrantSpecs() []pginit.GrantSpec {
	specs := make([]pginit.GrantSpec, 0, len(m.Grants))
	for _, g := range m.Grants {
		target, err := ParseGrantTarget(g.Target)
		if err != nil {
			panic(fmt.Sprintf("unvalidated manifest: %v", err))
		}

		privileges := g.Privileges
		if len(privileges) == 1 && strings.EqualFold(privileges[0], "ALL") {
			privileges = nil
		}

		specs = append(specs, pginit.GrantSpec{
			Target:     target,
			Privileges: privileges,
		})
	}
	return specs
}

// ParseGrantTarget maps the YAML target keyword to its typed value.
func ParseGrantTarget(s string) (pginit.GrantTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "schema":
		return pginit.GrantTargetSchema, nil
	case "database":
		return pginit.GrantTargetDatabase, nil
	case "future-tables", "future_tables":
		return pginit.GrantTargetFutureTables, nil
	case "future-sequences", "future_sequences":
		return pginit.GrantTargetFutureSequences, nil
	default:
		return 0, fmt.Errorf("unknown grant target %q (expected schema, database, future-tables, or future-sequences)", s)
	}
}
