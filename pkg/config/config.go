// Package config loads trunkline's project-local configuration, grounded
// on the teacher's pkg/config/config.go: a single struct with mapstructure
// tags, viper defaults, and post-load validation, persisted as
// config.yaml (spec.md §6) rather than the teacher's richer multi-tool
// config file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// ForgeKind names the remote hosting provider behind ForgePort. Only
// "github" has a concrete implementation; the field exists so the
// abstraction in SPEC_FULL.md's ForgePort survives a future provider.
type ForgeKind string

const (
	ForgeGitHub ForgeKind = "github"
)

// GitConfig controls local-repository defaults.
type GitConfig struct {
	MainBranch string `mapstructure:"main_branch"`
	Remote     string `mapstructure:"remote"`
}

// ForgeConfig controls remote-forge access.
type ForgeConfig struct {
	Kind                ForgeKind `mapstructure:"kind"`
	Owner               string    `mapstructure:"owner"`
	Repo                string    `mapstructure:"repo"`
	Token               string    `mapstructure:"token"`
	AuthMethod          string    `mapstructure:"auth_method"` // token | oauth | cli
	ClientID            string    `mapstructure:"client_id"`
	DefaultMergeMethod  string    `mapstructure:"default_merge_method"`
	DeleteBranchOnMerge bool      `mapstructure:"delete_branch_on_merge"`
}

// ShipConfig controls the ship pipeline's CI-wait behavior.
type ShipConfig struct {
	CITimeout    time.Duration `mapstructure:"ci_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SessionConfig controls SessionStore TTL and lock behavior.
type SessionConfig struct {
	TTLDays         int           `mapstructure:"ttl_days"`
	StaleLockAfter  time.Duration `mapstructure:"stale_lock_after"`
	LockAcquireWait time.Duration `mapstructure:"lock_acquire_wait"`
}

// UserConfig identifies the operator for audit/attribution purposes.
type UserConfig struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// AIConfig controls optional PR-description drafting (SPEC_FULL.md §9
// expansion). Never required for ship to succeed.
type AIConfig struct {
	Provider string `mapstructure:"provider"` // anthropic | none
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// Config is the full trunkline configuration, persisted as config.yaml
// under the project-local state directory.
type Config struct {
	StateDir string        `mapstructure:"-"` // not persisted; set at load time
	Git      GitConfig     `mapstructure:"git"`
	Forge    ForgeConfig   `mapstructure:"forge"`
	Ship     ShipConfig    `mapstructure:"ship"`
	Session  SessionConfig `mapstructure:"session"`
	User     UserConfig    `mapstructure:"user"`
	AI       AIConfig      `mapstructure:"ai"`
}

const (
	// StateDirName is the default project-local directory name, mirroring
	// the teacher's ".rig" convention (pkg/workflow/checkpoint.go: rigDir).
	StateDirName = ".trunkline"
	configFile   = "config.yaml"
	envPrefix    = "TRUNKLINE"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("git.main_branch", "main")
	v.SetDefault("git.remote", "origin")

	v.SetDefault("forge.kind", string(ForgeGitHub))
	v.SetDefault("forge.auth_method", "token")
	v.SetDefault("forge.default_merge_method", "squash")
	v.SetDefault("forge.delete_branch_on_merge", true)

	v.SetDefault("ship.ci_timeout", 20*time.Minute)
	v.SetDefault("ship.poll_interval", 30*time.Second)

	v.SetDefault("session.ttl_days", 30)
	v.SetDefault("session.stale_lock_after", 24*time.Hour)
	v.SetDefault("session.lock_acquire_wait", 5*time.Second)

	v.SetDefault("ai.provider", "none")
}

// Load reads config.yaml from stateDir (merging TRUNKLINE_* environment
// overrides) and validates the result. If config.yaml does not exist,
// ErrNotInitialized is returned, mirroring the teacher's init-gate
// behavior in cmd/root.go.
func Load(stateDir string) (*Config, error) {
	path := filepath.Join(stateDir, configFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, tlerrors.ErrNotInitialized
		}
		return nil, tlerrors.NewConfigErrorWithCause("config.yaml", "failed to stat config file", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, tlerrors.NewConfigErrorWithCause("config.yaml", "failed to read config file", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, tlerrors.NewConfigErrorWithCause("config.yaml", "failed to unmarshal config", err)
	}
	cfg.StateDir = stateDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidMergeMethods lists the merge strategies the ForgePort accepts.
var ValidMergeMethods = map[string]bool{
	"squash": true,
	"merge":  true,
	"rebase": true,
}

// Validate checks structural constraints that viper's unmarshal cannot
// enforce on its own.
func (c *Config) Validate() error {
	if c.Forge.Owner == "" || c.Forge.Repo == "" {
		return tlerrors.NewConfigError("forge.owner/forge.repo", "owner and repo must both be set")
	}
	if !ValidMergeMethods[c.Forge.DefaultMergeMethod] {
		return tlerrors.NewConfigError("forge.default_merge_method",
			"must be one of squash, merge, rebase")
	}
	if c.Ship.CITimeout <= 0 {
		return tlerrors.NewConfigError("ship.ci_timeout", "must be positive")
	}
	if c.Ship.PollInterval <= 0 || c.Ship.PollInterval > c.Ship.CITimeout {
		return tlerrors.NewConfigError("ship.poll_interval", "must be positive and <= ci_timeout")
	}
	if c.Session.TTLDays <= 0 {
		return tlerrors.NewConfigError("session.ttl_days", "must be positive")
	}
	return nil
}

// CheckSecurityWarnings mirrors the teacher's posture of warning (not
// failing) when a secret lives in the config file instead of the
// environment.
func (c *Config) CheckSecurityWarnings() []string {
	var warnings []string
	if c.Forge.Token != "" {
		warnings = append(warnings,
			"forge.token is set in config.yaml; prefer the TRUNKLINE_FORGE_TOKEN environment variable")
	}
	if c.AI.APIKey != "" {
		warnings = append(warnings,
			"ai.api_key is set in config.yaml; prefer the TRUNKLINE_AI_API_KEY environment variable")
	}
	return warnings
}

// ExpandStateDir resolves a leading ~ in a user-supplied state directory
// path, matching the teacher's expandPath behavior.
func ExpandStateDir(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", tlerrors.NewConfigErrorWithCause("state_dir", "failed to resolve home directory", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
