// Package config loads the migration configuration.
//
// Configuration comes from a YAML file (sf2github.yaml in the working
// directory, or --config) with environment overrides under the SF2GITHUB_
// prefix, e.g. SF2GITHUB_GITHUB_TOKEN for github.token. It is loaded once
// at startup and immutable for the run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the migration consumes.
type Config struct {
	// GitHub identifies the destination repository and credentials.
	GitHub GitHubConfig

	// Sourceforge identifies the source project; its fields appear in the
	// header URLs embedded in migrated bodies.
	Sourceforge SourceforgeConfig

	// StatusLabels maps a Sourceforge status to the full label set the
	// destination issue should carry. An unmapped status means an empty
	// set: the reconciler strips labels it would otherwise manage.
	StatusLabels map[string][]string

	// Milestones maps a Sourceforge milestone name to the destination
	// milestone title. Unmapped milestones are a deliberate no-op.
	Milestones map[string]string

	// Users maps a Sourceforge username to the destination login for
	// assignee updates. Unmapped users are a deliberate no-op.
	Users map[string]string

	// Revisions maps a Sourceforge revision number to the destination
	// commit hash, used to relink r123-style references.
	Revisions map[int]string

	// ClosedStatuses lists the statuses that count as closed. Empty means
	// "any status with the closed prefix".
	ClosedStatuses []string

	// MutationDelay is the pause after each mutating API call.
	MutationDelay time.Duration
}

// GitHubConfig carries destination credentials and repository identity.
type GitHubConfig struct {
	Token string
	Owner string
	Repo  string
}

// SourceforgeConfig identifies the source tracker. Mount is the tracker
// mount point in project URLs ("bugs", "feature-requests", ...).
type SourceforgeConfig struct {
	Project string
	Mount   string
}

// Load reads the configuration from path, or from sf2github.yaml in the
// working directory when path is empty. Missing credentials or repository
// identity are fatal; the mappings all default to empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sf2github")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SF2GITHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sourceforge.mount", "bugs")
	v.SetDefault("delay", time.Second)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	sections, err := loadMappings(v.ConfigFileUsed())
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token: v.GetString("github.token"),
			Owner: v.GetString("github.owner"),
			Repo:  v.GetString("github.repo"),
		},
		Sourceforge: SourceforgeConfig{
			Project: v.GetString("sourceforge.project"),
			Mount:   v.GetString("sourceforge.mount"),
		},
		StatusLabels:   sections.Labels,
		Milestones:     sections.Milestones,
		Users:          sections.Users,
		ClosedStatuses: v.GetStringSlice("closed_statuses"),
		MutationDelay:  v.GetDuration("delay"),
	}

	revisions, err := parseRevisions(sections.Revisions)
	if err != nil {
		return nil, err
	}
	cfg.Revisions = revisions

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mappings holds the config sections whose keys must keep their exact
// case: a milestone named "Beta" or a user named "SFBob" has to match the
// dump verbatim. Viper lowercases map keys on load, so these sections are
// decoded from the config file directly.
type mappings struct {
	Labels     map[string][]string `yaml:"labels"`
	Milestones map[string]string   `yaml:"milestones"`
	Users      map[string]string   `yaml:"users"`
	Revisions  map[string]string   `yaml:"revisions"`
}

func loadMappings(path string) (*mappings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var m mappings
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse config mappings: %w", err)
	}
	return &m, nil
}

// parseRevisions converts the YAML revision map (string keys) into the
// numeric map the sanitizer consumes. Non-numeric keys are configuration
// errors, not silently dropped.
func parseRevisions(raw map[string]string) (map[int]string, error) {
	revisions := make(map[int]string, len(raw))
	for key, hash := range raw {
		rev, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("revision key %q is not a number", key)
		}
		revisions[rev] = hash
	}
	return revisions, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, "github.token")
	}
	if c.GitHub.Owner == "" {
		missing = append(missing, "github.owner")
	}
	if c.GitHub.Repo == "" {
		missing = append(missing, "github.repo")
	}
	if c.Sourceforge.Project == "" {
		missing = append(missing, "sourceforge.project")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
