// CLAUDE:SUMMARY File-backed project registry: YAML load/save, token resolution, interval.
package tracker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Project is one tracked Overleaf project.
type Project struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	GitURL string `yaml:"git_url,omitempty" json:"git_url"`
}

// configFile is the on-disk YAML shape.
type configFile struct {
	Projects              []Project `yaml:"projects"`
	UpdateIntervalMinutes int       `yaml:"update_interval_minutes"`
	// OverleafToken is the legacy single-token field. The OVERLEAF_TOKEN
	// environment variable takes precedence and supports several tokens.
	OverleafToken string `yaml:"overleaf_token,omitempty"`
}

func (f *configFile) defaults() {
	if f.UpdateIntervalMinutes <= 0 {
		f.UpdateIntervalMinutes = 60
	}
}

// Config is the mutable service configuration, persisted as YAML. All
// methods are safe for concurrent use; every mutation is written back to
// disk before it returns.
type Config struct {
	mu   sync.Mutex
	path string
	file configFile
}

// LoadConfig reads the YAML config at path. A missing file yields a valid
// empty configuration with defaults; it is created on the first mutation.
func LoadConfig(path string) (*Config, error) {
	c := &Config{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c.file.defaults()
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &c.file); err != nil {
		return nil, fmt.Errorf("tracker: parse config %s: %w", path, err)
	}
	c.file.defaults()
	return c, nil
}

// save writes the config atomically: temp file in the same directory, then
// rename. Caller holds c.mu.
func (c *Config) save() error {
	raw, err := yaml.Marshal(&c.file)
	if err != nil {
		return fmt.Errorf("tracker: marshal config: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tracker: create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("tracker: write config: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("tracker: write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tracker: write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tracker: write config: %w", err)
	}
	return nil
}

// Projects returns a copy of the configured projects.
func (c *Config) Projects() []Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Project, len(c.file.Projects))
	copy(out, c.file.Projects)
	return out
}

// Project looks up one project by ID.
func (c *Config) Project(id string) (Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.file.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// AddProject registers a project and persists the config. An empty GitURL
// defaults to the Overleaf git bridge URL for the project ID. An empty Name
// defaults to the ID.
func (c *Config) AddProject(p Project) (Project, error) {
	if p.ID == "" {
		return Project{}, fmt.Errorf("tracker: project id required")
	}
	if p.GitURL == "" {
		p.GitURL = "https://git.overleaf.com/" + p.ID
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.file.Projects {
		if existing.ID == p.ID {
			return Project{}, fmt.Errorf("%w: %s", ErrProjectExists, p.ID)
		}
	}
	c.file.Projects = append(c.file.Projects, p)
	if err := c.save(); err != nil {
		c.file.Projects = c.file.Projects[:len(c.file.Projects)-1]
		return Project{}, err
	}
	return p, nil
}

// RemoveProject deletes a project from the config and persists it.
func (c *Config) RemoveProject(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.file.Projects {
		if p.ID != id {
			continue
		}
		prev := c.file.Projects
		next := make([]Project, 0, len(prev)-1)
		next = append(next, prev[:i]...)
		next = append(next, prev[i+1:]...)
		c.file.Projects = next
		if err := c.save(); err != nil {
			c.file.Projects = prev
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
}

// Names returns the project ID → display name mapping.
func (c *Config) Names() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make(map[string]string, len(c.file.Projects))
	for _, p := range c.file.Projects {
		names[p.ID] = p.Name
	}
	return names
}

// UpdateInterval returns the configured interval between scheduled runs.
func (c *Config) UpdateInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.file.UpdateIntervalMinutes) * time.Minute
}

// SetUpdateInterval changes the scheduled run interval and persists it.
// Minutes below 1 are rejected.
func (c *Config) SetUpdateInterval(minutes int) error {
	if minutes < 1 {
		return fmt.Errorf("tracker: update interval must be at least 1 minute, got %d", minutes)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.file.UpdateIntervalMinutes
	c.file.UpdateIntervalMinutes = minutes
	if err := c.save(); err != nil {
		c.file.UpdateIntervalMinutes = prev
		return err
	}
	return nil
}

// Tokens resolves the Overleaf access tokens to try, in order. The
// OVERLEAF_TOKEN environment variable wins and may hold several tokens
// separated by commas; the legacy overleaf_token config field is the
// fallback.
func (c *Config) Tokens() []string {
	if env := os.Getenv("OVERLEAF_TOKEN"); env != "" {
		var tokens []string
		for _, t := range strings.Split(env, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tokens = append(tokens, t)
			}
		}
		if len(tokens) > 0 {
			return tokens
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file.OverleafToken != "" {
		return []string{c.file.OverleafToken}
	}
	return nil
}
