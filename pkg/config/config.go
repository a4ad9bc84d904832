package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	yaml "gopkg.in/yaml.v3"

	"github.com/smartok/b64/pkg/codec"
)

// Profile is a named set of codec and output options.
type Profile struct {
	Name         string `yaml:"name"`
	Alphabet     string `yaml:"alphabet,omitempty"`
	Padding      *bool  `yaml:"padding,omitempty"`
	Strict       bool   `yaml:"strict,omitempty"`
	ConstantTime bool   `yaml:"constant-time,omitempty"`
	Wrap         int    `yaml:"wrap,omitempty"`
	Output       string `yaml:"output,omitempty"`
}

// CodecOptions translates the profile into codec options. Padding defaults
// to on when unset.
func (p *Profile) CodecOptions() (codec.Options, error) {
	alphabet, err := codec.ParseAlphabet(p.Alphabet)
	if err != nil {
		return codec.Options{}, fmt.Errorf("profile %v: %w", p.Name, err)
	}
	if p.Wrap < 0 {
		return codec.Options{}, fmt.Errorf("profile %v: wrap must not be negative", p.Name)
	}
	return codec.Options{
		Alphabet:     alphabet,
		NoPadding:    p.Padding != nil && !*p.Padding,
		Strict:       p.Strict,
		ConstantTime: p.ConstantTime,
		Wrap:         p.Wrap,
	}, nil
}

type Config struct {
	CurrentProfile  string     `yaml:"current-profile"`
	ProfileOverride string     `yaml:"-"`
	Profiles        []*Profile `yaml:"profiles"`
	// configPath is the file path used for reading and writing this config.
	configPath string `yaml:"-"`
}

func (c *Config) HasProfile(name string) bool {
	for _, profile := range c.Profiles {
		if profile.Name == name {
			return true
		}
	}
	return false
}

func (c *Config) SetCurrentProfile(name string) error {
	var oldProfile string
	if c.ActiveProfile() != nil {
		oldProfile = c.ActiveProfile().Name
	}
	for _, profile := range c.Profiles {
		if profile.Name == name {
			c.CurrentProfile = name

			if err := c.Write(); err != nil {
				// Revert, either everything is successful or nothing.
				c.CurrentProfile = oldProfile
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("could not find profile with name %v", name)
}

// ActiveProfile returns a copy of the selected profile, or nil.
func (c *Config) ActiveProfile() *Profile {
	if c == nil {
		return nil
	}

	toSearch := c.ProfileOverride
	if c.ProfileOverride == "" {
		toSearch = c.CurrentProfile
	}

	if toSearch == "" {
		return nil
	}

	for _, profile := range c.Profiles {
		if profile.Name == toSearch {
			// Copy so callers applying flag overrides never write them back
			// into the config.
			p := *profile
			return &p
		}
	}
	return nil
}

// AddProfile appends p and persists the config.
func (c *Config) AddProfile(p *Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if c.HasProfile(p.Name) {
		return fmt.Errorf("could not add profile: a profile with name %v exists already", p.Name)
	}
	if _, err := p.CodecOptions(); err != nil {
		return err
	}
	c.Profiles = append(c.Profiles, p)
	if err := c.Write(); err != nil {
		c.Profiles = c.Profiles[:len(c.Profiles)-1]
		return err
	}
	return nil
}

// UpsertProfile adds p or replaces the profile of the same name, makes it
// current when no profile is, and persists the config. Nothing changes if
// the write fails.
func (c *Config) UpsertProfile(p *Profile) (replaced bool, err error) {
	if p.Name == "" {
		return false, fmt.Errorf("profile name must not be empty")
	}

	oldProfiles := append([]*Profile(nil), c.Profiles...)
	oldCurrent := c.CurrentProfile

	for i, existing := range c.Profiles {
		if existing.Name == p.Name {
			c.Profiles[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		c.Profiles = append(c.Profiles, p)
	}
	if c.CurrentProfile == "" {
		c.CurrentProfile = p.Name
	}

	if err := c.Write(); err != nil {
		c.Profiles = oldProfiles
		c.CurrentProfile = oldCurrent
		return false, err
	}
	return replaced, nil
}

// RemoveProfile deletes the named profile and persists the config. If it
// was the current profile, no profile is current afterwards.
func (c *Config) RemoveProfile(name string) error {
	idx := -1
	for i, profile := range c.Profiles {
		if profile.Name == name {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("could not find profile with name %v", name)
	}

	old := c.Profiles
	oldCurrent := c.CurrentProfile
	c.Profiles = append(append([]*Profile(nil), old[:idx]...), old[idx+1:]...)
	if c.CurrentProfile == name {
		c.CurrentProfile = ""
	}
	if err := c.Write(); err != nil {
		c.Profiles = old
		c.CurrentProfile = oldCurrent
		return err
	}
	return nil
}

// Path is where the config is read from and written to.
func (c *Config) Path() string {
	return c.configPath
}

// Write persists the config atomically with mode 0600.
func (c *Config) Write() (err error) {
	path := c.configPath
	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err = tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}

// ReadConfig loads the config at cfgPath, or the default location when
// cfgPath is empty. An explicit path must exist; a missing default file
// yields an empty config.
func ReadConfig(cfgPath string) (Config, error) {
	explicit := cfgPath != ""
	path, err := resolvePath(cfgPath)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Config{configPath: path}, nil
	case errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("config file %q does not exist", cfgPath)
	case err != nil:
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	c := Config{configPath: path}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode config %v: %w", path, err)
	}
	return c, nil
}

func resolvePath(cfgPath string) (string, error) {
	if cfgPath == "" {
		return DefaultPath()
	}
	return homedir.Expand(cfgPath)
}

// DefaultPath is $HOME/.b64/config.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".b64", "config"), nil
}
