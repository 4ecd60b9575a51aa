package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
)

func errProfileNotFound(name string) error {
	return fmt.Errorf("profile %q not found", name)
}

// stored returns the config file as written, or nil when there is none.
func stored() (*Config, error) {
	cfg, err := load()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return cfg, err
}

// update applies fn to the stored config, starting from an empty one when
// the file does not exist yet, and writes the result back.
func update(fn func(cfg *Config) error) error {
	cfg, err := stored()
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return save(cfg)
}

func (c *Config) profileIndex(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

func List() ([]Profile, error) {
	cfg, err := stored()
	if err != nil || cfg == nil {
		return nil, err
	}
	return cfg.Profiles, nil
}

func Resolve(name string) (string, error) {
	cfg, err := stored()
	if err != nil {
		return "", err
	}
	if cfg == nil {
		return "", fmt.Errorf("no profiles configured")
	}

	i := cfg.profileIndex(name)
	if i < 0 {
		return "", errProfileNotFound(name)
	}
	return cfg.Profiles[i].ConnStr, nil
}

// ResolveConnStr picks the connection string for a command: an explicit
// --db wins, then --profile, then the configured default. An empty result
// with a nil error means no database is configured.
func ResolveConnStr(db, profileName string) (string, error) {
	switch {
	case db != "":
		return db, nil
	case profileName != "":
		return Resolve(profileName)
	}

	def, err := GetDefault()
	if err != nil || def == "" {
		return "", err
	}
	return Resolve(def)
}

// Add creates a profile or replaces the connection string of an existing one.
func Add(name, connStr string) error {
	if name == "" {
		return fmt.Errorf("profile name must not be empty")
	}

	return update(func(cfg *Config) error {
		if i := cfg.profileIndex(name); i >= 0 {
			cfg.Profiles[i].ConnStr = connStr
			return nil
		}
		cfg.Profiles = append(cfg.Profiles, Profile{Name: name, ConnStr: connStr})
		return nil
	})
}

// Remove deletes a profile and clears the default if it pointed at it.
func Remove(name string) error {
	return update(func(cfg *Config) error {
		i := cfg.profileIndex(name)
		if i < 0 {
			return errProfileNotFound(name)
		}
		cfg.Profiles = slices.Delete(cfg.Profiles, i, i+1)
		if cfg.Default == name {
			cfg.Default = ""
		}
		return nil
	})
}

func GetDefault() (string, error) {
	cfg, err := stored()
	if err != nil || cfg == nil {
		return "", err
	}
	return cfg.Default, nil
}

func SetDefault(name string) error {
	return update(func(cfg *Config) error {
		if cfg.profileIndex(name) < 0 {
			return errProfileNotFound(name)
		}
		cfg.Default = name
		return nil
	})
}

func ClearDefault() error {
	cfg, err := stored()
	if err != nil || cfg == nil {
		return err
	}
	cfg.Default = ""
	return save(cfg)
}
