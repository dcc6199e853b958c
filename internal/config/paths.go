package config

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultBaseDir = ".voicebot"

// Paths holds resolved filesystem paths for voice bot data.
type Paths struct {
	Base       string // ~/.voicebot
	Config     string // ~/.voicebot/config.yaml
	DotEnv     string // ~/.voicebot/.env
	Data       string // ~/.voicebot/data
	Cache      string // ~/.voicebot/cache
	Models     string // ~/.voicebot/models
	Utterances string // ~/.voicebot/utterances
}

// ResolvePaths computes the standard paths. VOICEBOT_HOME overrides the
// default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("VOICEBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:       base,
		Config:     filepath.Join(base, "config.yaml"),
		DotEnv:     filepath.Join(base, ".env"),
		Data:       filepath.Join(base, "data"),
		Cache:      filepath.Join(base, "cache"),
		Models:     filepath.Join(base, "models"),
		Utterances: filepath.Join(base, "utterances"),
	}, nil
}

// EnsureDirs creates the standard directories.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Cache, p.Models} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// DatabasePath returns the store location, honoring an explicit override.
func (p Paths) DatabasePath(cfg StoreConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(p.Data, "voicebot.db")
}

// ModelPath resolves a model file name relative to the models directory.
// Absolute paths are returned unchanged.
func (p Paths) ModelPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.Models, name)
}

// ParseConfigPath splits a dot-separated config path into segments.
func ParseConfigPath(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath walks a nested map along path.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	var cur any = root
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps
// and replacing scalars that stand in the way.
func SetValueAtPath(root map[string]any, path []string, value any) {
	cur := root
	for _, key := range path[:len(path)-1] {
		m, ok := cur[key].(map[string]any)
		if !ok {
			m = map[string]any{}
			cur[key] = m
		}
		cur = m
	}
	cur[path[len(path)-1]] = value
}

// UnsetValueAtPath removes the value at path and reports whether it existed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	parent, ok := GetValueAtPath(root, path[:len(path)-1])
	if !ok {
		return false
	}
	m, ok := parent.(map[string]any)
	if !ok {
		return false
	}
	last := path[len(path)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}
