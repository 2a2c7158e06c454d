package compose

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ProfileCache loads client profile files from a directory and serves them
// from memory. A missing profile is normal: not every client has one.
type ProfileCache struct {
	profilesDir string
	cache       map[string]*Profile
	mu          sync.RWMutex
}

func NewProfileCache(profilesDir string) *ProfileCache {
	return &ProfileCache{
		profilesDir: profilesDir,
		cache:       make(map[string]*Profile),
	}
}

func (pc *ProfileCache) Run() error {
	if _, err := os.Stat(pc.profilesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.profilesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		profileName := fileName[:len(fileName)-4] // Remove .yml extension

		profile, err := pc.LoadProfile(profileName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Profile loaded", "profile", profileName, "examples", len(profile.Examples))
	}

	return nil
}

func (pc *ProfileCache) LoadProfile(profileName string) (*Profile, error) {
	data, err := os.ReadFile(filepath.Join(pc.profilesDir, profileName+".yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	profile.Name = profileName

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache[profile.Name] = &profile

	return &profile, nil
}

// Get returns the cached profile or nil when the client has none.
func (pc *ProfileCache) Get(profileName string) *Profile {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.cache[profileName]
}

func (pc *ProfileCache) GetProfileCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}
