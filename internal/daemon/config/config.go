package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/driftbox/driftbox/internal/jsonutil"
	"github.com/driftbox/driftbox/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultConfigPath  = filepath.Join(home, ".driftbox", "config.json")
	DefaultDataDir     = filepath.Join(home, "DriftBox")
	DefaultProjectsDir = filepath.Join(home, "Projects")
	DefaultLogFilePath = filepath.Join(home, ".driftbox", "logs", "driftbox.log")
)

type Config struct {
	// DataDir holds the mirror root, logs and internal state.
	DataDir string `json:"data_dir"`
	// ProjectsDir is the directory whose subdirectories are treated as
	// projects by the daemon.
	ProjectsDir string `json:"projects_dir"`
	Path        string `json:"-"`
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data dir is required")
	}
	if c.ProjectsDir == "" {
		return errors.New("projects dir is required")
	}

	dataDir, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return err
	}
	projectsDir, err := utils.ResolvePath(c.ProjectsDir)
	if err != nil {
		return err
	}
	if dataDir == projectsDir {
		return errors.New("data dir and projects dir must differ")
	}

	c.DataDir = dataDir
	c.ProjectsDir = projectsDir
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := jsonutil.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := jsonutil.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Path = path
	return &cfg, nil
}
