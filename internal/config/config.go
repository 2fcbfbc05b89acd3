package config

import (
	"fmt"
	"os"
	"path/filepath"

	"catsort/pkg/types"

	"gopkg.in/yaml.v3"
)

// Template is a named, reusable set of categories offered when creating a
// directory configuration.
type Template struct {
	Name        string           `yaml:"name"`        // Template name
	Description string           `yaml:"description"` // Template description
	Categories  []types.Category `yaml:"categories"`  // Categories copied into new configs
	Ignore      []string         `yaml:"ignore"`      // Ignore globs copied into new configs
}

// Config represents the application settings. Per-directory categorization
// rules live in the store, not here.
type Config struct {
	Store struct {
		Directory string `yaml:"directory"` // Where directory configs are kept
	} `yaml:"store"`
	Logging struct {
		Level string `yaml:"level"` // debug, info, warn, error
		JSON  bool   `yaml:"json"`  // One JSON object per line
		File  string `yaml:"file"`  // Optional log file, tee'd with stdout
	} `yaml:"logging"`
	Metrics struct {
		Textfile string `yaml:"textfile"` // Prometheus textfile written after runs
	} `yaml:"metrics"`
	Watch struct {
		Enabled    bool `yaml:"enabled"`     // Re-run on filesystem events
		DebounceMS int  `yaml:"debounce_ms"` // Quiet period before a triggered run
	} `yaml:"watch"`
	History struct {
		Disabled      bool   `yaml:"disabled"`       // Do not keep a run log
		Path          string `yaml:"path"`           // SQLite database file
		RetentionDays int    `yaml:"retention_days"` // Runs older than this are pruned, 0 keeps all
	} `yaml:"history"`
	Templates []Template `yaml:"templates"`
}

// DefaultDir returns ~/.config/catsort.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "catsort"), nil
}

// LoadConfig loads configuration from the default location
// (~/.config/catsort/config.yaml).
func LoadConfig() (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(filepath.Join(dir, "config.yaml"))
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge the loaded config with defaults
	if tempCfg.Store.Directory != "" {
		cfg.Store.Directory = tempCfg.Store.Directory
	}
	if tempCfg.Logging.Level != "" {
		cfg.Logging.Level = tempCfg.Logging.Level
	}
	cfg.Logging.JSON = tempCfg.Logging.JSON
	cfg.Logging.File = tempCfg.Logging.File
	cfg.Metrics.Textfile = tempCfg.Metrics.Textfile
	cfg.Watch.Enabled = tempCfg.Watch.Enabled
	if tempCfg.Watch.DebounceMS > 0 {
		cfg.Watch.DebounceMS = tempCfg.Watch.DebounceMS
	}
	cfg.History.Disabled = tempCfg.History.Disabled
	if tempCfg.History.Path != "" {
		cfg.History.Path = tempCfg.History.Path
	}
	if tempCfg.History.RetentionDays != 0 {
		cfg.History.RetentionDays = tempCfg.History.RetentionDays
	}
	if len(tempCfg.Templates) > 0 {
		cfg.Templates = tempCfg.Templates
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{}

	if dir, err := DefaultDir(); err == nil {
		cfg.Store.Directory = filepath.Join(dir, "configs")
		cfg.History.Path = filepath.Join(dir, "history.db")
	} else {
		cfg.Store.Directory = "configs"
		cfg.History.Path = "history.db"
	}
	cfg.History.RetentionDays = 90

	cfg.Logging.Level = "info"
	cfg.Watch.Enabled = false
	cfg.Watch.DebounceMS = 2000

	cfg.Templates = []Template{
		{
			Name:        "default",
			Description: "Documents, media, archives and code",
			Categories: []types.Category{
				{Name: "Documents", Extensions: []string{".pdf", ".doc", ".docx", ".txt", ".md", ".odt", ".rtf"}},
				{Name: "Spreadsheets", Extensions: []string{".xls", ".xlsx", ".csv", ".ods"}},
				{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg", ".webp"}},
				{Name: "Audio", Extensions: []string{".mp3", ".wav", ".flac", ".aac", ".ogg"}},
				{Name: "Video", Extensions: []string{".mp4", ".mov", ".avi", ".mkv", ".wmv"}},
				{Name: "Archives", Extensions: []string{".zip", ".tar", ".gz", ".rar", ".7z"}},
				{Name: "Code", Extensions: []string{".go", ".py", ".js", ".ts", ".java", ".c", ".h", ".rs"}, CategorizeByExtension: true},
			},
			Ignore: []string{"*.part", "*.crdownload"},
		},
		{
			Name:        "downloads",
			Description: "Common downloads organization",
			Categories: []types.Category{
				{Name: "Installers", Extensions: []string{".exe", ".msi", ".deb", ".rpm", ".dmg", ".pkg"}, CategorizeByExtension: true},
				{Name: "Disk Images", Extensions: []string{".iso", ".img"}},
				{Name: "Archives", Extensions: []string{".zip", ".tar", ".gz", ".rar", ".7z"}, CategorizeByExtension: true},
				{Name: "Documents", Extensions: []string{".pdf", ".docx", ".txt"}},
			},
			Ignore: []string{"*.part", "*.crdownload"},
		},
		{
			Name:        "media",
			Description: "Media file organization (images, video, audio)",
			Categories: []types.Category{
				{Name: "Images", Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".heic"}, CategorizeByExtension: true},
				{Name: "Video", Extensions: []string{".mp4", ".mov", ".avi", ".mkv"}},
				{Name: "Audio", Extensions: []string{".mp3", ".wav", ".flac"}},
			},
		},
	}

	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns error if any settings are invalid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	if c.Store.Directory == "" {
		return fmt.Errorf("store directory is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch debounce must be >= 0 milliseconds")
	}

	if !c.History.Disabled && c.History.Path == "" {
		return fmt.Errorf("history path is required unless history is disabled")
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history retention must be >= 0 days")
	}

	seen := make(map[string]bool, len(c.Templates))
	for i, tpl := range c.Templates {
		if tpl.Name == "" {
			return fmt.Errorf("template %d: name is required", i)
		}
		if seen[tpl.Name] {
			return fmt.Errorf("template %s: duplicate name", tpl.Name)
		}
		seen[tpl.Name] = true

		// A template must produce a valid directory config.
		probe := types.Config{Directory: "template", Categories: cloneCategories(tpl.Categories), Schedule: types.DefaultSchedule(), Ignore: tpl.Ignore}
		if err := probe.Validate(); err != nil {
			return fmt.Errorf("template %s: %w", tpl.Name, err)
		}
	}

	return nil
}

// Template returns the template with the given name.
func (c *Config) Template(name string) (Template, bool) {
	for _, tpl := range c.Templates {
		if tpl.Name == name {
			return tpl, true
		}
	}
	return Template{}, false
}

// NewDirectoryConfig instantiates a template for directory. The result is
// validated and owns its own copies of the template's slices.
func (t Template) NewDirectoryConfig(directory string) (*types.Config, error) {
	cfg, err := types.NewConfig(directory, cloneCategories(t.Categories), types.DefaultSchedule())
	if err != nil {
		return nil, err
	}
	if len(t.Ignore) > 0 {
		cfg.Ignore = append([]string(nil), t.Ignore...)
	}
	return cfg, nil
}

func cloneCategories(in []types.Category) []types.Category {
	out := make([]types.Category, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig(storeDir string) *Config {
	cfg := defaultConfig()
	cfg.Store.Directory = storeDir
	cfg.History.Path = filepath.Join(filepath.Dir(storeDir), "history.db")
	cfg.Watch.DebounceMS = 50
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
