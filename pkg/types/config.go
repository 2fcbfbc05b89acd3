package types

import (
	"os"
	"path/filepath"
	"strings"

	"catsort/internal/errors"

	"github.com/gobwas/glob"
)

// Config is the management record for one target directory.
// Two configs are the same record iff their Directory strings are equal.
type Config struct {
	Directory  string     `json:"directory"`
	Active     bool       `json:"active"`
	Categories []Category `json:"categories"`
	Schedule   Schedule   `json:"schedule"`
	Ignore     []string   `json:"ignore,omitempty"` // Base-name globs left in the root
}

// NewConfig builds and validates a config.
func NewConfig(directory string, categories []Category, schedule Schedule) (*Config, error) {
	c := &Config{
		Directory:  directory,
		Active:     true,
		Categories: categories,
		Schedule:   schedule,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate normalizes extensions and enum spellings in place, then checks
// every cross-category invariant: non-empty category list, unique names,
// each extension owned by exactly one category, a well-formed schedule and
// compilable ignore globs.
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidConfigf("config", "nil config")
	}
	if strings.TrimSpace(c.Directory) == "" {
		return errors.InvalidConfigf("directory", "directory is required")
	}
	if len(c.Categories) == 0 {
		return errors.InvalidConfigf("categories", "at least one category is required")
	}

	names := make(map[string]bool, len(c.Categories))
	owners := make(map[string]string)
	for i := range c.Categories {
		cat := &c.Categories[i]
		if err := ValidateCategoryName(cat.Name); err != nil {
			return err
		}
		if names[cat.Name] {
			return errors.InvalidConfigf("categories", "duplicate category name %q", cat.Name)
		}
		names[cat.Name] = true

		if err := cat.normalize(); err != nil {
			return err
		}
		for _, ext := range cat.Extensions {
			if owner, ok := owners[ext]; ok {
				return errors.InvalidConfigf("categories", "extension %s is declared by both %s and %s", ext, owner, cat.Name)
			}
			owners[ext] = cat.Name
		}
	}

	if err := c.Schedule.Validate(); err != nil {
		return err
	}

	if _, err := c.IgnoreMatcher(); err != nil {
		return err
	}
	return nil
}

// AllCategoryNames is the canonical list every filter walks: the declared
// categories in order, then Uncategorized and the hidden bucket.
func (c *Config) AllCategoryNames() []string {
	names := make([]string, 0, len(c.Categories)+2)
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return append(names, UncategorizedName, HiddenName)
}

// Category returns the declared category with the given name.
func (c *Config) Category(name string) (*Category, bool) {
	for i := range c.Categories {
		if c.Categories[i].Name == name {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// ExtensionOwner returns the category declaring ext, if any.
func (c *Config) ExtensionOwner(ext string) (*Category, bool) {
	for i := range c.Categories {
		if c.Categories[i].HasExtension(ext) {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// ExtensionIndex maps every declared extension to its category. When
// extensions are not unique the first category in declaration order wins.
func (c *Config) ExtensionIndex() map[string]*Category {
	index := make(map[string]*Category)
	for i := range c.Categories {
		for _, ext := range c.Categories[i].Extensions {
			if _, taken := index[ext]; !taken {
				index[ext] = &c.Categories[i]
			}
		}
	}
	return index
}

// Matcher reports whether a root-level name is excluded from routing.
type Matcher func(name string) bool

// IgnoreMatcher compiles the ignore globs.
func (c *Config) IgnoreMatcher() (Matcher, error) {
	globs := make([]glob.Glob, 0, len(c.Ignore))
	for _, pattern := range c.Ignore {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.NewConfigError("invalid ignore pattern "+pattern, "ignore", errors.InvalidConfig, err)
		}
		globs = append(globs, g)
	}
	return func(name string) bool {
		for _, g := range globs {
			if g.Match(name) {
				return true
			}
		}
		return false
	}, nil
}

// Path resolves Directory for filesystem use: a leading "~" is expanded and
// the result is made absolute and clean. The record itself is not changed.
func (c *Config) Path() (string, error) {
	return ExpandPath(c.Directory)
}

// ExpandPath expands a leading "~" and returns an absolute, clean path.
func ExpandPath(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Abs(p)
}

// Equal reports record identity.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Directory == other.Directory
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Categories = make([]Category, len(c.Categories))
	for i, cat := range c.Categories {
		out.Categories[i] = cat.Clone()
	}
	if c.Ignore != nil {
		out.Ignore = make([]string, len(c.Ignore))
		copy(out.Ignore, c.Ignore)
	}
	return &out
}
