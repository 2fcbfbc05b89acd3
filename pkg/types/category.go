package types

import (
	"fmt"
	"strings"

	"catsort/internal/errors"
)

// Names of the implicit categories every organized directory carries.
const (
	UncategorizedName = "Uncategorized" // Catch-all for files matching no rule
	HiddenName        = ".hidden"       // Bucket for dot-files
)

// Category maps a set of file extensions to a named subdirectory.
type Category struct {
	Name                  string   `json:"name" yaml:"name"`                                       // Subdirectory name
	Extensions            []string `json:"extensions" yaml:"extensions"`                           // Normalized extensions (".pdf")
	CategorizeByExtension bool     `json:"categorizeByExtension" yaml:"categorize_by_extension"` // Sub-bucket files by extension
}

// NewCategory builds a validated category with normalized extensions.
func NewCategory(name string, byExtension bool, extensions ...string) (Category, error) {
	c := Category{Name: name, CategorizeByExtension: byExtension}
	if err := ValidateCategoryName(name); err != nil {
		return Category{}, err
	}
	if err := c.AddExtensions(extensions...); err != nil {
		return Category{}, err
	}
	return c, nil
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(ext))
	e = strings.TrimPrefix(e, ".")
	if e == "" {
		return "", errors.InvalidConfigf("extensions", "empty extension %q", ext)
	}
	if strings.ContainsAny(e, `./\`) || strings.ContainsRune(e, 0) {
		return "", errors.InvalidConfigf("extensions", "extension %q must be a single suffix", ext)
	}
	return "." + e, nil
}

// ValidateCategoryName checks that name can be used as a literal
// subdirectory of the target directory.
func ValidateCategoryName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.InvalidConfigf("categories", "category name is empty")
	case name != strings.TrimSpace(name):
		return errors.InvalidConfigf("categories", "category name %q has surrounding whitespace", name)
	case name == "." || name == "..":
		return errors.InvalidConfigf("categories", "category name %q is reserved", name)
	case strings.ContainsAny(name, `/\:*?"<>|`) || strings.ContainsRune(name, 0):
		return errors.InvalidConfigf("categories", "category name %q contains a path or reserved character", name)
	case strings.EqualFold(name, UncategorizedName) || strings.EqualFold(name, HiddenName):
		return errors.InvalidConfigf("categories", "category name %q is reserved for a special category", name)
	}
	return nil
}

// HasExtension reports whether ext (in any spelling) belongs to c.
func (c Category) HasExtension(ext string) bool {
	norm, err := NormalizeExtension(ext)
	if err != nil {
		return false
	}
	for _, e := range c.Extensions {
		if e == norm {
			return true
		}
	}
	return false
}

// AddExtensions normalizes and appends extensions, skipping ones already present.
func (c *Category) AddExtensions(extensions ...string) error {
	for _, ext := range extensions {
		norm, err := NormalizeExtension(ext)
		if err != nil {
			return err
		}
		if !c.HasExtension(norm) {
			c.Extensions = append(c.Extensions, norm)
		}
	}
	return nil
}

// RemoveExtensions drops extensions from c. Every extension must be present.
func (c *Category) RemoveExtensions(extensions ...string) error {
	drop := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		norm, err := NormalizeExtension(ext)
		if err != nil {
			return err
		}
		if !c.HasExtension(norm) {
			return errors.InvalidConfigf("extensions", "%s is not in category %s", norm, c.Name)
		}
		drop[norm] = true
	}
	kept := c.Extensions[:0]
	for _, e := range c.Extensions {
		if !drop[e] {
			kept = append(kept, e)
		}
	}
	c.Extensions = kept
	return nil
}

// normalize rewrites the extension list in canonical form, collapsing
// duplicates inside the category.
func (c *Category) normalize() error {
	exts := c.Extensions
	c.Extensions = make([]string, 0, len(exts))
	if err := c.AddExtensions(exts...); err != nil {
		return fmt.Errorf("category %s: %w", c.Name, err)
	}
	return nil
}

// ExtensionDir is the subdirectory name used for ext when the category
// sub-buckets by extension.
func ExtensionDir(ext string) string {
	return strings.TrimPrefix(ext, ".")
}

// Clone returns a deep copy of c.
func (c Category) Clone() Category {
	if c.Extensions != nil {
		exts := make([]string, len(c.Extensions))
		copy(exts, c.Extensions)
		c.Extensions = exts
	}
	return c
}
