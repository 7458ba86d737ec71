// Package driver handles protocol package manifests and document retrieval
// for the CLI. The core runtime consumes in-memory documents only; anything
// touching the filesystem or the network lives here.
package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest represents the parsed contents of protocol.yml: a named bundle of
// protocol documents plus optional git-sourced dependencies.
type Manifest struct {
	Path         string
	Name         string
	Version      string
	Documents    []string
	Dependencies map[string]*DependencySpec
}

// DependencySpec describes where a dependency package comes from.
type DependencySpec struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

type manifestFile struct {
	Name         string                     `yaml:"name"`
	Version      string                     `yaml:"version"`
	Documents    []string                   `yaml:"documents"`
	Dependencies map[string]*DependencySpec `yaml:"dependencies"`
}

// LoadManifest parses protocol.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	manifest, err := decodeManifest(file, absPath)
	if err != nil {
		return nil, err
	}
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func decodeManifest(reader io.Reader, path string) (*Manifest, error) {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", path)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}

	manifest := &Manifest{
		Path:         path,
		Name:         strings.TrimSpace(raw.Name),
		Version:      strings.TrimSpace(raw.Version),
		Dependencies: make(map[string]*DependencySpec, len(raw.Dependencies)),
	}
	for _, doc := range raw.Documents {
		doc = strings.TrimSpace(doc)
		if doc != "" {
			manifest.Documents = append(manifest.Documents, doc)
		}
	}
	for name, dep := range raw.Dependencies {
		if dep == nil {
			continue
		}
		manifest.Dependencies[strings.TrimSpace(name)] = &DependencySpec{
			Git:    strings.TrimSpace(dep.Git),
			Rev:    strings.TrimSpace(dep.Rev),
			Tag:    strings.TrimSpace(dep.Tag),
			Branch: strings.TrimSpace(dep.Branch),
			Path:   strings.TrimSpace(dep.Path),
		}
	}
	return manifest, nil
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for name, dep := range m.Dependencies {
		if name == "" {
			errs.Issues = append(errs.Issues, "dependency names must be non-empty")
			continue
		}
		for _, issue := range dep.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dependencies.%s: %s", name, issue))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DependencySpec) validate() []string {
	var issues []string
	if d.Git == "" && d.Path == "" {
		issues = append(issues, "must specify git or path")
	}
	if d.Git != "" && d.Path != "" {
		issues = append(issues, "git and path sources are mutually exclusive")
	}
	selectors := 0
	for _, s := range []string{d.Rev, d.Tag, d.Branch} {
		if s != "" {
			selectors++
		}
	}
	if selectors > 1 {
		issues = append(issues, "rev, tag, and branch are mutually exclusive")
	}
	if d.Path != "" && selectors > 0 {
		issues = append(issues, "path sources cannot specify rev, tag, or branch")
	}
	return issues
}

// DocumentPaths resolves the manifest's document entries relative to the
// manifest location.
func (m *Manifest) DocumentPaths() []string {
	base := filepath.Dir(m.Path)
	out := make([]string, 0, len(m.Documents))
	for _, doc := range m.Documents {
		if filepath.IsAbs(doc) {
			out = append(out, doc)
			continue
		}
		out = append(out, filepath.Join(base, doc))
	}
	return out
}
