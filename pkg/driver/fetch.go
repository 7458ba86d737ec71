package driver

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Fetcher materialises dependency packages into a local cache directory.
type Fetcher struct {
	cacheDir string
}

// NewFetcher returns a fetcher rooted at cacheDir.
func NewFetcher(cacheDir string) (*Fetcher, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("fetch: empty cache directory")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("fetch: create cache %s: %w", cacheDir, err)
	}
	return &Fetcher{cacheDir: cacheDir}, nil
}

// Fetch resolves one dependency to a local directory. Path sources resolve
// relative to the manifest; git sources are cloned into the cache, reusing a
// previous clone when present.
func (f *Fetcher) Fetch(name string, spec *DependencySpec, manifestDir string) (string, error) {
	if spec == nil {
		return "", fmt.Errorf("fetch %s: nil dependency spec", name)
	}
	if spec.Path != "" {
		dir := spec.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(manifestDir, dir)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", name, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("fetch %s: %s is not a directory", name, dir)
		}
		return dir, nil
	}

	dir := filepath.Join(f.cacheDir, name)
	if _, err := os.Stat(dir); err == nil {
		if _, err := git.PlainOpen(dir); err != nil {
			return "", fmt.Errorf("fetch %s: cached copy at %s is not a git repository: %w", name, dir, err)
		}
		return dir, nil
	}

	options := &git.CloneOptions{URL: spec.Git}
	switch {
	case spec.Tag != "":
		options.ReferenceName = plumbing.NewTagReferenceName(spec.Tag)
		options.SingleBranch = true
	case spec.Branch != "":
		options.ReferenceName = plumbing.NewBranchReferenceName(spec.Branch)
		options.SingleBranch = true
	}

	repo, err := git.PlainClone(dir, false, options)
	if err != nil {
		return "", fmt.Errorf("fetch %s: clone %s: %w", name, spec.Git, err)
	}
	if spec.Rev != "" {
		worktree, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", name, err)
		}
		err = worktree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(spec.Rev)})
		if err != nil {
			return "", fmt.Errorf("fetch %s: checkout %s: %w", name, spec.Rev, err)
		}
	}
	return dir, nil
}

// FetchAll resolves every dependency in the manifest, returning name ->
// local directory.
func (f *Fetcher) FetchAll(manifest *Manifest) (map[string]string, error) {
	manifestDir := filepath.Dir(manifest.Path)
	out := make(map[string]string, len(manifest.Dependencies))
	for name, spec := range manifest.Dependencies {
		dir, err := f.Fetch(name, spec, manifestDir)
		if err != nil {
			return nil, err
		}
		out[name] = dir
	}
	return out, nil
}
