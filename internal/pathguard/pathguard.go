package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrOutOfBounds = errors.New("path resolves outside the trusted root")
	ErrNotFound    = errors.New("path does not exist")
)

// Resolver validates untrusted path strings against a trusted root
// directory. It is the only gate between text scraped from subprocess
// output (or client input) and a file that gets opened or served.
type Resolver struct {
	root string
}

func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("trusted root %q: %w", root, err)
	}
	abs = filepath.Clean(abs)
	// Pin the root to its real location so the containment check agrees
	// with the symlink-evaluated candidate paths.
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &Resolver{root: abs}, nil
}

func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the absolute location of candidate, or ErrOutOfBounds
// when it falls outside the trusted root and ErrNotFound when it does not
// exist on disk. Relative candidates are resolved against the root.
// Symlinks are followed and the final target is boundary-checked again,
// so a link inside the root cannot expose a file outside it.
func (r *Resolver) Resolve(candidate string) (string, error) {
	p := expandHome(candidate)
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.root, p)
	}
	p = filepath.Clean(p)

	if !r.contains(p) {
		return "", fmt.Errorf("%w: %s", ErrOutOfBounds, candidate)
	}

	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", err
	}

	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if !r.contains(real) {
		return "", fmt.Errorf("%w: %s", ErrOutOfBounds, candidate)
	}
	return real, nil
}

func (r *Resolver) contains(p string) bool {
	if p == r.root {
		return true
	}
	return strings.HasPrefix(p, r.root+string(os.PathSeparator))
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~"+string(os.PathSeparator)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
