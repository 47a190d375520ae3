// Package source turns user-supplied package URLs into local GitHub checkouts.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/git-pkgs/registries"
	_ "github.com/git-pkgs/registries/all"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

// ErrUnsupportedURL is returned for URLs that are neither GitHub nor npm package URLs.
var ErrUnsupportedURL = errors.New("unsupported package URL")

// Repository is a GitHub repository a package URL resolved to.
type Repository struct {
	Owner string
	Name  string
}

// URL returns the canonical https URL of the repository.
func (r Repository) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s", r.Owner, r.Name)
}

// ReadURLFile returns the non-blank lines of the file at path.
func ReadURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL file: %w", err)
	}
	return urls, nil
}

// Resolver maps GitHub and npm package URLs to GitHub repositories.
type Resolver struct {
	npm registries.Registry
}

// NewResolver creates a new Resolver that looks npm packages up in registryURL.
// An empty registryURL uses the public npm registry.
func NewResolver(registryURL string, client *registries.Client) (*Resolver, error) {
	npm, err := registries.New("npm", strings.TrimSuffix(registryURL, "/"), client)
	if err != nil {
		return nil, fmt.Errorf("failed to create npm registry client: %w", err)
	}
	return &Resolver{npm: npm}, nil
}

// Resolve classifies rawURL and returns the GitHub repository behind it.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Repository, error) {
	if owner, name, ok := domain.ParseGitHubURL(rawURL); ok {
		return Repository{Owner: owner, Name: name}, nil
	}
	name, ok := npmPackageName(rawURL)
	if !ok {
		return Repository{}, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	pkg, err := r.npm.FetchPackage(ctx, name)
	if err != nil {
		return Repository{}, fmt.Errorf("failed to query npm registry for %s: %w", name, err)
	}
	if pkg.Repository == "" {
		return Repository{}, fmt.Errorf("npm package %s declares no repository", name)
	}
	owner, repo, ok := githubRepository(pkg.Repository)
	if !ok {
		return Repository{}, fmt.Errorf("%w: npm package %s points at %q", ErrUnsupportedURL, name, pkg.Repository)
	}
	return Repository{Owner: owner, Name: repo}, nil
}

// npmPackageName extracts the package name from an npmjs.com/package/<name> URL.
func npmPackageName(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	if strings.TrimPrefix(strings.ToLower(u.Host), "www.") != "npmjs.com" {
		return "", false
	}
	rest, ok := strings.CutPrefix(strings.Trim(u.Path, "/"), "package/")
	if !ok || rest == "" {
		return "", false
	}
	parts := strings.Split(rest, "/")
	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	return parts[0], true
}

// githubRepository parses a registry repository URL. The registry already strips
// "git+" and ".git"; the scp-like and "github:" shorthand forms are mapped here.
func githubRepository(repoURL string) (owner, name string, ok bool) {
	u := strings.TrimPrefix(strings.TrimSpace(repoURL), "git@")
	if rest, found := strings.CutPrefix(u, "github:"); found {
		u = "github.com/" + rest
	}
	if rest, found := strings.CutPrefix(u, "github.com:"); found {
		u = "github.com/" + rest
	}
	if strings.HasPrefix(u, "github.com/") {
		u = "https://" + u
	}
	return domain.ParseGitHubURL(u)
}
