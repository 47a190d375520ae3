package domain

import (
	"net/url"
	"strings"
)

// Package is the subject of a rating: its repository URL and a local checkout.
// Owner and Repo are empty when the URL is not a GitHub repository URL.
type Package struct {
	URL   string
	Path  string
	Owner string
	Repo  string
}

// NewPackage builds a Package, extracting owner and repository name from GitHub URLs.
func NewPackage(rawURL, path string) Package {
	pkg := Package{URL: rawURL, Path: path}
	pkg.Owner, pkg.Repo, _ = ParseGitHubURL(rawURL)
	return pkg
}

// ParseGitHubURL returns the owner and repository of a github.com URL.
func ParseGitHubURL(rawURL string) (owner, repo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), true
}

// OnGitHub reports whether the package could be mapped to a GitHub repository.
func (p Package) OnGitHub() bool {
	return p.Owner != "" && p.Repo != ""
}
