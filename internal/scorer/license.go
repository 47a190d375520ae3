package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/github/go-spdx/v2/spdxexp"
	"github.com/naka-gawa/pkg-rating/internal/gateway"
)

var (
	// allowedLicenseIDs are the SPDX identifiers compatible with the LGPL-2.1 target.
	allowedLicenseIDs = []string{"MIT", "LGPL-2.1", "LGPL-2.1-only"}
	// allowedLicenseExpr is the allow-list in the canonical form spdxexp expects.
	allowedLicenseExpr = []string{"MIT", "LGPL-2.1-only"}
	// licenseMarkers are searched for verbatim in README and LICENSE files.
	licenseMarkers = []string{"MIT License", "MIT license", "LGPL-2.1 License"}
)

// licenseSource is one step of the fallback chain.
// tryResolve reports a match, or an error that the chain treats as no match.
type licenseSource interface {
	name() string
	tryResolve(ctx context.Context, owner, repo string) (bool, error)
}

// LicenseResolver walks its sources in order and stops at the first match.
type LicenseResolver struct {
	sources []licenseSource
	logger  *slog.Logger
}

// NewLicenseResolver builds the chain: GitHub license API, package.json, README.md, LICENSE.
func NewLicenseResolver(fetcher gateway.Fetcher, logger *slog.Logger) *LicenseResolver {
	return &LicenseResolver{
		sources: []licenseSource{
			platformLicense{fetcher: fetcher},
			manifestLicense{fetcher: fetcher},
			textLicense{fetcher: fetcher, path: "README.md"},
			textLicense{fetcher: fetcher, path: "LICENSE"},
		},
		logger: logger,
	}
}

// Resolve returns 1 if any source finds an allowed license, otherwise 0. It never fails.
func (r *LicenseResolver) Resolve(ctx context.Context, owner, repo string) float64 {
	for _, source := range r.sources {
		ok, err := source.tryResolve(ctx, owner, repo)
		if err != nil {
			r.logger.Debug("license source gave no answer", "source", source.name(), "repo", owner+"/"+repo, "error", err)
			continue
		}
		if ok {
			r.logger.Debug("license resolved", "source", source.name(), "repo", owner+"/"+repo)
			return 1
		}
	}
	return 0
}

type platformLicense struct {
	fetcher gateway.Fetcher
}

func (platformLicense) name() string { return "github" }

func (s platformLicense) tryResolve(ctx context.Context, owner, repo string) (bool, error) {
	id, err := s.fetcher.FetchLicenseID(ctx, owner, repo)
	if err != nil {
		return false, err
	}
	return slices.Contains(allowedLicenseIDs, id), nil
}

type manifestLicense struct {
	fetcher gateway.Fetcher
}

func (manifestLicense) name() string { return "package.json" }

func (s manifestLicense) tryResolve(ctx context.Context, owner, repo string) (bool, error) {
	content, err := s.fetcher.FetchFile(ctx, owner, repo, "package.json")
	if err != nil {
		return false, err
	}
	license, err := manifestLicenseField([]byte(content))
	if err != nil {
		return false, err
	}
	return licenseAllowed(license), nil
}

// manifestLicenseField reads "license" as a string or as the legacy {"type": "..."} object.
func manifestLicenseField(data []byte) (string, error) {
	var manifest struct {
		License json.RawMessage `json:"license"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse package.json: %w", err)
	}
	if len(manifest.License) == 0 {
		return "", nil
	}
	var id string
	if err := json.Unmarshal(manifest.License, &id); err == nil {
		return id, nil
	}
	var legacy struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(manifest.License, &legacy); err != nil {
		return "", fmt.Errorf("unexpected license field %s: %w", manifest.License, err)
	}
	return legacy.Type, nil
}

// licenseAllowed accepts an exact allow-list id or an SPDX expression satisfied by the allow-list.
func licenseAllowed(license string) bool {
	license = strings.TrimSpace(license)
	if license == "" {
		return false
	}
	if slices.Contains(allowedLicenseIDs, license) {
		return true
	}
	ok, err := spdxexp.Satisfies(license, allowedLicenseExpr)
	return err == nil && ok
}

type textLicense struct {
	fetcher gateway.Fetcher
	path    string
}

func (s textLicense) name() string { return s.path }

func (s textLicense) tryResolve(ctx context.Context, owner, repo string) (bool, error) {
	content, err := s.fetcher.FetchFile(ctx, owner, repo, s.path)
	if err != nil {
		return false, err
	}
	for _, marker := range licenseMarkers {
		if strings.Contains(content, marker) {
			return true, nil
		}
	}
	return false, nil
}
