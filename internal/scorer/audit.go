package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/naka-gawa/pkg-rating/internal/domain"
	"github.com/naka-gawa/pkg-rating/internal/shell"
)

// Auditor installs a package into a throwaway npm project and scores its vulnerability report.
type Auditor struct {
	runner  shell.Runner
	npm     string
	workDir string
	logger  *slog.Logger
}

// NewAuditor creates a new Auditor. An empty workDir means the current directory.
func NewAuditor(runner shell.Runner, npm, workDir string, logger *slog.Logger) *Auditor {
	if npm == "" {
		npm = "npm"
	}
	if workDir == "" {
		workDir = "."
	}
	return &Auditor{runner: runner, npm: npm, workDir: workDir, logger: logger}
}

// auditReport is the part of `npm audit --json` we read.
type auditReport struct {
	Metadata struct {
		Vulnerabilities domain.VulnerabilityCounts `json:"vulnerabilities"`
	} `json:"metadata"`
}

// Audit returns max(0, 1 - weighted vulnerability count) for the package checked out at packagePath.
// Failing to create the project, to initialize it or to install the package is an error.
func (a *Auditor) Audit(ctx context.Context, packagePath string) (float64, error) {
	name := packageName(packagePath)
	counts, err := a.vulnerabilities(ctx, name)
	if err != nil {
		return 0, err
	}
	a.logger.Debug("audit finished", "package", name, "vulnerabilities", counts.Total())
	return AuditScore(counts), nil
}

// AuditScore maps vulnerability counts to [0,1].
func AuditScore(counts domain.VulnerabilityCounts) float64 {
	return max(0, 1-counts.Penalty())
}

func (a *Auditor) vulnerabilities(ctx context.Context, name string) (domain.VulnerabilityCounts, error) {
	var counts domain.VulnerabilityCounts
	dir := filepath.Join(a.workDir, fmt.Sprintf("temp-%s-%s", tempDirSafe.Replace(name), uuid.NewString()))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return counts, fmt.Errorf("failed to create audit project for %s: %w", name, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			a.logger.Error("failed to remove audit project", "dir", dir, "error", err)
		}
	}()

	if _, err := a.runner.Run(ctx, dir, a.npm, "init", "-y"); err != nil {
		return counts, fmt.Errorf("failed to initialize audit project: %w", err)
	}
	if _, err := a.runner.Run(ctx, dir, a.npm, "install", name); err != nil {
		return counts, fmt.Errorf("failed to install %s: %w", name, err)
	}
	// npm audit exits non-zero when it finds vulnerabilities; only a failure to start matters.
	out, err := a.runner.Run(ctx, dir, a.npm, "audit", "--json")
	if err != nil && shell.ExitCode(err) < 0 {
		return counts, fmt.Errorf("failed to run npm audit: %w", err)
	}
	return ParseAuditReport(out)
}

// ParseAuditReport extracts severity counts from `npm audit --json` output.
func ParseAuditReport(data []byte) (domain.VulnerabilityCounts, error) {
	var report auditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.VulnerabilityCounts{}, fmt.Errorf("failed to parse npm audit report: %w", err)
	}
	return report.Metadata.Vulnerabilities, nil
}

var tempDirSafe = strings.NewReplacer("@", "", "/", "-", "\\", "-", " ", "-")

// packageName prefers the manifest name and falls back to the checkout directory,
// which is laid out as "<owner>_<repo>" (or "<owner> <repo>").
func packageName(packagePath string) string {
	if data, err := os.ReadFile(filepath.Join(packagePath, "package.json")); err == nil {
		var manifest struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(data, &manifest) == nil && manifest.Name != "" {
			return manifest.Name
		}
	}
	base := filepath.Base(filepath.Clean(packagePath))
	if fields := strings.Fields(base); len(fields) > 1 {
		return fields[len(fields)-1]
	}
	if _, repo, ok := strings.Cut(base, "_"); ok && repo != "" {
		return repo
	}
	return base
}
