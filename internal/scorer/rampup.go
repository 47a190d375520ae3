package scorer

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/naka-gawa/pkg-rating/internal/domain"
)

// README length thresholds, in characters.
const (
	readmeLong   = 1500
	readmeMedium = 1000
	readmeShort  = 500
)

// Comment density thresholds.
const (
	densityHigh   = 0.20
	densityMedium = 0.15
	densityLow    = 0.10
)

// RampUpScorer rates how easy a checkout is to get into from its README and comments.
type RampUpScorer struct {
	extensions []string
	logger     *slog.Logger
}

// NewRampUpScorer creates a new RampUpScorer for source files with the given extensions.
func NewRampUpScorer(extensions []string, logger *slog.Logger) *RampUpScorer {
	if len(extensions) == 0 {
		extensions = []string{".js", ".ts"}
	}
	return &RampUpScorer{extensions: extensions, logger: logger}
}

// Score returns 0.5 x README score + 0.5 x comment score. Unreadable input scores 0 for its half.
// A symlinked root is followed; links inside the tree are not.
func (r *RampUpScorer) Score(root string) float64 {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	readme := 0.0
	if path, ok := findReadme(root); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Info("ramp up: README unreadable", "path", path, "error", err)
		} else {
			readme = ReadmeScore(utf8.RuneCount(data))
		}
	}
	sample := r.commentSample(root)
	comments := 0.0
	if sample.TotalLines > 0 {
		comments = CommentScore(sample.Density())
	}
	r.logger.Debug("ramp up", "path", root, "readme", readme, "comment_density", sample.Density())
	return 0.5*readme + 0.5*comments
}

// ReadmeScore maps a README length in characters to a score.
func ReadmeScore(length int) float64 {
	switch {
	case length > readmeLong:
		return 1
	case length > readmeMedium:
		return 0.75
	case length > readmeShort:
		return 0.5
	default:
		return 0.25
	}
}

// CommentScore maps a comment density to a score.
func CommentScore(density float64) float64 {
	switch {
	case density > densityHigh:
		return 1
	case density > densityMedium:
		return 0.75
	case density > densityLow:
		return 0.5
	default:
		return 0.25
	}
}

// findReadme returns the first file, in lexical walk order, whose name starts with "readme".
// Symbolic links are skipped.
func findReadme(root string) (string, bool) {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.IsDir() && strings.HasPrefix(strings.ToLower(d.Name()), "readme") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found, found != ""
}

func (r *RampUpScorer) commentSample(root string) domain.CommentDensitySample {
	var total domain.CommentDensitySample
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.Type()&fs.ModeSymlink != 0 || d.IsDir() {
			return nil
		}
		if !hasExtension(d.Name(), r.extensions) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			r.logger.Debug("ramp up: skipping unreadable file", "path", path, "error", err)
			return nil
		}
		total.Add(CountComments(string(data)))
		return nil
	})
	return total
}

// CountComments counts lines whose trimmed text starts with //, /* or *.
func CountComments(source string) domain.CommentDensitySample {
	lines := strings.Split(source, "\n")
	sample := domain.CommentDensitySample{TotalLines: len(lines)}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*") {
			sample.CommentLines++
		}
	}
	return sample
}
