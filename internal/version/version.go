package version

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
)

//go:embed VERSION
var embedded string

// Current is the version of this build.
var Current = strings.TrimSpace(embedded)

// NeedsNotice reports whether the "what's new" notice should be shown to a
// user who last acknowledged lastSeen. Any difference from Current counts.
func NeedsNotice(lastSeen string) bool {
	if lastSeen == "" {
		return true
	}
	seen, err := semver.NewVersion(lastSeen)
	if err != nil {
		return true
	}
	cur, err := semver.NewVersion(Current)
	if err != nil {
		return lastSeen != Current
	}
	return !seen.Equal(cur)
}

// BumpPatch increments the patch number of v.
func BumpPatch(v string) (string, error) {
	parsed, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", v, err)
	}
	return parsed.IncPatch().String(), nil
}

// BumpFile increments the patch version stored in the file at path and
// returns the old and new versions.
func BumpFile(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read version file: %w", err)
	}
	old := strings.TrimSpace(string(data))
	next, err := BumpPatch(old)
	if err != nil {
		return "", "", err
	}
	if err := os.WriteFile(path, []byte(next+"\n"), 0644); err != nil {
		return "", "", fmt.Errorf("failed to write version file: %w", err)
	}
	return old, next, nil
}
