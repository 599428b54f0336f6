package jobenv

import (
	"fmt"
	"strings"
)

// SanitizeFilename turns a platform file name into a basename safe for a Unix
// filesystem. "." and ".." are rejected, every "/" is replaced with "%2F" so
// a path-carrying name cannot escape its target directory. No other
// characters are touched.
func SanitizeFilename(name string) (string, error) {
	if name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidFilename)
	}
	return strings.ReplaceAll(name, "/", "%2F"), nil
}
