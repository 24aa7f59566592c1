package allocator

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/heapalloc/internal/errors"
)

// FormatVersion is the semantic version of this package's on-heap
// layout (header/footer encoding, prologue/epilogue shape, class
// table). It only changes when one of those binary details changes.
const FormatVersion = "1.0.0"

// Config holds construction-time options for a Heap, set through the
// functional-options pattern below (see Option/With*).
type Config struct {
	// EnableDebug runs the consistency checker before and after every
	// public operation. Expensive; intended for tests and local
	// debugging, not production traffic.
	EnableDebug bool

	// RequireCompat, if non-empty, is a semver constraint (e.g.
	// "^1.0.0") that FormatVersion must satisfy. Lets an embedder
	// pin against layout changes without recompiling a version check
	// by hand.
	RequireCompat string
}

// Option configures a Config; see With* below.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		EnableDebug: false,
	}
}

// WithDebug enables or disables the consistency checker.
func WithDebug(enabled bool) Option {
	return func(c *Config) { c.EnableDebug = enabled }
}

// WithCompat pins the required FormatVersion compatibility range.
func WithCompat(constraint string) Option {
	return func(c *Config) { c.RequireCompat = constraint }
}

func (c *Config) validate() error {
	if c.RequireCompat == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.RequireCompat)
	if err != nil {
		return fmt.Errorf("invalid compatibility constraint %q: %w", c.RequireCompat, err)
	}

	version, err := semver.NewVersion(FormatVersion)
	if err != nil {
		return fmt.Errorf("internal: FormatVersion %q is not valid semver: %w", FormatVersion, err)
	}

	if !constraint.Check(version) {
		return errors.NewStandardError(errors.CategoryValidation, "INCOMPATIBLE_FORMAT",
			fmt.Sprintf("heap format %s does not satisfy required constraint %q", FormatVersion, c.RequireCompat),
			map[string]interface{}{"format_version": FormatVersion, "constraint": c.RequireCompat})
	}

	return nil
}
