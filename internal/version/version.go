// Package version models interpreter versions and the specifiers that select
// them. Versions follow semantic-versioning precedence; specifiers are a closed
// set of variants (exact, range, latest) that each evaluate their own match.
package version

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is an immutable major.minor.patch triple with optional pre-release
// and build tags. The zero value is 0.0.0.
type Version struct {
	major uint64
	minor uint64
	patch uint64
	pre   string
	build string
}

// New constructs a release or pre-release version.
func New(major, minor, patch uint64, pre string) Version {
	return Version{major: major, minor: minor, patch: patch, pre: pre}
}

// ParseVersion parses a strict semantic version ("3.7.2", "3.13.0-rc1").
// Partial versions are rejected; use ParseSpecifier for those.
func ParseVersion(s string) (Version, error) {
	sv, err := semver.StrictNewVersion(strings.TrimSpace(s))
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", s, err)
	}
	return fromSemver(sv), nil
}

// MustParse is ParseVersion for literals known to be valid.
func MustParse(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

var pythonVersionRegex = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)((?:a|b|rc)\d+)?`)

// FromPython extracts a version from CPython spellings such as "3.7.2",
// "Python 3.13.0rc1" or "3.12.0a4".
func FromPython(s string) (Version, error) {
	m := pythonVersionRegex.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("no python version in %q", s)
	}
	var parts [3]uint64
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("parse python version %q: %w", s, err)
		}
		parts[i] = n
	}
	return New(parts[0], parts[1], parts[2], m[4]), nil
}

func fromSemver(sv *semver.Version) Version {
	return Version{
		major: sv.Major(),
		minor: sv.Minor(),
		patch: sv.Patch(),
		pre:   sv.Prerelease(),
		build: sv.Metadata(),
	}
}

func (v Version) semver() *semver.Version {
	return semver.New(v.major, v.minor, v.patch, v.pre, v.build)
}

func (v Version) Major() uint64      { return v.major }
func (v Version) Minor() uint64      { return v.minor }
func (v Version) Patch() uint64      { return v.patch }
func (v Version) Prerelease() string { return v.pre }

// String renders the semantic-version form used for directory names.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
	if v.pre != "" {
		s += "-" + v.pre
	}
	if v.build != "" {
		s += "+" + v.build
	}
	return s
}

// MarshalText renders String, so JSON output carries "3.7.2".
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText parses a strict version.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// PythonTag renders the CPython release spelling: 3.13.0-rc.1 becomes 3.13.0rc1.
func (v Version) PythonTag() string {
	return fmt.Sprintf("%d.%d.%d%s", v.major, v.minor, v.patch, strings.ReplaceAll(v.pre, ".", ""))
}

// Compare returns -1, 0 or +1 by semantic-version precedence. Build metadata
// does not participate.
func (v Version) Compare(o Version) int {
	return v.semver().Compare(o.semver())
}

// Equal reports precedence equality.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Sort orders versions ascending in place.
func Sort(vs []Version) {
	slices.SortFunc(vs, Version.Compare)
}
