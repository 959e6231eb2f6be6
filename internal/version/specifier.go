package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Specifier selects versions. Implementations are Exact, Range and Latest.
type Specifier interface {
	// Match reports whether v satisfies the specifier.
	Match(v Version) bool
	// String renders a form that ParseSpecifier maps back to an equivalent
	// specifier.
	String() string

	isSpecifier()
}

// Exact matches a single version.
type Exact struct {
	Version Version
}

func (e Exact) Match(v Version) bool { return e.Version.Equal(v) }
func (e Exact) String() string       { return "=" + e.Version.String() }
func (Exact) isSpecifier()           {}

// Range matches versions satisfying a semantic-version constraint expression
// (caret, tilde, wildcard and comparator forms).
type Range struct {
	text        string
	constraints *semver.Constraints
}

func (r Range) Match(v Version) bool {
	if r.constraints == nil {
		return false
	}
	return r.constraints.Check(v.semver())
}

func (r Range) String() string { return r.text }
func (Range) isSpecifier()     {}

// Latest matches every release version. Pre-releases are excluded.
type Latest struct{}

func (Latest) Match(v Version) bool { return v.pre == "" }
func (Latest) String() string       { return "latest" }
func (Latest) isSpecifier()         {}

// MalformedSpecifierError reports a specifier that could not be parsed.
type MalformedSpecifierError struct {
	Input     string
	Offending string
	Err       error
}

func (e *MalformedSpecifierError) Error() string {
	if e.Offending == "" || e.Offending == e.Input {
		return fmt.Sprintf("malformed version specifier %q", e.Input)
	}
	return fmt.Sprintf("malformed version specifier %q: cannot parse %q", e.Input, e.Offending)
}

func (e *MalformedSpecifierError) Unwrap() error { return e.Err }

var partialRegex = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseSpecifier parses a pin-file line or command-line token.
//
// A full triple (optionally prefixed by "=" or "==") is Exact. A partial
// version ("3.7", "3") selects the highest matching release, as does any
// range expression ("~3.7", "^3.6", ">=3.6, <3.8", "3.7.*"). The literal
// "latest" selects the highest release of all.
func ParseSpecifier(input string) (Specifier, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, &MalformedSpecifierError{Input: input}
	}
	if strings.EqualFold(s, "latest") {
		return Latest{}, nil
	}

	body := s
	if strings.HasPrefix(body, "=") {
		body = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(body, "=="), "="))
	}
	if v, err := ParseVersion(body); err == nil {
		return Exact{Version: v}, nil
	}

	expr := s
	if partialRegex.MatchString(body) {
		expr = body + ".x"
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, &MalformedSpecifierError{Input: input, Offending: offendingClause(s), Err: err}
	}
	return Range{text: s, constraints: c}, nil
}

// MustParseSpecifier is ParseSpecifier for literals known to be valid.
func MustParseSpecifier(s string) Specifier {
	spec, err := ParseSpecifier(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// offendingClause narrows a failed expression down to the first clause the
// constraint parser rejects on its own.
func offendingClause(s string) string {
	for _, alt := range strings.Split(s, "||") {
		for _, clause := range strings.Split(alt, ",") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			if _, err := semver.NewConstraint(clause); err != nil {
				return clause
			}
		}
	}
	return s
}
