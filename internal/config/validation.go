package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"pycors/internal/version"
)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks values that the loader cannot type-check.
func (c Config) Validate() error {
	var problems []string

	if _, err := version.ParseSpecifier(c.DefaultVersion); err != nil {
		problems = append(problems, fmt.Sprintf("default_version: %v", err))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is not a known level", c.LogLevel))
	}
	switch c.Install.LockPolicy {
	case LockWait, LockFail:
	default:
		problems = append(problems, fmt.Sprintf("install.lock_policy %q must be %q or %q", c.Install.LockPolicy, LockWait, LockFail))
	}
	if c.Install.Jobs < 0 {
		problems = append(problems, "install.jobs must not be negative")
	}
	if c.Download.Retries < 0 {
		problems = append(problems, "download.retries must not be negative")
	}
	for _, field := range []struct{ name, value string }{
		{"download.mirror", c.Download.Mirror},
		{"download.nuget", c.Download.NuGet},
	} {
		if !strings.HasPrefix(field.value, "https://") && !strings.HasPrefix(field.value, "http://") {
			problems = append(problems, fmt.Sprintf("%s %q must be an http(s) URL", field.name, field.value))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// DefaultSpecifier parses DefaultVersion. Load has already validated it.
func (c Config) DefaultSpecifier() version.Specifier {
	spec, err := version.ParseSpecifier(c.DefaultVersion)
	if err != nil {
		return version.Latest{}
	}
	return spec
}
