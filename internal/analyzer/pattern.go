package analyzer

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single chapter name match. Patterns come from user
// settings and may backtrack catastrophically.
const matchTimeout = time.Second

// Pattern is a compiled chapter name pattern.
type Pattern struct {
	expr string
	re   *regexp2.Regexp
}

// CompilePattern compiles expr. An empty expression yields a nil pattern.
func CompilePattern(expr string) (*Pattern, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile chapter pattern %q: %w", expr, err)
	}
	re.MatchTimeout = matchTimeout
	return &Pattern{expr: expr, re: re}, nil
}

// Match reports whether name matches. A timeout is reported as a non-match
// together with the error so the caller can log it.
func (p *Pattern) Match(name string) (bool, error) {
	ok, err := p.re.MatchString(name)
	if err != nil {
		return false, err
	}
	return ok, nil
}
