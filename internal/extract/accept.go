package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxModelSolutionLength = 5000

const (
	CheckInclude     = "has_include"
	CheckEntry       = "has_main"
	CheckReturn      = "has_return"
	CheckBraces      = "has_braces"
	CheckLength      = "not_too_long"
	CheckExplanation = "not_explanation"
)

var (
	ErrTooShort = errors.New("solution too short or empty")
	ErrRejected = errors.New("solution failed acceptance checks")
)

var (
	includeMarkers = []string{"#include", "import "}
	entryMarkers   = []string{"int main(", "main()", "main(void)", "static void main("}
	leadIns        = []string{"here", "this", "the solution", "explanation", "sure"}

	embeddedFence = regexp.MustCompile("(?s)```[a-zA-Z+#]*[ \t]*\n(.*?)\n[ \t]*```")
)

type Check struct {
	Name   string
	Passed bool
}

type Verdict struct {
	Text     string
	Checks   []Check
	Failed   []string
	Accepted bool
	Salvaged bool
}

func (v Verdict) passed(name string) bool {
	for _, c := range v.Checks {
		if c.Name == name {
			return c.Passed
		}
	}

	return false
}

// Accept runs the acceptance filter over model output and returns the
// cleaned source on success.
func Accept(raw string) (string, error) {
	v := Evaluate(raw)
	if v.Accepted {
		return v.Text, nil
	}

	if len(strings.TrimSpace(v.Text)) < MinSolutionLength {
		return "", ErrTooShort
	}

	return "", fmt.Errorf("%w: %s", ErrRejected, strings.Join(v.Failed, ", "))
}

// Evaluate unwraps fenced code and scores it. The include and entry-point
// checks are mandatory; with both passing, up to two other failures are
// tolerated.
func Evaluate(raw string) Verdict {
	text := Unfence(strings.TrimSpace(raw))
	v := Verdict{Text: text}

	if len(text) < MinSolutionLength {
		v.Failed = []string{"too_short"}
		return v
	}

	lower := strings.ToLower(text)
	v.Checks = []Check{
		{CheckInclude, containsAny(text, includeMarkers)},
		{CheckEntry, containsAny(text, entryMarkers)},
		{CheckReturn, strings.Contains(text, "return")},
		{CheckBraces, strings.Contains(text, "{") && strings.Contains(text, "}")},
		{CheckLength, len(text) < maxModelSolutionLength},
		{CheckExplanation, !hasAnyPrefix(lower, leadIns)},
	}

	for _, c := range v.Checks {
		if !c.Passed {
			v.Failed = append(v.Failed, c.Name)
		}
	}

	switch {
	case len(v.Failed) == 0:
		v.Accepted = true
	case !v.passed(CheckInclude) || !v.passed(CheckEntry):
		v.Accepted = false
	case len(v.Failed) <= 2:
		v.Accepted = true
		v.Salvaged = true
	}

	return v
}

// Unfence strips a surrounding ``` fence, or pulls the first fenced block
// out of prose.
func Unfence(text string) string {
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		lines = lines[1:]

		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
			lines = lines[:n-1]
		}

		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	if m := embeddedFence.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	return text
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}

	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}
