package diagnostics

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNoExpression   = errors.New("not a binary integer expression")
	ErrDivisionByZero = errors.New("division by zero")
)

var expressionPattern = regexp.MustCompile(`^(\d+)([+\-*/])(\d+)$`)

// EvaluateExpression computes "a op b" for non-negative integers a and b.
// Spaces are ignored, anything else around the expression is rejected and
// division truncates.
func EvaluateExpression(expr string) (int, error) {
	m := expressionPattern.FindStringSubmatch(strings.ReplaceAll(expr, " ", ""))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrNoExpression, expr)
	}

	a, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("left operand: %w", err)
	}

	b, err := strconv.Atoi(m[3])
	if err != nil {
		return 0, fmt.Errorf("right operand: %w", err)
	}

	switch m[2] {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	default:
		if b == 0 {
			return 0, ErrDivisionByZero
		}

		return a / b, nil
	}
}
