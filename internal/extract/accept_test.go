package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProgram = "#include <stdio.h>\nint main() {\n    int a, b;\n    scanf(\"%d %d\", &a, &b);\n    printf(\"%d\", a + b);\n    return 0;\n}"

func TestAcceptValid(t *testing.T) {
	got, err := Accept(validProgram)

	require.NoError(t, err)
	assert.Equal(t, validProgram, got)
}

func TestAcceptUnwrapsFence(t *testing.T) {
	got, err := Accept("```c\n" + validProgram + "\n```")

	require.NoError(t, err)
	assert.Equal(t, validProgram, got)
}

func TestAcceptExtractsEmbeddedFence(t *testing.T) {
	raw := "Sure, the program reads two numbers.\n```cpp\n" + validProgram + "\n```\nHope that helps."

	got, err := Accept(raw)

	require.NoError(t, err)
	assert.Equal(t, validProgram, got)
}

func TestAcceptRejectsMissingMandatory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no include", "int main() {\n    return 0;\n}"},
		{"no entry point", "#include <stdio.h>\nint solve(int a) {\n    return a;\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Accept(tt.raw)

			require.ErrorIs(t, err, ErrRejected)
		})
	}
}

func TestAcceptSalvagesMinorFailures(t *testing.T) {
	// no return and an explanatory lead-in
	raw := "This reads input\n#include <stdio.h>\nint main() {\n    puts(\"hi\");\n}"

	v := Evaluate(raw)

	assert.True(t, v.Accepted)
	assert.True(t, v.Salvaged)
	assert.ElementsMatch(t, []string{CheckReturn, CheckExplanation}, v.Failed)
}

func TestAcceptRejectsThreeMinorFailures(t *testing.T) {
	// no return, no braces, explanatory lead-in
	raw := "Here it is: #include <stdio.h> int main() puts(1);"

	v := Evaluate(raw)

	assert.False(t, v.Accepted)
	assert.Len(t, v.Failed, 3)
}

func TestAcceptSalvagesOverlong(t *testing.T) {
	raw := "#include <stdio.h>\nint main() {\n" + strings.Repeat("    puts(\"x\");\n", 400) + "}"

	v := Evaluate(raw)

	assert.True(t, v.Accepted)
	assert.True(t, v.Salvaged)
	assert.Contains(t, v.Failed, CheckLength)
}

func TestAcceptTooShort(t *testing.T) {
	for _, raw := range []string{"", "   ", "int x;", "```\n```"} {
		_, err := Accept(raw)

		require.ErrorIs(t, err, ErrTooShort, "raw %q", raw)
	}
}

func TestUnfence(t *testing.T) {
	assert.Equal(t, "int x;", Unfence("```\nint x;\n```"))
	assert.Equal(t, "int x;", Unfence("```c\nint x;"))
	assert.Equal(t, "plain", Unfence("plain"))
}
