package replay

import (
	"strings"
	"testing"
	"time"

	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/pacing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []string{
	"#include <stdio.h>\nint main() {\n    int a, b;\n    scanf(\"%d %d\", &a, &b);\n    printf(\"%d\", a + b);\n    return 0;\n}",
	"x",
	"\n\nleading and trailing newlines\n\n",
	"a very long single line that will certainly be split across several chunks of text to type",
	"unicode ✓ ümlaut 日本語 and {braces} [brackets]",
	"",
}

func TestBuildRendersInput(t *testing.T) {
	modes := []PlanOptions{
		{Mode: entity.ReplayModeChunked},
		{Mode: entity.ReplayModeCharacter, Typing: pacing.Range(50*time.Millisecond, 150*time.Millisecond)},
		{Mode: entity.ReplayModeCharacter, Typing: pacing.Range(50*time.Millisecond, 150*time.Millisecond), TypoRate: 0.5},
		{Mode: entity.ReplayModeCharacter, TypoRate: 1},
	}

	for _, opts := range modes {
		for seed := uint64(1); seed <= 5; seed++ {
			for _, text := range samples {
				plan := Build(text, opts, pacing.NewWith(seed, nil))

				assert.Equal(t, text, plan.Rendered(), "mode %s seed %d", opts.Mode, seed)
			}
		}
	}
}

func TestBuildNormalizesLineEndingsAndTabs(t *testing.T) {
	plan := Build("a\r\n\tb\rc", PlanOptions{Mode: entity.ReplayModeChunked}, pacing.NewWith(1, nil))

	assert.Equal(t, "a\n    b\nc", plan.Rendered())
}

func TestBuildChunkedShape(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) + "\n" + "short"
	plan := Build(text, PlanOptions{Mode: entity.ReplayModeChunked, Floor: 100 * time.Millisecond}, pacing.NewWith(3, nil))

	require.NotEmpty(t, plan.Strokes)
	assert.Equal(t, entity.ReplayModeChunked, plan.Mode)

	size := len(plan.Strokes[0].Value)
	assert.GreaterOrEqual(t, size, chunkMin)
	assert.LessOrEqual(t, size, chunkMax)

	enters := 0
	for _, s := range plan.Strokes {
		assert.GreaterOrEqual(t, s.Delay, 100*time.Millisecond)

		if s.Kind == entity.KeystrokeType {
			assert.LessOrEqual(t, len([]rune(s.Value)), size)
		} else {
			enters++
			assert.Equal(t, entity.KeyEnter, s.Value)
		}
	}

	assert.Equal(t, 1, enters)
}

func TestBuildChunkedDefaultDelays(t *testing.T) {
	plan := Build("ab\ncd", PlanOptions{Mode: entity.ReplayModeChunked}, pacing.NewWith(1, nil))

	require.Len(t, plan.Strokes, 3)
	assert.Equal(t, chunkDelay, plan.Strokes[0].Delay)
	assert.Equal(t, lineBreakDelay, plan.Strokes[1].Delay)
}

func TestBuildCharacterDelays(t *testing.T) {
	typing := pacing.Range(50*time.Millisecond, 150*time.Millisecond)
	text := strings.Repeat("a", 45)

	plan := Build(text, PlanOptions{Mode: entity.ReplayModeCharacter, Typing: typing}, pacing.NewWith(9, nil))

	require.Len(t, plan.Strokes, 45)

	for i, s := range plan.Strokes {
		assert.GreaterOrEqual(t, s.Delay, typing.Min)

		if (i+1)%stabilityEvery == 0 {
			assert.GreaterOrEqual(t, s.Delay, typing.Min+stabilityPause.Min)
		} else {
			assert.LessOrEqual(t, s.Delay, typing.Max)
		}
	}
}

func TestBuildCharacterTyposOnlyOnLetters(t *testing.T) {
	plan := Build("a1{ b", PlanOptions{Mode: entity.ReplayModeCharacter, TypoRate: 1}, pacing.NewWith(2, nil))

	var backspaces int
	for i, s := range plan.Strokes {
		if s.Value == entity.KeyBackspace {
			backspaces++

			wrong := plan.Strokes[i-1].Value
			right := plan.Strokes[i+1].Value
			assert.NotEqual(t, right, wrong)
		}
	}

	assert.Equal(t, 2, backspaces)
	assert.Equal(t, "a1{ b", plan.Rendered())
}

func TestWrongLetterKeepsCase(t *testing.T) {
	p := pacing.NewWith(4, nil)

	for _, r := range "azAZmQ" {
		w := wrongLetter(r, p)

		assert.NotEqual(t, r, w)
		assert.Equal(t, r >= 'a', w >= 'a')
	}
}
