package replay

import (
	"strings"
	"time"
	"unicode"

	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/pacing"
)

const (
	chunkMin       = 15
	chunkMax       = 25
	chunkDelay     = 80 * time.Millisecond
	lineBreakDelay = 40 * time.Millisecond
	stabilityEvery = 20
	tabWidth       = 4
)

var (
	stabilityPause = pacing.Range(200*time.Millisecond, 500*time.Millisecond)
	newlinePause   = pacing.Range(150*time.Millisecond, 400*time.Millisecond)
)

// PlanOptions selects the replay strategy and its pacing.
type PlanOptions struct {
	Mode     entity.ReplayMode
	Typing   entity.DelayRange
	TypoRate float64
	Floor    time.Duration
}

// Build derives the keystroke plan for text. Rendering the plan always
// reproduces text with line endings normalized and tabs expanded.
func Build(text string, opts PlanOptions, pacer *pacing.Pacer) *entity.TypingPlan {
	text = Prepare(text)

	switch opts.Mode {
	case entity.ReplayModeCharacter:
		return buildCharacter(text, opts, pacer)
	default:
		return buildChunked(text, opts, pacer)
	}
}

// Prepare normalizes line endings and expands tabs, which would otherwise
// move focus out of the editor.
func Prepare(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
}

func buildChunked(text string, opts PlanOptions, pacer *pacing.Pacer) *entity.TypingPlan {
	plan := &entity.TypingPlan{Mode: entity.ReplayModeChunked}
	size := pacer.IntRange(chunkMin, chunkMax)
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		runes := []rune(line)

		for start := 0; start < len(runes); start += size {
			end := min(start+size, len(runes))
			plan.Strokes = append(plan.Strokes, entity.Keystroke{
				Kind:  entity.KeystrokeType,
				Value: string(runes[start:end]),
				Delay: max(chunkDelay, opts.Floor),
			})
		}

		if i < len(lines)-1 {
			plan.Strokes = append(plan.Strokes, entity.Keystroke{
				Kind:  entity.KeystrokePress,
				Value: entity.KeyEnter,
				Delay: max(lineBreakDelay, opts.Floor),
			})
		}
	}

	return plan
}

func buildCharacter(text string, opts PlanOptions, pacer *pacing.Pacer) *entity.TypingPlan {
	plan := &entity.TypingPlan{Mode: entity.ReplayModeCharacter}
	typed := 0

	for _, r := range text {
		delay := max(pacer.Between(opts.Typing), opts.Floor)

		if r == '\n' {
			plan.Strokes = append(plan.Strokes, entity.Keystroke{
				Kind:  entity.KeystrokePress,
				Value: entity.KeyEnter,
				Delay: delay + pacer.Between(newlinePause),
			})

			continue
		}

		if opts.TypoRate > 0 && unicode.IsLetter(r) && r < unicode.MaxASCII && pacer.Float64() < opts.TypoRate {
			plan.Strokes = append(plan.Strokes,
				entity.Keystroke{
					Kind:  entity.KeystrokeType,
					Value: string(wrongLetter(r, pacer)),
					Delay: max(pacer.Between(opts.Typing), opts.Floor),
				},
				entity.Keystroke{
					Kind:  entity.KeystrokePress,
					Value: entity.KeyBackspace,
					Delay: max(pacer.Between(opts.Typing), opts.Floor),
				},
			)
		}

		typed++
		if typed%stabilityEvery == 0 {
			delay += pacer.Between(stabilityPause)
		}

		plan.Strokes = append(plan.Strokes, entity.Keystroke{
			Kind:  entity.KeystrokeType,
			Value: string(r),
			Delay: delay,
		})
	}

	return plan
}

// wrongLetter picks a different ASCII letter of the same case.
func wrongLetter(r rune, pacer *pacing.Pacer) rune {
	base := 'a'
	if unicode.IsUpper(r) {
		base = 'A'
	}

	offset := pacer.IntRange(1, 25)

	return base + (r-base+rune(offset))%26
}
