package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/pacing"
	"challenge-replayer/internal/pagemap"
	"challenge-replayer/internal/ports/portstest"
	"challenge-replayer/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBrowser struct {
	*portstest.Page
	*portstest.Keyboard
}

type sleepLog struct {
	calls []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newReplayer(opts Options) (*Replayer, fakeBrowser, *sleepLog) {
	b := fakeBrowser{Page: portstest.NewPage(), Keyboard: &portstest.Keyboard{}}
	log := &sleepLog{}

	return New(b, pacing.NewWith(11, log.sleep), opts, zap.NewNop()), b, log
}

func TestReplayTypesText(t *testing.T) {
	const text = "#include <stdio.h>\nint main() {\n    return 0;\n}"

	for _, mode := range []entity.ReplayMode{entity.ReplayModeChunked, entity.ReplayModeCharacter} {
		t.Run(string(mode), func(t *testing.T) {
			r, b, log := newReplayer(Options{Plan: PlanOptions{Mode: mode, TypoRate: 0.3}})
			editor := &portstest.Element{Visible: true}
			b.Add(pagemap.Editor.Selectors[1], editor)
			b.EvalFn = func(string, any) (any, error) { return true, nil }

			require.NoError(t, r.Replay(context.Background(), text))

			assert.Equal(t, text, b.Keyboard.Plan().Rendered())
			assert.Equal(t, 1, editor.Focuses)
			assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, log.calls[:countdownTicks])

			strokes := b.Keyboard.Strokes
			require.GreaterOrEqual(t, len(strokes), 2)
			assert.Equal(t, entity.KeySelectAll, strokes[0].Value)
			assert.Equal(t, entity.KeyDelete, strokes[1].Value)

			require.Len(t, b.Scripts, 2)
			assert.Equal(t, pagemap.ClearEditorScript, b.Scripts[0])
			assert.Equal(t, pagemap.ClearBackingFieldScript, b.Scripts[1])
		})
	}
}

func TestReplayClearFailuresAreNotFatal(t *testing.T) {
	r, b, _ := newReplayer(Options{})
	b.EvalFn = func(string, any) (any, error) { return nil, errors.New("page crashed") }

	require.NoError(t, r.Replay(context.Background(), "int x = 1;"))
	assert.Equal(t, "int x = 1;", b.Keyboard.Plan().Rendered())
}

func TestReplayKeyboardFailure(t *testing.T) {
	r, b, _ := newReplayer(Options{})
	b.Keyboard.FailAfter = 4

	err := r.Replay(context.Background(), "0123456789012345678901234567890123456789\nabc")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeReplayFailed, apperr.CodeOf(err))
	assert.ErrorIs(t, err, portstest.ErrFake)
	assert.Len(t, b.Keyboard.Strokes, 3)
}

func TestReplayCancelledDuringCountdown(t *testing.T) {
	r, b, _ := newReplayer(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Replay(ctx, "int x = 1;")

	assert.Equal(t, apperr.CodeCancelled, apperr.CodeOf(err))
	assert.Empty(t, b.Keyboard.Strokes)
}

func TestReplayFormatsWhenEnabled(t *testing.T) {
	r, b, _ := newReplayer(Options{Format: true})

	require.NoError(t, r.Replay(context.Background(), "Here you go\n#include <stdio.h>\nint main() {}"))
	assert.Equal(t, "#include <stdio.h>\nint main() {}", b.Keyboard.Plan().Rendered())
}

func TestReplayEmptyText(t *testing.T) {
	r, b, _ := newReplayer(Options{})

	err := r.Replay(context.Background(), "")

	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Empty(t, b.Scripts)
}

func TestNewFallsBackToChunked(t *testing.T) {
	r, _, _ := newReplayer(Options{Plan: PlanOptions{Mode: "bogus"}})

	assert.Equal(t, entity.ReplayModeChunked, r.opts.Plan.Mode)
}
