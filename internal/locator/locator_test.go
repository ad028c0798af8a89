package locator

import (
	"context"
	"testing"
	"time"

	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/pacing"
	"challenge-replayer/internal/pagemap"
	"challenge-replayer/internal/ports/portstest"
	"challenge-replayer/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sleepLog struct {
	calls []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newLocator(page *portstest.Page) (*Locator, *sleepLog) {
	log := &sleepLog{}

	return New(page, pacing.NewWith(1, log.sleep), DefaultTiming, zap.NewNop()), log
}

func TestLocateFallsBackToSecondSelector(t *testing.T) {
	page := portstest.NewPage()
	button := &portstest.Element{Visible: true, Enabled: true}
	page.Add(pagemap.RevealControl.Selectors[1], button)
	button.OnClick = func() {
		page.Add(pagemap.CodePanel.Selectors[0], &portstest.Element{Visible: true})
	}

	loc, _ := newLocator(page)
	res, err := loc.Locate(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.PanelConfirmed)
	assert.Equal(t, pagemap.RevealControl.Selectors[1], res.Selector)
	assert.Equal(t, 1, button.Clicks)
	assert.Equal(t, 1, button.Scrolls)
}

func TestLocateNotFound(t *testing.T) {
	page := portstest.NewPage()
	page.Add(pagemap.RevealControl.Selectors[0], &portstest.Element{Visible: false, Enabled: true})

	loc, log := newLocator(page)
	res, err := loc.Locate(context.Background())

	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Empty(t, log.calls)
	assert.False(t, loc.Present(context.Background()))
}

func TestLocateFallsBackToScriptClick(t *testing.T) {
	page := portstest.NewPage()
	button := &portstest.Element{Visible: true, Enabled: true, ClickErr: portstest.ErrFake}
	page.Add(pagemap.RevealControl.Selectors[0], button)
	page.Add(pagemap.CodePanel.Selectors[1], &portstest.Element{Visible: true})

	loc, _ := newLocator(page)
	res, err := loc.Locate(context.Background())

	require.NoError(t, err)
	assert.True(t, res.ScriptClick)
	assert.Equal(t, 1, button.JSClicks)
	assert.True(t, res.PanelConfirmed)
}

func TestLocateLenientWhenPanelNeverAppears(t *testing.T) {
	page := portstest.NewPage()
	page.Add(entity.CSS("#showbtn"), &portstest.Element{Visible: true, Enabled: true})

	loc, log := newLocator(page)
	res, err := loc.Locate(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.PanelConfirmed)
	// pre-click, post-click and two gaps between the three polls
	assert.Len(t, log.calls, 4)
}

func TestLocateCancelled(t *testing.T) {
	page := portstest.NewPage()
	page.Add(entity.CSS("#showbtn"), &portstest.Element{Visible: true, Enabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loc, _ := newLocator(page)
	_, err := loc.Locate(ctx)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeCancelled, apperr.CodeOf(err))
}

func TestPresentDoesNotClick(t *testing.T) {
	page := portstest.NewPage()
	button := &portstest.Element{Visible: true, Enabled: true}
	page.Add(pagemap.RevealControl.Selectors[4], button)

	loc, _ := newLocator(page)

	assert.True(t, loc.Present(context.Background()))
	assert.Zero(t, button.Clicks)
}

func TestNewLocatorTakesBothSettleRangesFromSettings(t *testing.T) {
	settings := &config.Settings{
		PreClickDelays: config.Range{Min: 0.2, Max: 0.4},
		HumanDelays:    config.Range{Min: 2, Max: 5},
	}

	l := NewLocator(Params{
		Pacer:  pacing.NewWith(1, nil),
		Config: &config.Config{Settings: settings},
		Logger: zap.NewNop(),
	})

	assert.Equal(t, pacing.Range(200*time.Millisecond, 400*time.Millisecond), l.timing.PreClick)
	assert.Equal(t, pacing.Range(2*time.Second, 5*time.Second), l.timing.PostClick)
	assert.Equal(t, DefaultTiming.PollGap, l.timing.PollGap)
}
