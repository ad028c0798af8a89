package dom

import (
	"context"
	"strings"
	"testing"

	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/ports"
	"challenge-replayer/internal/ports/portstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var query = entity.ElementQuery{
	Purpose: "test",
	Selectors: []entity.Selector{
		entity.CSS("#first"),
		entity.XPath("//button[contains(text(), 'Second')]"),
		entity.CSS(".third"),
	},
}

func TestFirstSkipsFailingAndHiddenSelectors(t *testing.T) {
	page := portstest.NewPage()
	page.Errors[entity.CSS("#first").String()] = portstest.ErrFake
	page.Add(entity.XPath("//button[contains(text(), 'Second')]"), &portstest.Element{Visible: false, Enabled: true})
	want := &portstest.Element{Visible: true, Enabled: true}
	page.Add(entity.CSS(".third"), &portstest.Element{Visible: true, Enabled: false}, want)

	match, ok := First(context.Background(), page, query, Actionable)

	require.True(t, ok)
	assert.Same(t, want, match.Element)
	assert.Equal(t, 2, match.Index)
	assert.Len(t, page.Queried, 3)
}

func TestFirstStopsAtEarliestMatch(t *testing.T) {
	page := portstest.NewPage()
	page.Add(entity.CSS("#first"), &portstest.Element{Visible: true, Enabled: true})
	page.Add(entity.CSS(".third"), &portstest.Element{Visible: true, Enabled: true})

	match, ok := First(context.Background(), page, query, Actionable)

	require.True(t, ok)
	assert.Equal(t, entity.CSS("#first"), match.Selector)
	assert.Len(t, page.Queried, 1)
}

func TestFirstExhausted(t *testing.T) {
	page := portstest.NewPage()

	_, ok := First(context.Background(), page, query, Present)

	assert.False(t, ok)
	assert.Len(t, page.Queried, len(query.Selectors))
}

func TestFirstCancelled(t *testing.T) {
	page := portstest.NewPage()
	page.Add(entity.CSS("#first"), &portstest.Element{Visible: true, Enabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := First(ctx, page, query, Present)
	assert.False(t, ok)
}

func TestActionableTreatsProbeErrorsAsNo(t *testing.T) {
	el := &portstest.Element{Visible: true, Enabled: true, ProbeErr: portstest.ErrFake}

	assert.False(t, Actionable(context.Background(), el))
	assert.False(t, Visible(context.Background(), el))
}

func TestFirstTextSkipsBlankResults(t *testing.T) {
	page := portstest.NewPage()
	page.Add(entity.CSS("#first"), &portstest.Element{HTML: "   "})
	page.Add(entity.CSS(".third"), &portstest.Element{HTML: "<b>hello</b>"})

	read := func(ctx context.Context, el ports.Element) (string, error) {
		return el.InnerHTML(ctx)
	}
	strip := func(s string) string {
		return strings.NewReplacer("<b>", "", "</b>", "").Replace(s)
	}

	text, match, ok := FirstText(context.Background(), page, query, read, strip)

	require.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, entity.CSS(".third"), match.Selector)
}
