// Package dom resolves an ElementQuery against a live page.
package dom

import (
	"context"
	"strings"

	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/ports"
)

// Match is a resolved element together with the selector that found it.
type Match struct {
	Element  ports.Element
	Selector entity.Selector
	Index    int
}

// Predicate decides whether a candidate element satisfies the lookup.
// Errors are treated as "no".
type Predicate func(ctx context.Context, el ports.Element) bool

// Present accepts any element the query returned.
func Present(context.Context, ports.Element) bool {
	return true
}

// Actionable accepts elements that are both displayed and enabled.
func Actionable(ctx context.Context, el ports.Element) bool {
	visible, err := el.IsVisible(ctx)
	if err != nil || !visible {
		return false
	}

	enabled, err := el.IsEnabled(ctx)

	return err == nil && enabled
}

// Visible accepts displayed elements.
func Visible(ctx context.Context, el ports.Element) bool {
	visible, err := el.IsVisible(ctx)

	return err == nil && visible
}

// First walks the selectors in order and returns the first element
// accepted by pred. A selector that errors or matches nothing does not stop
// the walk. ok is false when the list is exhausted or ctx is done.
func First(ctx context.Context, page ports.Page, query entity.ElementQuery, pred Predicate) (Match, bool) {
	for i, selector := range query.Selectors {
		if ctx.Err() != nil {
			return Match{}, false
		}

		elements, err := page.QueryAll(ctx, selector)
		if err != nil {
			continue
		}

		for _, el := range elements {
			if el != nil && pred(ctx, el) {
				return Match{Element: el, Selector: selector, Index: i}, true
			}
		}
	}

	return Match{}, false
}

// FirstText walks the query like First and returns the first element whose
// transformed text is non-empty. read extracts raw content from the element
// and clean post-processes it; either may reject by returning "".
func FirstText(
	ctx context.Context,
	page ports.Page,
	query entity.ElementQuery,
	read func(ctx context.Context, el ports.Element) (string, error),
	clean func(string) string,
) (string, Match, bool) {
	for i, selector := range query.Selectors {
		if ctx.Err() != nil {
			return "", Match{}, false
		}

		elements, err := page.QueryAll(ctx, selector)
		if err != nil || len(elements) == 0 {
			continue
		}

		// Only the first element of each selector is considered; later
		// matches are usually nested copies of the same block.
		el := elements[0]
		if el == nil {
			continue
		}

		raw, err := read(ctx, el)
		if err != nil {
			continue
		}

		text := raw
		if clean != nil {
			text = clean(raw)
		}

		if strings.TrimSpace(text) != "" {
			return text, Match{Element: el, Selector: selector, Index: i}, true
		}
	}

	return "", Match{}, false
}
