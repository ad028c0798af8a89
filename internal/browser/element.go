package browser

import (
	"challenge-replayer/pkg/apperr"
	"context"

	"github.com/playwright-community/playwright-go"
)

const clickTimeout = 5000

type element struct {
	handle playwright.ElementHandle
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return e.handle.IsVisible()
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return e.handle.IsEnabled()
}

func (e *element) ScrollToCenter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := e.handle.Evaluate(scrollCenterScript); err != nil {
		return apperr.Wrap("ScrollToCenter", apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "scroll_failed",
		})
	}

	return nil
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(clickTimeout),
	}); err != nil {
		return apperr.Wrap("Click", apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "click_failed",
		})
	}

	return nil
}

func (e *element) ScriptClick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := e.handle.Evaluate(clickScript); err != nil {
		return apperr.Wrap("ScriptClick", apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "script_click_failed",
		})
	}

	return nil
}

func (e *element) Focus(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := e.handle.Evaluate(focusScript); err != nil {
		return apperr.Wrap("Focus", apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "focus_failed",
		})
	}

	return nil
}

func (e *element) InnerHTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return e.handle.InnerHTML()
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	return e.handle.InnerText()
}
