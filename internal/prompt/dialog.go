package prompt

import (
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("prompter unavailable")

// Surface is a scriptable browser page that a person is looking at.
type Surface interface {
	Evaluate(ctx context.Context, script string, arg any) (any, error)
	Headless() bool
	IsReady() bool
}

// dialogScript renders a modal over the page and resolves once Yes or No
// is clicked. Native dialogs are auto-dismissed by the driver, so the modal
// is plain DOM.
const dialogScript = `({ title, body }) => new Promise((resolve) => {
	const previous = document.getElementById('__replayer_confirm');
	if (previous) {
		previous.remove();
	}
	const host = document.createElement('div');
	host.id = '__replayer_confirm';
	host.style.cssText = 'position:fixed;inset:0;z-index:2147483647;background:rgba(0,0,0,.55);' +
		'display:flex;align-items:center;justify-content:center;font-family:sans-serif;';
	const box = document.createElement('div');
	box.style.cssText = 'background:#fff;color:#222;max-width:480px;padding:24px;border-radius:8px;' +
		'box-shadow:0 8px 32px rgba(0,0,0,.4);';
	const heading = document.createElement('h3');
	heading.textContent = title;
	heading.style.cssText = 'margin:0 0 12px 0;';
	const text = document.createElement('p');
	text.textContent = body;
	text.style.cssText = 'white-space:pre-wrap;margin:0 0 20px 0;line-height:1.4;';
	const buttons = document.createElement('div');
	buttons.style.cssText = 'display:flex;gap:12px;justify-content:flex-end;';
	const done = (answer) => {
		host.remove();
		resolve(answer);
	};
	const button = (label, color, answer) => {
		const b = document.createElement('button');
		b.textContent = label;
		b.style.cssText = 'padding:8px 20px;border:0;border-radius:4px;cursor:pointer;color:#fff;background:' + color + ';';
		b.addEventListener('click', () => done(answer));
		return b;
	};
	buttons.append(button('No', '#b33', false), button('Yes', '#2a7', true));
	box.append(heading, text, buttons);
	host.append(box);
	document.body.append(host);
})`

// Dialog asks through a modal drawn inside the live browser page.
type Dialog struct {
	surface Surface
	logger  *zap.Logger
}

func NewDialog(surface Surface, logger *zap.Logger) *Dialog {
	return &Dialog{
		surface: surface,
		logger:  logger.With(zap.String(logg.Layer, "DialogPrompter")),
	}
}

func (d *Dialog) Confirm(ctx context.Context, title, body string) (bool, error) {
	const op = "Dialog.Confirm"

	if d.surface.Headless() || !d.surface.IsReady() {
		return false, apperr.Wrap(op, apperr.CodeBrowserNotReady, ErrUnavailable, map[string]any{
			apperr.MetaReason: "no_visible_page",
			apperr.MetaStage:  apperr.StagePrompt,
		})
	}

	if err := ctx.Err(); err != nil {
		return false, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	d.logger.Info("Waiting for an answer in the browser window", zap.String("title", title))

	res, err := d.surface.Evaluate(ctx, dialogScript, map[string]any{"title": title, "body": body})
	if err != nil {
		return false, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "dialog_failed",
			apperr.MetaStage:  apperr.StagePrompt,
		})
	}

	answer, ok := res.(bool)
	if !ok {
		return false, apperr.Wrap(op, apperr.CodeInternal, fmt.Errorf("unexpected dialog result %T", res), map[string]any{
			apperr.MetaReason: "dialog_failed",
			apperr.MetaStage:  apperr.StagePrompt,
		})
	}

	return answer, nil
}
