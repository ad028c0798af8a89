package ports

import (
	"context"

	"challenge-replayer/internal/entity"
)

// Element is a live handle to one matched DOM node.
type Element interface {
	IsVisible(ctx context.Context) (bool, error)
	IsEnabled(ctx context.Context) (bool, error)
	ScrollToCenter(ctx context.Context) error
	Click(ctx context.Context) error
	ScriptClick(ctx context.Context) error
	Focus(ctx context.Context) error
	InnerHTML(ctx context.Context) (string, error)
	Text(ctx context.Context) (string, error)
}

type Page interface {
	QueryAll(ctx context.Context, selector entity.Selector) ([]Element, error)
	Evaluate(ctx context.Context, script string, arg any) (any, error)
	BodyText(ctx context.Context) (string, error)
}

type Keyboard interface {
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key string) error
}

type Session interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
	IsReady() bool
	Headless() bool
}

type BrowserManager interface {
	Session
	Page
	Keyboard
}

type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]entity.ModelInfo, error)
}

// Prompter blocks until a human answers a yes/no question. An error means
// the prompter could not be shown at all.
type Prompter interface {
	Confirm(ctx context.Context, title, body string) (bool, error)
}

type Guard interface {
	EnsureActive(ctx context.Context) error
}

type Locator interface {
	Locate(ctx context.Context) (*entity.LocateResult, error)
	Present(ctx context.Context) bool
}

type Extractor interface {
	FromPage(ctx context.Context) (*entity.AcquiredSolution, error)
	ProblemText(ctx context.Context) (string, error)
	Generate(ctx context.Context, pageText string) (*entity.AcquiredSolution, error)
}

type Replayer interface {
	Replay(ctx context.Context, text string) error
}
