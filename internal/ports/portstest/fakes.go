// Package portstest provides in-memory fakes of the ports interfaces.
package portstest

import (
	"context"
	"errors"
	"sync"

	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/ports"
)

var ErrFake = errors.New("fake failure")

type Element struct {
	Visible   bool
	Enabled   bool
	HTML      string
	InnerText string
	ClickErr  error
	ProbeErr  error
	Clicks    int
	JSClicks  int
	Scrolls   int
	Focuses   int
	OnClick   func()
}

func (e *Element) IsVisible(context.Context) (bool, error) {
	if e.ProbeErr != nil {
		return false, e.ProbeErr
	}

	return e.Visible, nil
}

func (e *Element) IsEnabled(context.Context) (bool, error) {
	if e.ProbeErr != nil {
		return false, e.ProbeErr
	}

	return e.Enabled, nil
}

func (e *Element) ScrollToCenter(context.Context) error {
	e.Scrolls++
	return nil
}

func (e *Element) Click(context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}

	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}

	return nil
}

func (e *Element) ScriptClick(context.Context) error {
	e.JSClicks++
	if e.OnClick != nil {
		e.OnClick()
	}

	return nil
}

func (e *Element) Focus(context.Context) error {
	e.Focuses++
	return nil
}

func (e *Element) InnerHTML(context.Context) (string, error) {
	return e.HTML, nil
}

func (e *Element) Text(context.Context) (string, error) {
	return e.InnerText, nil
}

// Page serves elements keyed by Selector.String(). Selectors listed in
// Errors fail the query itself.
type Page struct {
	mu       sync.Mutex
	Elements map[string][]*Element
	Errors   map[string]error
	Body     string
	BodyErr  error
	Scripts  []string
	EvalFn   func(script string, arg any) (any, error)
	Queried  []string
}

func NewPage() *Page {
	return &Page{
		Elements: map[string][]*Element{},
		Errors:   map[string]error{},
	}
}

func (p *Page) Add(selector entity.Selector, els ...*Element) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Elements[selector.String()] = append(p.Elements[selector.String()], els...)

	return p
}

func (p *Page) QueryAll(_ context.Context, selector entity.Selector) ([]ports.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := selector.String()
	p.Queried = append(p.Queried, key)

	if err := p.Errors[key]; err != nil {
		return nil, err
	}

	out := make([]ports.Element, 0, len(p.Elements[key]))
	for _, el := range p.Elements[key] {
		out = append(out, el)
	}

	return out, nil
}

func (p *Page) Evaluate(_ context.Context, script string, arg any) (any, error) {
	p.mu.Lock()
	p.Scripts = append(p.Scripts, script)
	fn := p.EvalFn
	p.mu.Unlock()

	if fn != nil {
		return fn(script, arg)
	}

	return nil, nil
}

func (p *Page) BodyText(context.Context) (string, error) {
	return p.Body, p.BodyErr
}

// Keyboard records every emitted stroke. FailAfter > 0 makes the n-th
// call (1-based) fail.
type Keyboard struct {
	mu        sync.Mutex
	Strokes   []entity.Keystroke
	FailAfter int
	calls     int
}

func (k *Keyboard) record(stroke entity.Keystroke) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls++
	if k.FailAfter > 0 && k.calls >= k.FailAfter {
		return ErrFake
	}

	k.Strokes = append(k.Strokes, stroke)

	return nil
}

func (k *Keyboard) Type(_ context.Context, text string) error {
	return k.record(entity.Keystroke{Kind: entity.KeystrokeType, Value: text})
}

func (k *Keyboard) Press(_ context.Context, key string) error {
	return k.record(entity.Keystroke{Kind: entity.KeystrokePress, Value: key})
}

func (k *Keyboard) Plan() *entity.TypingPlan {
	k.mu.Lock()
	defer k.mu.Unlock()

	return &entity.TypingPlan{Strokes: append([]entity.Keystroke(nil), k.Strokes...)}
}

// Session fakes the browser lifecycle.
type Session struct {
	mu          sync.Mutex
	PingErr     error
	PingErrs    []error
	LaunchErr   error
	CloseErr    error
	Launches    int
	Closes      int
	Pings       int
	HeadlessVal bool
	ready       bool
}

func (s *Session) Launch(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Launches++
	if s.LaunchErr != nil {
		return s.LaunchErr
	}

	s.ready = true

	return nil
}

func (s *Session) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closes++
	s.ready = false

	return s.CloseErr
}

// Ping returns queued PingErrs first, then PingErr.
func (s *Session) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Pings++
	if len(s.PingErrs) > 0 {
		err := s.PingErrs[0]
		s.PingErrs = s.PingErrs[1:]

		return err
	}

	return s.PingErr
}

func (s *Session) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready
}

func (s *Session) Headless() bool {
	return s.HeadlessVal
}

type Prompter struct {
	mu     sync.Mutex
	Answer bool
	Err    error
	Calls  int
	Titles []string
}

func (p *Prompter) Confirm(_ context.Context, title, _ string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls++
	p.Titles = append(p.Titles, title)

	if p.Err != nil {
		return false, p.Err
	}

	return p.Answer, nil
}

type ModelClient struct {
	Response string
	Err      error
	Prompts  []string
	Models   []entity.ModelInfo
}

func (m *ModelClient) Generate(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)

	return m.Response, m.Err
}

func (m *ModelClient) ListModels(context.Context) ([]entity.ModelInfo, error) {
	return m.Models, m.Err
}
