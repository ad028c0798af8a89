package entity

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type SelectorKind string

const (
	SelectorCSS   SelectorKind = "css"
	SelectorXPath SelectorKind = "xpath"
	SelectorText  SelectorKind = "text"
)

type Selector struct {
	Kind  SelectorKind
	Value string
}

func CSS(value string) Selector {
	return Selector{Kind: SelectorCSS, Value: value}
}

func XPath(value string) Selector {
	return Selector{Kind: SelectorXPath, Value: value}
}

func Text(value string) Selector {
	return Selector{Kind: SelectorText, Value: value}
}

func (s Selector) String() string {
	return string(s.Kind) + "=" + s.Value
}

// ElementQuery is an ordered list of selectors tried left to right; the
// first acceptable match wins.
type ElementQuery struct {
	Purpose   string
	Selectors []Selector
}

type Provenance string

const (
	ProvenancePage  Provenance = "page"
	ProvenanceModel Provenance = "model"
)

type AcquiredSolution struct {
	Text       string
	Provenance Provenance
	Selector   string
}

type LocateResult struct {
	Found          bool
	Selector       Selector
	PanelConfirmed bool
	ScriptClick    bool
}

type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

type ReplayMode string

const (
	ReplayModeChunked   ReplayMode = "chunked"
	ReplayModeCharacter ReplayMode = "character"
)

func ParseReplayMode(s string) ReplayMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chunked", "chunk", "fast":
		return ReplayModeChunked
	case "character", "char", "characters":
		return ReplayModeCharacter
	default:
		return ReplayMode(s)
	}
}

func (m ReplayMode) Valid() bool {
	return m == ReplayModeChunked || m == ReplayModeCharacter
}

type KeystrokeKind string

const (
	KeystrokeType  KeystrokeKind = "type"
	KeystrokePress KeystrokeKind = "press"
)

type Keystroke struct {
	Kind  KeystrokeKind
	Value string
	Delay time.Duration
}

type TypingPlan struct {
	Mode    ReplayMode
	Strokes []Keystroke
}

// Rendered applies the plan to an empty buffer the way an editor with
// auto-pairing disabled would: text is appended, Enter adds a newline and
// Backspace removes the last rune.
func (p *TypingPlan) Rendered() string {
	buf := make([]rune, 0, len(p.Strokes))

	for _, stroke := range p.Strokes {
		switch stroke.Kind {
		case KeystrokeType:
			buf = append(buf, []rune(stroke.Value)...)
		case KeystrokePress:
			switch stroke.Value {
			case KeyEnter:
				buf = append(buf, '\n')
			case KeyBackspace:
				if len(buf) > 0 {
					buf = buf[:len(buf)-1]
				}
			}
		}
	}

	return string(buf)
}

func (p *TypingPlan) Duration() time.Duration {
	var total time.Duration

	for _, stroke := range p.Strokes {
		total += stroke.Delay
	}

	return total
}

const (
	KeyEnter     = "Enter"
	KeyBackspace = "Backspace"
	KeyDelete    = "Delete"
	KeySelectAll = "Control+A"
)

type CycleState string

const (
	CycleStateIdle            CycleState = "idle"
	CycleStateSessionChecked  CycleState = "session_checked"
	CycleStateLocating        CycleState = "locating"
	CycleStateLocated         CycleState = "located"
	CycleStateNotLocated      CycleState = "not_located"
	CycleStateExtractingPage  CycleState = "extracting_page"
	CycleStateConfirmingModel CycleState = "confirming_model"
	CycleStateGenerating      CycleState = "generating"
	CycleStateAcquired        CycleState = "acquired"
	CycleStateReplaying       CycleState = "replaying"
	CycleStateDone            CycleState = "done"
	CycleStateFailed          CycleState = "failed"
)

type Cycle struct {
	ID             uuid.UUID
	State          CycleState
	Trail          []CycleState
	Provenance     Provenance
	Chars          int
	PanelConfirmed bool
	CompileError   string
	Error          string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

func NewCycle() *Cycle {
	return &Cycle{
		ID:        uuid.New(),
		State:     CycleStateIdle,
		Trail:     []CycleState{CycleStateIdle},
		StartedAt: time.Now(),
	}
}

func (c *Cycle) Advance(state CycleState) {
	c.State = state
	c.Trail = append(c.Trail, state)

	if state == CycleStateDone || state == CycleStateFailed {
		finished := time.Now()
		c.FinishedAt = &finished
	}
}

func (c *Cycle) Fail(err error) {
	if err != nil {
		c.Error = err.Error()
	}

	c.Advance(CycleStateFailed)
}

func (c *Cycle) Succeeded() bool {
	return c.State == CycleStateDone
}

// Stats holds accumulated counters; readers on other goroutines see
// consistent values per field.
type Stats struct {
	solved atomic.Int64
	failed atomic.Int64
}

func (s *Stats) Record(success bool) {
	if success {
		s.solved.Add(1)
	} else {
		s.failed.Add(1)
	}
}

func (s *Stats) Solved() int64 {
	return s.solved.Load()
}

func (s *Stats) Failed() int64 {
	return s.failed.Load()
}

func (s *Stats) Total() int64 {
	return s.Solved() + s.Failed()
}

func (s *Stats) SuccessRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}

	return float64(s.Solved()) / float64(total) * 100
}

type BatchReport struct {
	Processed   int
	Solved      int
	Failed      int
	StopReason  string
	Cycles      []*Cycle
	StartedAt   time.Time
	CompletedAt time.Time
}

func (r *BatchReport) SuccessRate() float64 {
	if r.Processed == 0 {
		return 0
	}

	return float64(r.Solved) / float64(r.Processed) * 100
}

type ModelInfo struct {
	Name string
	Size int64
}

type DiagnosticCheck struct {
	Name   string
	Passed bool
	Detail string
}

type DiagnosticReport struct {
	Checks []DiagnosticCheck
}

func (r *DiagnosticReport) Add(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, DiagnosticCheck{Name: name, Passed: passed, Detail: detail})
}

func (r *DiagnosticReport) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}

	return true
}
