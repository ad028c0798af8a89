// Package extract obtains solution text, either from the revealed code
// panel on the page or from a local inference model.
package extract

import (
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/dom"
	"challenge-replayer/internal/entity"
	"challenge-replayer/internal/pacing"
	"challenge-replayer/internal/pagemap"
	"challenge-replayer/internal/ports"
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"challenge-replayer/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	extractorName   = "TextExtractor"
	extractorTracer = "extract"
)

var DefaultSettle = pacing.Range(time.Second, 2*time.Second)

type Extractor struct {
	page         ports.Page
	model        ports.ModelClient
	pacer        *pacing.Pacer
	settle       entity.DelayRange
	block        entity.ElementQuery
	modelEnabled bool
	modelName    string
	logger       *zap.Logger
	tracer       trace.Tracer
}

type Params struct {
	fx.In

	Page   ports.BrowserManager
	Model  ports.ModelClient
	Pacer  *pacing.Pacer
	Config *config.Config
	Logger *zap.Logger
}

func NewExtractor(params Params) *Extractor {
	settings := params.Config.Settings
	ex := New(params.Page, params.Model, params.Pacer, params.Logger)
	ex.modelEnabled = settings.OllamaEnabled
	ex.modelName = settings.OllamaModel

	return ex
}

// New builds an extractor with the model path enabled.
func New(page ports.Page, model ports.ModelClient, pacer *pacing.Pacer, logger *zap.Logger) *Extractor {
	return &Extractor{
		page:         page,
		model:        model,
		pacer:        pacer,
		settle:       DefaultSettle,
		block:        pagemap.SolutionBlock,
		modelEnabled: true,
		logger:       logger.With(zap.String(logg.Layer, extractorName)),
		tracer:       otel.Tracer(extractorTracer),
	}
}

// WithModelEnabled toggles the inference path.
func (e *Extractor) WithModelEnabled(enabled bool) *Extractor {
	e.modelEnabled = enabled
	return e
}

func (e *Extractor) ModelEnabled() bool {
	return e.modelEnabled
}

// FromPage reads the revealed solution block. The first selector whose
// normalized text is non-empty wins; anything shorter than
// MinSolutionLength is rejected.
func (e *Extractor) FromPage(ctx context.Context) (sol *entity.AcquiredSolution, err error) {
	const op = "FromPage"
	logger := e.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.Int("selectors", len(e.block.Selectors)))
	defer func() {
		step.End(err)
	}()

	if err := e.pacer.Human(ctx, e.settle); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
	}

	text, match, ok := dom.FirstText(ctx, e.page, e.block, readMarkup, NormalizeHTML)
	if !ok {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(op, apperr.CodeCancelled, ctx.Err(), nil)
		}

		logger.Warn("No solution block matched any selector")

		return nil, apperr.Wrap(op, apperr.CodeNotFound, errors.New("no solution block on page"), map[string]any{
			apperr.MetaReason: "no_solution_block",
			apperr.MetaStage:  apperr.StageExtract,
			apperr.MetaQuery:  e.block.Purpose,
		})
	}

	logger = logger.With(zap.String(logg.Selector, match.Selector.String()), zap.Int(logg.Chars, len(text)))

	if len(text) < MinSolutionLength {
		logger.Warn("Extracted solution too short")

		return nil, apperr.Wrap(op, apperr.CodeExtractionTooShort, ErrTooShort, map[string]any{
			apperr.MetaReason:   "too_short",
			apperr.MetaStage:    apperr.StageExtract,
			apperr.MetaSelector: match.Selector.String(),
		})
	}

	logger.Info("Solution extracted from page")
	step.SetAttributes(attribute.String("selector", match.Selector.String()), attribute.Int("chars", len(text)))

	return &entity.AcquiredSolution{
		Text:       text,
		Provenance: entity.ProvenancePage,
		Selector:   match.Selector.String(),
	}, nil
}

// Generate asks the model for a solution to pageText and runs the result
// through the acceptance filter.
func (e *Extractor) Generate(ctx context.Context, pageText string) (sol *entity.AcquiredSolution, err error) {
	const op = "Generate"
	logger := e.logger.With(zap.String(logg.Operation, op), zap.String(logg.Model, e.modelName))

	ctx, step := tracing.StartSpan(ctx, e.tracer, logger, op,
		attribute.Int("page_chars", len(pageText)))
	defer func() {
		step.End(err)
	}()

	if !e.modelEnabled {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeModelDisabled, "model_disabled")
	}

	if len(pageText) < MinSolutionLength {
		return nil, apperr.InvalidReqError(op, "page_text", errors.New("page text is empty"))
	}

	raw, err := e.model.Generate(ctx, BuildPrompt(pageText))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(op, apperr.CodeCancelled, err, nil)
		}

		if apperr.CodeOf(err) == apperr.CodeInternal {
			err = apperr.Wrap(op, apperr.CodeInferenceUnavailable, err, map[string]any{
				apperr.MetaStage: apperr.StageGenerate,
			})
		}

		return nil, err
	}

	step.AddEvent("model responded")

	verdict := Evaluate(raw)
	if !verdict.Accepted {
		logger.Warn("Model output rejected", zap.Strings("failed_checks", verdict.Failed))

		code := apperr.CodeValidationFailed
		cause := fmt.Errorf("%w: %v", ErrRejected, verdict.Failed)

		if len(verdict.Text) < MinSolutionLength {
			code = apperr.CodeExtractionTooShort
			cause = ErrTooShort
		}

		return nil, apperr.Wrap(op, code, cause, map[string]any{
			apperr.MetaReason: "rejected_by_filter",
			apperr.MetaStage:  apperr.StageGenerate,
		})
	}

	if verdict.Salvaged {
		logger.Warn("Model output kept despite failed checks", zap.Strings("failed_checks", verdict.Failed))
	}

	logger.Info("Solution generated by model", zap.Int(logg.Chars, len(verdict.Text)))

	return &entity.AcquiredSolution{
		Text:       verdict.Text,
		Provenance: entity.ProvenanceModel,
	}, nil
}

// ProblemText returns the whole visible page text, which is what the model
// is asked to solve from.
func (e *Extractor) ProblemText(ctx context.Context) (string, error) {
	const op = "ProblemText"

	body, err := e.page.BodyText(ctx)
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeSessionDead, err, map[string]any{
			apperr.MetaReason: "body_text_failed",
			apperr.MetaStage:  apperr.StageGenerate,
		})
	}

	text := strings.TrimSpace(body)
	e.logger.Debug("Page text read",
		zap.String(logg.Operation, op),
		zap.Int(logg.Chars, len(text)))

	return text, nil
}

func readMarkup(ctx context.Context, el ports.Element) (string, error) {
	return el.InnerHTML(ctx)
}
