// Package ai talks to a local Ollama inference server.
package ai

import (
	"bytes"
	"challenge-replayer/internal/config"
	"challenge-replayer/internal/entity"
	"challenge-replayer/pkg/apperr"
	"challenge-replayer/pkg/logg"
	"challenge-replayer/pkg/tracing"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	aiClientName = "OllamaClient"
	aiTracer     = "ai.client"

	GenerateTimeout = 30 * time.Second
	TagsTimeout     = 5 * time.Second

	maxErrorBody = 512
)

type Client struct {
	baseURL    string
	model      string
	logger     *zap.Logger
	tracer     trace.Tracer
	httpClient *http.Client
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewClient(params Params) *Client {
	settings := params.Config.Settings

	return New(settings.OllamaURL, settings.OllamaModel, &http.Client{}, params.Logger)
}

func New(baseURL, model string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		logger:     logger.With(zap.String(logg.Layer, aiClientName)),
		tracer:     otel.Tracer(aiTracer),
		httpClient: httpClient,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
	} `json:"models"`
}

// Generate sends a single non-streaming completion request and returns the
// trimmed response text.
func (c *Client) Generate(ctx context.Context, prompt string) (text string, err error) {
	const op = "Generate"
	logger := c.logger.With(zap.String(logg.Operation, op), zap.String(logg.Model, c.model))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op,
		attribute.String("model", c.model),
		attribute.Int("prompt_chars", len(prompt)))
	defer func() {
		step.End(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	jsonData, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "marshal_failed",
			apperr.MetaStage:  apperr.StageGenerate,
		})
	}

	step.AddEvent("sending HTTP request")

	var out generateResponse

	if err := c.do(ctx, op, http.MethodPost, "/api/generate", jsonData, &out); err != nil {
		return "", err
	}

	logger.Debug("Model responded", zap.Int(logg.Chars, len(out.Response)))

	return strings.TrimSpace(out.Response), nil
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) (models []entity.ModelInfo, err error) {
	const op = "ListModels"
	logger := c.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op)
	defer func() {
		step.End(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, TagsTimeout)
	defer cancel()

	var out tagsResponse

	if err := c.do(ctx, op, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}

	models = make([]entity.ModelInfo, 0, len(out.Models))
	for _, m := range out.Models {
		models = append(models, entity.ModelInfo{Name: m.Name, Size: m.Size})
	}

	return models, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "request_create_failed",
			apperr.MetaURL:    url,
		})
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := apperr.CodeInferenceUnavailable
		if ctx.Err() == context.Canceled {
			code = apperr.CodeCancelled
		}

		return apperr.Wrap(op, code, err, map[string]any{
			apperr.MetaReason: "http_request_failed",
			apperr.MetaStage:  apperr.StageGenerate,
			apperr.MetaURL:    url,
		})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Wrap(op, apperr.CodeInferenceUnavailable, err, map[string]any{
			apperr.MetaReason: "read_body_failed",
			apperr.MetaURL:    url,
		})
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}

		return apperr.Wrap(op, apperr.CodeInferenceUnavailable, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, snippet), map[string]any{
			apperr.MetaReason: "api_error",
			apperr.MetaStage:  apperr.StageGenerate,
			apperr.MetaURL:    url,
			apperr.MetaStatus: resp.StatusCode,
		})
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Wrap(op, apperr.CodeInferenceUnavailable, err, map[string]any{
			apperr.MetaReason: "unmarshal_failed",
			apperr.MetaURL:    url,
		})
	}

	return nil
}
