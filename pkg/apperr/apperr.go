package apperr

import (
	"errors"
	"fmt"
)

const (
	MetaReason   = "reason"
	MetaStage    = "stage"
	MetaField    = "field"
	MetaCycleID  = "cycle_id"
	MetaQuery    = "query"
	MetaSelector = "selector"
	MetaURL      = "url"
	MetaStatus   = "status_code"

	StageConfig   = "config"
	StageSession  = "session"
	StageLocate   = "locate"
	StageExtract  = "extract"
	StageGenerate = "generate"
	StageReplay   = "replay"
	StagePrompt   = "prompt"
	StageBatch    = "batch"

	CodeInternal             = "internal"
	CodeInvalidArgument      = "invalid_argument"
	CodeNotFound             = "not_found"
	CodeSessionDead          = "session_dead"
	CodeBrowserNotReady      = "browser_not_ready"
	CodeExtractionTooShort   = "extraction_too_short"
	CodeValidationFailed     = "validation_failed"
	CodeInferenceUnavailable = "inference_unavailable"
	CodeModelDisabled        = "model_disabled"
	CodeDeclinedByUser       = "declined_by_user"
	CodePanelNotConfirmed    = "panel_not_confirmed"
	CodeReplayFailed         = "replay_failed"
	CodeCancelled            = "cancelled"
)

type Error struct {
	Op       string
	Code     string
	Err      error
	Metadata map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(op, code string, err error, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Error{
		Op:       op,
		Code:     code,
		Err:      err,
		Metadata: metadata,
	}
}

func WrapWithReason(op, code string, err error, reason string) error {
	return Wrap(op, code, err, map[string]any{
		MetaReason: reason,
	})
}

func WrapErrorWithReason(op, code, reason string) error {
	return Wrap(op, code, errors.New(reason), map[string]any{
		MetaReason: reason,
	})
}

func InvalidReqError(op, field string, err error) error {
	return Wrap(op, CodeInvalidArgument, err, map[string]any{
		MetaField:  field,
		MetaReason: "invalid_request",
	})
}

func NotFoundError(op string, err error) error {
	return Wrap(op, CodeNotFound, err, map[string]any{
		MetaReason: "not_found",
	})
}

// CodeOf returns the code of the outermost *Error in the chain, or CodeInternal.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return CodeInternal
}

// ReasonOf returns the first reason found walking the chain from the outside in.
func ReasonOf(err error) string {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return ""
		}

		if reason, ok := appErr.Metadata[MetaReason].(string); ok && reason != "" {
			return reason
		}

		err = appErr.Err
	}

	return ""
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *Error
		if !errors.As(err, &appErr) {
			return false
		}

		if appErr.Code == code {
			return true
		}

		err = appErr.Err
	}

	return false
}
