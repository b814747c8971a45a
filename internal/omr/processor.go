package omr

import (
	"context"
	"errors"
	"log"

	"omrscan/internal/port"
)

// VariantKind selects the prompt/extraction mode for a region.
type VariantKind int

const (
	VariantFullSheet VariantKind = iota
	VariantIdentityOnly
	VariantQuestionRange
	VariantAnswerKey
)

// Variant describes what a region is expected to contain. Start/End are only
// meaningful for VariantQuestionRange.
type Variant struct {
	Kind  VariantKind
	Start int
	End   int
}

// FullSheet asks for identity fields plus every response on the sheet.
func FullSheet() Variant { return Variant{Kind: VariantFullSheet} }

// IdentityOnly asks for name/roll-number/date only.
func IdentityOnly() Variant { return Variant{Kind: VariantIdentityOnly} }

// QuestionRange asks for responses restricted to [start, end].
func QuestionRange(start, end int) Variant {
	return Variant{Kind: VariantQuestionRange, Start: start, End: end}
}

// AnswerKeySheet asks for the correct answers marked on a key sheet.
func AnswerKeySheet() Variant { return Variant{Kind: VariantAnswerKey} }

// FailureKind classifies why a region could not be processed.
type FailureKind string

const (
	FailureUnavailable FailureKind = "capability_unavailable"
	FailureParse       FailureKind = "parse_error"
	FailureUnknown     FailureKind = "unknown"
)

// Failure describes a failed region as data. Region failures never escalate
// past the processor boundary; batch logic needs to continue past them.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	RawText string      `json:"raw_text,omitempty"`
}

// Result is the discriminated outcome of processing one region: exactly one
// of Extraction or Failure is set.
type Result struct {
	Extraction *Extraction
	Failure    *Failure
}

// Failed reports whether the region produced no usable extraction.
func (r Result) Failed() bool { return r.Failure != nil }

// Processor wraps one vision-model call per region with a variant-specific
// prompt. It performs no retries; a slow or failing model call surfaces as a
// Failure result for the caller to act on.
type Processor struct {
	vision port.VisionModel
}

// NewProcessor creates a region processor backed by the given vision model.
func NewProcessor(vision port.VisionModel) *Processor {
	return &Processor{vision: vision}
}

// Process sends one image region through the model and decodes its response.
// The returned Result is always a value; nothing raises past this boundary.
func (p *Processor) Process(ctx context.Context, image []byte, contentType string, v Variant, refKey Key) Result {
	prompt := buildPrompt(v, refKey)

	text, err := p.vision.Generate(ctx, prompt, image, contentType)
	if err != nil {
		kind := FailureUnknown
		if errors.Is(err, port.ErrVisionUnavailable) {
			kind = FailureUnavailable
		}
		log.Printf("omr.Processor: model call failed (%s): %v", kind, err)
		return Result{Failure: &Failure{Kind: kind, Message: err.Error()}}
	}

	payload, err := ExtractPayload(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return Result{Failure: &Failure{Kind: FailureParse, Message: err.Error(), RawText: perr.RawText}}
		}
		return Result{Failure: &Failure{Kind: FailureUnknown, Message: err.Error()}}
	}

	ex, err := DecodeExtraction(payload)
	if err != nil {
		return Result{Failure: &Failure{
			Kind:    FailureParse,
			Message: err.Error(),
			RawText: truncate(text, rawTextLimit),
		}}
	}
	return Result{Extraction: ex}
}
