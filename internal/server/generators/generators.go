// Package generators holds the external capabilities of the diary pipeline:
// turning a conversation into a summary and a summary into a video asset.
// The implementations here are stand-ins for real model-backed services.
package generators

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Summarizer condenses a conversation into diary prose, personalised by
// the user's prompt (which may be empty).
type Summarizer interface {
	Summarize(ctx context.Context, conversation, prompt string) (string, error)
}

// VideoSynthesizer renders a summary into a video and returns an opaque
// reference to it.
type VideoSynthesizer interface {
	Synthesize(ctx context.Context, summary string) (string, error)
}

// VideoLinker turns a stored video reference into something a client can fetch.
type VideoLinker interface {
	Link(ctx context.Context, ref string) (string, error)
}

// SummaryLength caps the output of EchoSummarizer, in characters.
const SummaryLength = 100

// EchoSummarizer returns the conversation itself, prefixed with the prompt
// in brackets, cut to SummaryLength characters.
type EchoSummarizer struct{}

func (EchoSummarizer) Summarize(ctx context.Context, conversation, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	if prompt != "" {
		b.WriteString("[")
		b.WriteString(prompt)
		b.WriteString("] ")
	}
	b.WriteString(conversation)
	return common.Truncate(b.String(), SummaryLength), nil
}

// RefLinker hands out stored references unchanged. It is used when videos
// live on the local filesystem.
type RefLinker struct{}

func (RefLinker) Link(ctx context.Context, ref string) (string, error) {
	return ref, nil
}
