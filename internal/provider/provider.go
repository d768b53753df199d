// Package provider wraps the external AI backends behind one contract.
// Each client makes exactly one network call per request and classifies
// the result into an Outcome; parsing the model's text is the caller's
// job. Clients never return errors directly, so all failure modes are
// visible to the fallback logic.
package provider

import (
	"context"
	"time"
)

// CallTimeout bounds every provider network call.
const CallTimeout = 30 * time.Second

// Status classifies the transport-level result of a provider call.
type Status int

const (
	// StatusSuccess: the provider returned content. The content may still
	// be unparsable; that is the extractor's concern, not the client's.
	StatusSuccess Status = iota
	// StatusRateLimited: HTTP 429 or a quota-exhausted marker. The caller
	// should open the provider's breaker and fall back.
	StatusRateLimited
	// StatusTransientFailure: timeout, transport error, or any other
	// non-2xx. The caller should fall back without opening the breaker.
	StatusTransientFailure
	// StatusInvalid: a 2xx response with no usable content in it.
	StatusInvalid
)

// Usage holds token usage and the computed cost of one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// Outcome is the tagged result of one provider call.
type Outcome struct {
	Status     Status
	Text       string
	Usage      Usage
	RetryAfter time.Duration // only set on StatusRateLimited, 0 if unknown
	Err        error         // only set on failure statuses
}

// Success builds a successful outcome.
func Success(text string, usage Usage) Outcome {
	return Outcome{Status: StatusSuccess, Text: text, Usage: usage}
}

// RateLimited builds a rate-limited outcome.
func RateLimited(retryAfter time.Duration, err error) Outcome {
	return Outcome{Status: StatusRateLimited, RetryAfter: retryAfter, Err: err}
}

// Transient builds a transient-failure outcome.
func Transient(err error) Outcome {
	return Outcome{Status: StatusTransientFailure, Err: err}
}

// Invalid builds an invalid-response outcome.
func Invalid(err error) Outcome {
	return Outcome{Status: StatusInvalid, Err: err}
}

// Media is an opaque payload with a MIME tag, base64-encoded.
type Media struct {
	Data     string // base64
	MIMEType string
}

// Message is one prior turn of a conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request describes one generation task. At most one of Image and Audio
// is set; System and History are only used by conversational tasks.
type Request struct {
	Instruction string
	System      string
	History     []Message
	Image       *Media
	Audio       *Media
	MaxTokens   int
	Temperature float32
}

// Provider is a single external AI backend.
type Provider interface {
	Name() string
	// Generate makes one bounded network call and classifies the result.
	// It never returns an error; failures surface through the Outcome.
	Generate(ctx context.Context, req Request) Outcome
}
