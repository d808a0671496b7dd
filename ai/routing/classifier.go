package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/internal/strutil"
)

// DomainDescription is the classifier-facing description of one domain.
type DomainDescription struct {
	Domain       string
	Description  string
	Examples     []string
	Capabilities []string
}

// classifierJSONRe extracts the first JSON object from a lenient model reply.
var classifierJSONRe = regexp.MustCompile(`(?s)\{.*\}`)

// Confidence assigned when the model returns a recognized label, and the
// qualitative bucket mapping used by the reasoning variant.
const (
	classifierLabelConfidence   = 0.85
	classifierUnknownConfidence = 0.5
)

var reasoningConfidence = map[string]float64{
	"high":   0.9,
	"medium": 0.7,
	"low":    0.4,
}

// IntentClassifier wraps a single language-model call that classifies a
// message into one of the configured domains. Every failure mode (timeout,
// transport, rate limit, unparseable label) degrades to the default domain;
// classification never surfaces an error to the caller.
type IntentClassifier struct {
	llm           Generator
	defaultDomain string
	timeout       time.Duration
	limiter       *rate.Limiter
	metrics       MetricsRecorder
}

// ClassifierConfig configures the IntentClassifier.
type ClassifierConfig struct {
	DefaultDomain string
	// Timeout is the hard cap on one classification call. Zero disables the
	// extra cap (the LLM client still applies its own).
	Timeout time.Duration
	// RateLimit caps classifier calls per second, with Burst extra calls
	// allowed. Zero disables limiting.
	RateLimit float64
	Burst     int
	Metrics   MetricsRecorder
}

// NewIntentClassifier creates a classifier over the given generator.
func NewIntentClassifier(g Generator, cfg ClassifierConfig) *IntentClassifier {
	c := &IntentClassifier{
		llm:           g,
		defaultDomain: cfg.DefaultDomain,
		timeout:       cfg.Timeout,
		metrics:       cfg.Metrics,
	}
	if c.metrics == nil {
		c.metrics = NopMetrics{}
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// Classify runs one single-shot classification of the message into the
// described domains.
func (c *IntentClassifier) Classify(ctx context.Context, message string, descriptions []*DomainDescription) *AIRoutingResult {
	if len(descriptions) == 0 {
		return c.fallback("no domain descriptions configured")
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return c.fallback("classifier rate limit exceeded")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := buildClassificationPrompt(message, descriptions)

	// Low temperature and a tiny token budget keep the reply label-shaped.
	raw, err := c.llm.Generate(ctx, prompt, 0.1, 20)
	if err != nil {
		c.metrics.IncClassifierFailure()
		slog.Warn("intent classification failed, using default domain",
			"input", strutil.Truncate(message, 50),
			"error", err)
		return c.fallback(fmt.Sprintf("classifier call failed: %v", err))
	}

	domain, ok := matchDomainLabel(raw, descriptions)
	if !ok {
		slog.Debug("classifier returned unknown label",
			"input", strutil.Truncate(message, 50),
			"label", strutil.Truncate(raw, 50))
		return &AIRoutingResult{
			Domain:     c.defaultDomain,
			Confidence: classifierUnknownConfidence,
			Reasoning:  fmt.Sprintf("unknown label %q, using default domain", strings.TrimSpace(raw)),
		}
	}

	return &AIRoutingResult{
		Domain:     domain,
		Confidence: classifierLabelConfidence,
		Reasoning:  "classified by language model",
	}
}

// ClassifyWithReasoning additionally requests a qualitative confidence bucket
// and a one-line justification. It serves diagnostic and admin tooling only;
// the hot path uses Classify.
func (c *IntentClassifier) ClassifyWithReasoning(ctx context.Context, message string, descriptions []*DomainDescription) *AIRoutingResult {
	if len(descriptions) == 0 {
		return c.fallback("no domain descriptions configured")
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return c.fallback("classifier rate limit exceeded")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := buildReasoningPrompt(message, descriptions)

	raw, err := c.llm.Generate(ctx, prompt, 0.1, 150)
	if err != nil {
		c.metrics.IncClassifierFailure()
		return c.fallback(fmt.Sprintf("classifier call failed: %v", err))
	}

	blob := classifierJSONRe.FindString(raw)
	if blob == "" {
		return c.fallback("classifier reply contained no JSON object")
	}

	var parsed struct {
		Domain     string `json:"domain"`
		Confidence string `json:"confidence"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		return c.fallback(fmt.Sprintf("classifier reply unparseable: %v", err))
	}

	domain, ok := matchDomainLabel(parsed.Domain, descriptions)
	if !ok {
		return &AIRoutingResult{
			Domain:     c.defaultDomain,
			Confidence: classifierUnknownConfidence,
			Reasoning:  fmt.Sprintf("unknown label %q, using default domain", parsed.Domain),
		}
	}

	confidence, ok := reasoningConfidence[strings.ToLower(strings.TrimSpace(parsed.Confidence))]
	if !ok {
		confidence = reasoningConfidence["low"]
	}

	return &AIRoutingResult{
		Domain:     domain,
		Confidence: confidence,
		Reasoning:  parsed.Reason,
	}
}

// fallback builds the degraded result at the default domain.
func (c *IntentClassifier) fallback(reason string) *AIRoutingResult {
	return &AIRoutingResult{
		Domain:     c.defaultDomain,
		Confidence: 0,
		Reasoning:  reason,
	}
}

// matchDomainLabel maps a raw model reply onto a configured domain label.
// The reply is normalized and matched exact-first, then by containment, so
// replies like `"ecommerce"` or "ecommerce." still resolve.
func matchDomainLabel(raw string, descriptions []*DomainDescription) (string, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, "\"'`.,:!¡¿? \n\t")
	if label == "" {
		return "", false
	}

	for _, d := range descriptions {
		if label == strings.ToLower(d.Domain) {
			return d.Domain, true
		}
	}
	for _, d := range descriptions {
		if strings.Contains(label, strings.ToLower(d.Domain)) {
			return d.Domain, true
		}
	}
	return "", false
}

func buildClassificationPrompt(message string, descriptions []*DomainDescription) string {
	var b strings.Builder
	b.WriteString("You are a routing classifier for a conversational platform.\n")
	b.WriteString("Classify the user message into exactly one of these domains:\n\n")
	for _, d := range descriptions {
		fmt.Fprintf(&b, "- %s: %s\n", d.Domain, d.Description)
		if len(d.Capabilities) > 0 {
			fmt.Fprintf(&b, "  capabilities: %s\n", strings.Join(d.Capabilities, ", "))
		}
		for _, ex := range d.Examples {
			fmt.Fprintf(&b, "  example: %q\n", ex)
		}
	}
	b.WriteString("\nUser message: ")
	b.WriteString(message)
	b.WriteString("\n\nRespond with the domain name only, nothing else.")
	return b.String()
}

func buildReasoningPrompt(message string, descriptions []*DomainDescription) string {
	var b strings.Builder
	b.WriteString("You are a routing classifier for a conversational platform.\n")
	b.WriteString("Classify the user message into exactly one of these domains:\n\n")
	for _, d := range descriptions {
		fmt.Fprintf(&b, "- %s: %s\n", d.Domain, d.Description)
	}
	b.WriteString("\nUser message: ")
	b.WriteString(message)
	b.WriteString("\n\nRespond with a single JSON object: ")
	b.WriteString(`{"domain": "<domain>", "confidence": "high|medium|low", "reason": "<one line>"}`)
	return b.String()
}
