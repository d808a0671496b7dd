package routing

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeGenerator implements Generator with a scripted reply.
type fakeGenerator struct {
	reply string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, _ string, _ float32, _ int) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func testDescriptions() []*DomainDescription {
	return []*DomainDescription{
		{Domain: "ecommerce", Description: "products and orders"},
		{Domain: "credit", Description: "loans and installments"},
	}
}

func TestClassify_KnownLabel(t *testing.T) {
	c := NewIntentClassifier(&fakeGenerator{reply: "ecommerce"}, ClassifierConfig{DefaultDomain: "general"})

	result := c.Classify(context.Background(), "quiero comprar algo", testDescriptions())
	if result.Domain != "ecommerce" {
		t.Errorf("expected ecommerce, got %s", result.Domain)
	}
	if result.Confidence != 0.85 {
		t.Errorf("expected label confidence 0.85, got %v", result.Confidence)
	}
}

func TestClassify_LenientLabels(t *testing.T) {
	testCases := []struct {
		reply      string
		wantDomain string
	}{
		{`"ecommerce"`, "ecommerce"},
		{"Ecommerce.", "ecommerce"},
		{"  credit \n", "credit"},
		{"the domain is credit", "credit"},
	}
	for _, tc := range testCases {
		c := NewIntentClassifier(&fakeGenerator{reply: tc.reply}, ClassifierConfig{DefaultDomain: "general"})
		result := c.Classify(context.Background(), "hola", testDescriptions())
		if result.Domain != tc.wantDomain {
			t.Errorf("reply %q: expected %s, got %s", tc.reply, tc.wantDomain, result.Domain)
		}
	}
}

func TestClassify_UnknownLabel(t *testing.T) {
	c := NewIntentClassifier(&fakeGenerator{reply: "astrology"}, ClassifierConfig{DefaultDomain: "general"})

	result := c.Classify(context.Background(), "hola", testDescriptions())
	if result.Domain != "general" {
		t.Errorf("expected default domain, got %s", result.Domain)
	}
	if result.Confidence != 0.5 {
		t.Errorf("expected unknown-label confidence 0.5, got %v", result.Confidence)
	}
}

func TestClassify_FailureNeverErrors(t *testing.T) {
	c := NewIntentClassifier(&fakeGenerator{err: errors.New("provider down")}, ClassifierConfig{DefaultDomain: "general"})

	result := c.Classify(context.Background(), "hola", testDescriptions())
	if result.Domain != "general" {
		t.Errorf("expected default domain on failure, got %s", result.Domain)
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence on failure, got %v", result.Confidence)
	}
	if result.Reasoning == "" {
		t.Error("expected the failure reason to be recorded")
	}
}

func TestClassify_TimeoutDegrades(t *testing.T) {
	gen := &fakeGenerator{reply: "ecommerce", delay: 200 * time.Millisecond}
	c := NewIntentClassifier(gen, ClassifierConfig{
		DefaultDomain: "general",
		Timeout:       10 * time.Millisecond,
	})

	result := c.Classify(context.Background(), "hola", testDescriptions())
	if result.Domain != "general" {
		t.Errorf("expected default domain on timeout, got %s", result.Domain)
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence on timeout, got %v", result.Confidence)
	}
}

func TestClassify_RateLimitDegrades(t *testing.T) {
	gen := &fakeGenerator{reply: "ecommerce"}
	c := NewIntentClassifier(gen, ClassifierConfig{
		DefaultDomain: "general",
		RateLimit:     0.001,
		Burst:         1,
	})

	first := c.Classify(context.Background(), "hola", testDescriptions())
	if first.Domain != "ecommerce" {
		t.Fatalf("first call should pass the limiter, got %s", first.Domain)
	}

	second := c.Classify(context.Background(), "hola", testDescriptions())
	if second.Domain != "general" || second.Confidence != 0 {
		t.Errorf("expected rate-limited fallback, got %+v", second)
	}
	if gen.calls != 1 {
		t.Errorf("expected exactly one model call, got %d", gen.calls)
	}
}

func TestClassify_NoDescriptions(t *testing.T) {
	gen := &fakeGenerator{reply: "ecommerce"}
	c := NewIntentClassifier(gen, ClassifierConfig{DefaultDomain: "general"})

	result := c.Classify(context.Background(), "hola", nil)
	if result.Domain != "general" || result.Confidence != 0 {
		t.Errorf("expected fallback with no descriptions, got %+v", result)
	}
	if gen.calls != 0 {
		t.Error("no model call should be made without descriptions")
	}
}

func TestClassifyWithReasoning(t *testing.T) {
	testCases := []struct {
		name           string
		reply          string
		wantDomain     string
		wantConfidence float64
	}{
		{
			name:           "clean json",
			reply:          `{"domain": "credit", "confidence": "high", "reason": "asks about installments"}`,
			wantDomain:     "credit",
			wantConfidence: 0.9,
		},
		{
			name:           "json wrapped in prose",
			reply:          "Sure! Here it is:\n```json\n{\"domain\": \"ecommerce\", \"confidence\": \"medium\", \"reason\": \"product question\"}\n```",
			wantDomain:     "ecommerce",
			wantConfidence: 0.7,
		},
		{
			name:           "unknown bucket maps to low",
			reply:          `{"domain": "credit", "confidence": "certainly", "reason": "x"}`,
			wantDomain:     "credit",
			wantConfidence: 0.4,
		},
		{
			name:           "no json at all",
			reply:          "credit",
			wantDomain:     "general",
			wantConfidence: 0,
		},
		{
			name:           "unknown domain in json",
			reply:          `{"domain": "astrology", "confidence": "high", "reason": "x"}`,
			wantDomain:     "general",
			wantConfidence: 0.5,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewIntentClassifier(&fakeGenerator{reply: tc.reply}, ClassifierConfig{DefaultDomain: "general"})
			result := c.ClassifyWithReasoning(context.Background(), "hola", testDescriptions())
			if result.Domain != tc.wantDomain {
				t.Errorf("expected domain %s, got %s", tc.wantDomain, result.Domain)
			}
			if result.Confidence != tc.wantConfidence {
				t.Errorf("expected confidence %v, got %v", tc.wantConfidence, result.Confidence)
			}
		})
	}
}
