package routing

import (
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"
)

// Signal weights for keyword scoring. A raw score of 10 maps to full
// confidence.
const (
	primaryKeywordWeight   = 3.0
	secondaryKeywordWeight = 1.0
	patternWeight          = 4.0
	confidenceDivisor      = 10.0
)

// DomainKeywordConfig declares the lexical signals for one domain. Configs
// are code-defined, validated once at startup, and treated as immutable.
type DomainKeywordConfig struct {
	Domain            string
	PrimaryKeywords   []string
	SecondaryKeywords []string
	// ExclusionKeywords force the domain score to zero when any matches.
	ExclusionKeywords []string
	// Patterns are case-insensitive regular expressions.
	Patterns []string
	// Priority breaks score ties between domains; higher wins.
	Priority int
}

// compiledDomain is a DomainKeywordConfig with its patterns pre-compiled.
// Malformed patterns are dropped at compile time, not at scoring time.
type compiledDomain struct {
	config   *DomainKeywordConfig
	patterns []*regexp.Regexp
	// patternSources keeps the original expression for diagnostics,
	// index-aligned with patterns.
	patternSources []string
}

// KeywordScorer scores messages against the domain keyword table. Scoring
// itself is pure and I/O-free; the table is swapped atomically on reload so
// in-flight calls keep a consistent snapshot.
type KeywordScorer struct {
	table         atomic.Pointer[[]*compiledDomain]
	defaultDomain string
}

// NewKeywordScorer compiles the configs and returns a ready scorer.
// A malformed pattern is logged and skipped; it never aborts startup or
// scoring (remaining signals for the domain stay active).
func NewKeywordScorer(configs []*DomainKeywordConfig, defaultDomain string) *KeywordScorer {
	s := &KeywordScorer{defaultDomain: defaultDomain}
	s.Reload(configs)
	return s
}

// Reload replaces the keyword table with an atomic pointer swap.
func (s *KeywordScorer) Reload(configs []*DomainKeywordConfig) {
	compiled := compileConfigs(configs)
	s.table.Store(&compiled)
}

// DefaultDomain returns the configured no-match fallback domain.
func (s *KeywordScorer) DefaultDomain() string {
	return s.defaultDomain
}

// Score evaluates the message against every domain config and returns the
// winning domain with a normalized confidence. Ties on raw score are broken
// by config priority. No match at all yields the default domain with
// confidence zero; that is a first-class result, not an error.
func (s *KeywordScorer) Score(message string) *RoutingResult {
	table := s.table.Load()
	if table == nil || len(*table) == 0 {
		return &RoutingResult{Domain: s.defaultDomain, Confidence: 0}
	}

	lower := strings.ToLower(message)

	var (
		bestDomain   string
		bestScore    float64
		bestPriority int
		bestMatches  []string
	)

	for _, cd := range *table {
		score, matches := scoreDomain(lower, message, cd)
		if score <= 0 {
			continue
		}
		if score > bestScore || (score == bestScore && cd.config.Priority > bestPriority) {
			bestDomain = cd.config.Domain
			bestScore = score
			bestPriority = cd.config.Priority
			bestMatches = matches
		}
	}

	if bestScore == 0 {
		return &RoutingResult{Domain: s.defaultDomain, Confidence: 0}
	}

	confidence := bestScore / confidenceDivisor
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &RoutingResult{
		Domain:          bestDomain,
		Confidence:      confidence,
		MatchedKeywords: bestMatches,
	}
}

// scoreDomain accumulates the weighted score of one domain for the message.
// lower is the pre-lowercased message; original is passed to the compiled
// case-insensitive patterns unchanged.
func scoreDomain(lower, original string, cd *compiledDomain) (float64, []string) {
	// Exclusions short-circuit the whole domain.
	for _, kw := range cd.config.ExclusionKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return 0, nil
		}
	}

	var score float64
	var matches []string

	for _, kw := range cd.config.PrimaryKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			score += primaryKeywordWeight
			matches = append(matches, kw)
		}
	}
	for _, kw := range cd.config.SecondaryKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			score += secondaryKeywordWeight
			matches = append(matches, kw)
		}
	}
	for i, re := range cd.patterns {
		if re.MatchString(original) {
			score += patternWeight
			matches = append(matches, "pattern:"+cd.patternSources[i])
		}
	}

	return score, matches
}

func compileConfigs(configs []*DomainKeywordConfig) []*compiledDomain {
	compiled := make([]*compiledDomain, 0, len(configs))
	for _, cfg := range configs {
		cd := &compiledDomain{config: cfg}
		for _, expr := range cfg.Patterns {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				slog.Warn("skipping malformed keyword pattern",
					"domain", cfg.Domain,
					"pattern", expr,
					"error", err)
				continue
			}
			cd.patterns = append(cd.patterns, re)
			cd.patternSources = append(cd.patternSources, expr)
		}
		compiled = append(compiled, cd)
	}
	return compiled
}
