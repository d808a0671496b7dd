package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/cache"
)

// DecisionCache caches hybrid routing results keyed by a hash of the tenant
// and message. Bypass decisions are never cached so rule edits take effect
// immediately.
type DecisionCache struct {
	lru     *cache.LRUCache[string, *HybridRoutingResult]
	metrics MetricsRecorder
}

// DecisionCacheConfig configures the DecisionCache.
type DecisionCacheConfig struct {
	Capacity int           // default: 500
	TTL      time.Duration // default: 5 minutes
	Metrics  MetricsRecorder
}

// NewDecisionCache creates a decision cache.
func NewDecisionCache(cfg DecisionCacheConfig) *DecisionCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &DecisionCache{
		lru:     cache.NewLRUCache[string, *HybridRoutingResult](cfg.Capacity, cfg.TTL),
		metrics: metrics,
	}
}

// Get returns the cached result for (organizationID, message), if present.
// The returned value is a copy; callers may mutate it freely.
func (c *DecisionCache) Get(organizationID, message string) (*HybridRoutingResult, bool) {
	result, ok := c.lru.Get(hashKey(organizationID, message))
	if !ok {
		c.metrics.IncCacheMiss()
		return nil, false
	}
	c.metrics.IncCacheHit()
	return copyResult(result), true
}

// Set stores a result for (organizationID, message).
func (c *DecisionCache) Set(organizationID, message string, result *HybridRoutingResult) {
	c.lru.Set(hashKey(organizationID, message), copyResult(result), 0)
}

// copyResult detaches the stored entry from the caller's value, including the
// MatchedSignals backing array.
func copyResult(result *HybridRoutingResult) *HybridRoutingResult {
	cp := *result
	if result.MatchedSignals != nil {
		cp.MatchedSignals = append([]string(nil), result.MatchedSignals...)
	}
	return &cp
}

// Size returns the number of cached decisions.
func (c *DecisionCache) Size() int {
	return c.lru.Size()
}

func hashKey(organizationID, message string) string {
	h := sha256.Sum256([]byte(organizationID + "\x00" + message))
	return hex.EncodeToString(h[:16])
}
