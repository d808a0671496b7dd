// Package dispatch is the engine entry point: it runs bypass evaluation,
// hybrid routing and session resolution, then hands the message to the
// registered domain handler.
package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/session"
)

// IncomingMessage is one inbound conversational message.
type IncomingMessage struct {
	SenderID       string `json:"sender_id"`
	ChannelID      string `json:"channel_id,omitempty"`
	Text           string `json:"text"`
	OrganizationID string `json:"organization_id"`
}

// Validate rejects structurally invalid messages. This is the only failure
// the engine surfaces as an error; everything downstream degrades to a
// usable decision instead.
func (m *IncomingMessage) Validate() error {
	if m == nil {
		return fmt.Errorf("message is required")
	}
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("message text is required")
	}
	if strings.TrimSpace(m.SenderID) == "" {
		return fmt.Errorf("message sender_id is required")
	}
	return nil
}

// BaseSessionID derives the caller's base conversation key.
func (m *IncomingMessage) BaseSessionID() string {
	return "whatsapp_" + m.SenderID
}

// HandlerResult is the opaque outcome of a domain handler invocation.
type HandlerResult struct {
	Response string         `json:"response"`
	Data     map[string]any `json:"data,omitempty"`
}

// HealthStatus is one handler's self-reported health.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Handler is the domain handler contract. Implementations own all domain
// business logic; the engine only routes to them.
type Handler interface {
	// Name identifies the handler's agent.
	Name() string

	// Execute processes one routed turn. The handler owns mutation of the
	// conversation context.
	Execute(ctx context.Context, msg *IncomingMessage, sessionID string, conv *session.ConversationContext, decision *routing.RoutingDecision) (*HandlerResult, error)

	// HealthCheck reports whether the handler can take traffic.
	HealthCheck(ctx context.Context) HealthStatus
}

// Registry maps domain names to handlers. It is resolved at startup and
// read-only afterwards.
type Registry struct {
	mu             sync.RWMutex
	handlers       map[string]Handler
	defaultHandler Handler
}

// NewRegistry creates a registry with the given fallback handler, used when
// a decision names a domain nothing is registered for.
func NewRegistry(defaultHandler Handler) *Registry {
	return &Registry{
		handlers:       make(map[string]Handler),
		defaultHandler: defaultHandler,
	}
}

// Register binds a domain name to a handler.
func (r *Registry) Register(domain string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[domain] = h
}

// Get returns the handler for the domain, if registered.
func (r *Registry) Get(domain string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[domain]
	return h, ok
}

// Default returns the fallback handler.
func (r *Registry) Default() Handler {
	return r.defaultHandler
}

// Domains returns the registered domain names, sorted.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	domains := make([]string, 0, len(r.handlers))
	for d := range r.handlers {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
