// Package session resolves effective conversation identifiers and owns the
// conversation-context contracts, including the isolated-history derivation
// for bypass-routed conversations.
package session

import (
	"context"
	"sync"
	"time"
)

// Metadata keys written when an isolated context is seeded from its parent.
const (
	MetadataInheritedFrom = "inherited_from"
	MetadataInheritedAt   = "inherited_at"
)

// ConversationContext is the accrued state of one conversation. It is
// created on first use of a conversation id and mutated every turn by the
// domain handler; the engine only reads and seeds it. Expiry/GC is an
// external concern.
type ConversationContext struct {
	ConversationID  string            `json:"conversation_id"`
	RollingSummary  string            `json:"rolling_summary"`
	TopicHistory    []string          `json:"topic_history"`
	KeyEntities     map[string]string `json:"key_entities"`
	TotalTurns      int               `json:"total_turns"`
	LastUserMessage string            `json:"last_user_message"`
	LastBotResponse string            `json:"last_bot_response"`
	Metadata        map[string]string `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewConversationContext creates an empty context for the given id.
func NewConversationContext(conversationID string) *ConversationContext {
	now := time.Now()
	return &ConversationContext{
		ConversationID: conversationID,
		KeyEntities:    make(map[string]string),
		Metadata:       make(map[string]string),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy. Contexts under different session ids must never
// share slices or maps; a clone is the only way state crosses ids.
func (c *ConversationContext) Clone() *ConversationContext {
	cp := *c
	cp.TopicHistory = append([]string(nil), c.TopicHistory...)
	cp.KeyEntities = make(map[string]string, len(c.KeyEntities))
	for k, v := range c.KeyEntities {
		cp.KeyEntities[k] = v
	}
	cp.Metadata = make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

// ContextStore is the conversation context persistence contract.
type ContextStore interface {
	// Get returns the context for the id, and whether it exists.
	Get(ctx context.Context, conversationID string) (*ConversationContext, bool, error)

	// CreateIfAbsent atomically stores initial under the id unless one
	// already exists, and returns whichever context ended up stored. The
	// inherit-on-create step depends on this being a single atomic check.
	CreateIfAbsent(ctx context.Context, conversationID string, initial *ConversationContext) (*ConversationContext, error)

	// Put replaces the context for the id.
	Put(ctx context.Context, conversationID string, c *ConversationContext) error
}

// MemoryContextStore is an in-memory ContextStore. Contexts for different
// ids are fully independent entries; lookups never alias across ids.
type MemoryContextStore struct {
	mu       sync.RWMutex
	contexts map[string]*ConversationContext
}

// NewMemoryContextStore creates an empty in-memory store.
func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{contexts: make(map[string]*ConversationContext)}
}

// Get returns the context for the id, and whether it exists.
func (s *MemoryContextStore) Get(_ context.Context, conversationID string) (*ConversationContext, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contexts[conversationID]
	return c, ok, nil
}

// CreateIfAbsent atomically stores initial unless the id already has a
// context, returning whichever is stored afterwards.
func (s *MemoryContextStore) CreateIfAbsent(_ context.Context, conversationID string, initial *ConversationContext) (*ConversationContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.contexts[conversationID]; ok {
		return existing, nil
	}
	s.contexts[conversationID] = initial
	return initial, nil
}

// Put replaces the context for the id.
func (s *MemoryContextStore) Put(_ context.Context, conversationID string, c *ConversationContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = time.Now()
	s.contexts[conversationID] = c
	return nil
}

var _ ContextStore = (*MemoryContextStore)(nil)
