package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
)

// failingContextStore simulates an unavailable backing store.
type failingContextStore struct{}

func (failingContextStore) Get(context.Context, string) (*ConversationContext, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingContextStore) CreateIfAbsent(context.Context, string, *ConversationContext) (*ConversationContext, error) {
	return nil, errors.New("store down")
}

func (failingContextStore) Put(context.Context, string, *ConversationContext) error {
	return errors.New("store down")
}

func isolatedDecision(ruleID string) *routing.RoutingDecision {
	return &routing.RoutingDecision{
		Domain:          "credit",
		Strategy:        routing.StrategyBypass,
		IsolatedHistory: true,
		RuleID:          ruleID,
	}
}

func TestIsolationFragment(t *testing.T) {
	testCases := []struct {
		ruleID string
		want   string
	}{
		{"12345678-90ab-cdef-1234-567890abcdef", "12345678"},
		{"ABCDEF01-2345-6789-abcd-ef0123456789", "abcdef01"},
		{"short", "short"},
		{"", ""},
	}
	for _, tc := range testCases {
		if got := IsolationFragment(tc.ruleID); got != tc.want {
			t.Errorf("IsolationFragment(%q): expected %q, got %q", tc.ruleID, tc.want, got)
		}
	}
}

func TestResolve_NoIsolation(t *testing.T) {
	r := NewSessionIsolationResolver(NewMemoryContextStore())

	testCases := []struct {
		name     string
		decision *routing.RoutingDecision
	}{
		{"nil decision", nil},
		{"keyword decision", &routing.RoutingDecision{Domain: "ecommerce", Strategy: routing.StrategyKeyword}},
		{"isolation without rule id", &routing.RoutingDecision{IsolatedHistory: true}},
		{"rule id without isolation", &routing.RoutingDecision{RuleID: "12345678-90ab-cdef-1234-567890abcdef"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, conv := r.Resolve(context.Background(), "whatsapp_5491155001234", tc.decision)
			assert.Equal(t, "whatsapp_5491155001234", id)
			require.NotNil(t, conv)
			assert.Equal(t, "whatsapp_5491155001234", conv.ConversationID)
		})
	}
}

func TestResolve_IsolatedSessionID(t *testing.T) {
	r := NewSessionIsolationResolver(NewMemoryContextStore())

	id, conv := r.Resolve(context.Background(), "whatsapp_5491155001234",
		isolatedDecision("12345678-90ab-cdef-1234-567890abcdef"))

	assert.Equal(t, "whatsapp_5491155001234_12345678", id)
	require.NotNil(t, conv)
	assert.Equal(t, "whatsapp_5491155001234_12345678", conv.ConversationID)
}

func TestResolve_InheritsParentOnce(t *testing.T) {
	store := NewMemoryContextStore()
	r := NewSessionIsolationResolver(store)
	ctx := context.Background()

	// Seed the parent conversation with state.
	parent := NewConversationContext("whatsapp_111")
	parent.RollingSummary = "customer asked about loans"
	parent.TopicHistory = []string{"loans"}
	parent.KeyEntities["name"] = "Ana"
	parent.TotalTurns = 7
	parent.LastUserMessage = "¿qué tasa tienen?"
	require.NoError(t, store.Put(ctx, "whatsapp_111", parent))

	id, conv := r.Resolve(ctx, "whatsapp_111", isolatedDecision("aaaabbbb-cccc-dddd-eeee-ffff00001111"))
	require.Equal(t, "whatsapp_111_aaaabbbb", id)

	// Summary and entities carry over; turn counters and last messages
	// start fresh.
	assert.Equal(t, "customer asked about loans", conv.RollingSummary)
	assert.Equal(t, []string{"loans"}, conv.TopicHistory)
	assert.Equal(t, "Ana", conv.KeyEntities["name"])
	assert.Zero(t, conv.TotalTurns)
	assert.Empty(t, conv.LastUserMessage)
	assert.Equal(t, "whatsapp_111", conv.Metadata[MetadataInheritedFrom])
	assert.NotEmpty(t, conv.Metadata[MetadataInheritedAt])

	// The parent is untouched.
	got, ok, err := store.Get(ctx, "whatsapp_111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got.TotalTurns)
	assert.NotContains(t, got.Metadata, MetadataInheritedFrom)

	// Mutating the isolated copy must not leak into the parent.
	conv.KeyEntities["name"] = "Beto"
	assert.Equal(t, "Ana", got.KeyEntities["name"])
}

func TestResolve_NeverReinherits(t *testing.T) {
	store := NewMemoryContextStore()
	r := NewSessionIsolationResolver(store)
	ctx := context.Background()
	decision := isolatedDecision("aaaabbbb-cccc-dddd-eeee-ffff00001111")

	_, first := r.Resolve(ctx, "whatsapp_111", decision)
	first.TotalTurns = 3
	require.NoError(t, store.Put(ctx, "whatsapp_111_aaaabbbb", first))

	// The parent changes afterwards.
	parent := NewConversationContext("whatsapp_111")
	parent.RollingSummary = "something new"
	require.NoError(t, store.Put(ctx, "whatsapp_111", parent))

	_, second := r.Resolve(ctx, "whatsapp_111", decision)
	assert.Equal(t, 3, second.TotalTurns, "isolated history must survive")
	assert.Empty(t, second.RollingSummary, "parent state must not be re-inherited")
}

func TestResolve_ConcurrentFirstTurnSingleWinner(t *testing.T) {
	store := NewMemoryContextStore()
	r := NewSessionIsolationResolver(store)
	ctx := context.Background()
	decision := isolatedDecision("aaaabbbb-cccc-dddd-eeee-ffff00001111")

	parent := NewConversationContext("whatsapp_111")
	parent.RollingSummary = "customer asked about loans"
	require.NoError(t, store.Put(ctx, "whatsapp_111", parent))

	const turns = 32
	ids := make([]string, turns)
	convs := make([]*ConversationContext, turns)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(turns)
	for i := 0; i < turns; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			ids[i], convs[i] = r.Resolve(ctx, "whatsapp_111", decision)
		}(i)
	}
	start.Done()
	done.Wait()

	stored, ok, err := store.Get(ctx, "whatsapp_111_aaaabbbb")
	require.NoError(t, err)
	require.True(t, ok)

	// Exactly one seeded context wins the race; every turn sees it.
	for i := 0; i < turns; i++ {
		assert.Equal(t, "whatsapp_111_aaaabbbb", ids[i])
		assert.Same(t, stored, convs[i])
	}
	assert.Equal(t, "customer asked about loans", stored.RollingSummary)
	assert.Equal(t, "whatsapp_111", stored.Metadata[MetadataInheritedFrom])
}

func TestResolve_DistinctRulesDistinctSessions(t *testing.T) {
	r := NewSessionIsolationResolver(NewMemoryContextStore())
	ctx := context.Background()

	idA, convA := r.Resolve(ctx, "whatsapp_111", isolatedDecision("aaaa1111-0000-0000-0000-000000000000"))
	idB, convB := r.Resolve(ctx, "whatsapp_111", isolatedDecision("bbbb2222-0000-0000-0000-000000000000"))

	require.NotEqual(t, idA, idB)
	convA.KeyEntities["k"] = "v"
	assert.NotContains(t, convB.KeyEntities, "k")
}

func TestResolve_StoreFailureDegrades(t *testing.T) {
	r := NewSessionIsolationResolver(failingContextStore{})

	id, conv := r.Resolve(context.Background(), "whatsapp_111",
		isolatedDecision("aaaabbbb-cccc-dddd-eeee-ffff00001111"))

	assert.Equal(t, "whatsapp_111_aaaabbbb", id)
	require.NotNil(t, conv, "a turn must always get a context")
}

func TestConversationContext_Clone(t *testing.T) {
	orig := NewConversationContext("c1")
	orig.TopicHistory = []string{"a"}
	orig.KeyEntities["k"] = "v"
	orig.Metadata["m"] = "w"

	cp := orig.Clone()
	cp.TopicHistory = append(cp.TopicHistory, "b")
	cp.KeyEntities["k"] = "changed"
	cp.Metadata["m2"] = "x"

	assert.Equal(t, []string{"a"}, orig.TopicHistory)
	assert.Equal(t, "v", orig.KeyEntities["k"])
	assert.NotContains(t, orig.Metadata, "m2")
}
