package dispatch

import (
	"context"

	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/routing"
	"github.com/Excelencia-Digital-Soft/aynux-ai-platform-sub000/ai/session"
)

// StaticHandler replies with a fixed message. It backs domains whose real
// handler is deployed elsewhere and serves as the registry fallback.
type StaticHandler struct {
	name     string
	response string
}

// NewStaticHandler creates a handler that always answers with response.
func NewStaticHandler(name, response string) *StaticHandler {
	return &StaticHandler{name: name, response: response}
}

func (h *StaticHandler) Name() string {
	return h.name
}

func (h *StaticHandler) Execute(_ context.Context, _ *IncomingMessage, _ string, _ *session.ConversationContext, decision *routing.RoutingDecision) (*HandlerResult, error) {
	return &HandlerResult{
		Response: h.response,
		Data: map[string]any{
			"domain":   decision.Domain,
			"strategy": decision.Strategy,
		},
	}, nil
}

func (h *StaticHandler) HealthCheck(_ context.Context) HealthStatus {
	return HealthStatus{Healthy: true}
}

var _ Handler = (*StaticHandler)(nil)
