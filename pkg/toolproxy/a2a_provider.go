package toolproxy

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/swiftagentkit/agentkit-go/pkg/a2a"
	"github.com/swiftagentkit/agentkit-go/pkg/a2atypes"
	"github.com/swiftagentkit/agentkit-go/pkg/jsonvalue"
	"github.com/swiftagentkit/agentkit-go/pkg/llmadapter"
)

// a2aClient is the subset of *a2a.Client a ToolProvider needs.
type a2aClient interface {
	SendMessage(ctx context.Context, in a2atypes.Message, config map[string]any) (*a2a.SendResult, error)
}

// A2APeerProvider exposes a remote agent's advertised skills as tools, so
// the orchestrator can dispatch to a peer A2A agent the same way it
// dispatches to an MCP tool (spec.md §9 Design Notes on treating A2A
// peers as tool providers).
type A2APeerProvider struct {
	client a2aClient
	card   a2a.AgentCard
}

func NewA2APeerProvider(client *a2a.Client, card a2a.AgentCard) *A2APeerProvider {
	return &A2APeerProvider{client: client, card: card}
}

func (p *A2APeerProvider) Definitions(ctx context.Context) ([]llmadapter.ToolDefinition, error) {
	defs := make([]llmadapter.ToolDefinition, len(p.card.Skills))
	for i, skill := range p.card.Skills {
		defs[i] = llmadapter.ToolDefinition{
			Name:        skill.ID,
			Description: skill.Description,
			Parameters:  jsonvalue.Object(map[string]jsonvalue.Value{"input": jsonvalue.String("string")}),
		}
	}
	return defs, nil
}

func (p *A2APeerProvider) Owns(ctx context.Context, name string) bool {
	for _, skill := range p.card.Skills {
		if skill.ID == name {
			return true
		}
	}
	return false
}

func (p *A2APeerProvider) Call(ctx context.Context, name string, arguments map[string]any) (string, jsonvalue.Value, error) {
	input, _ := arguments["input"].(string)
	if input == "" {
		input = renderArgs(arguments)
	}
	result, err := p.client.SendMessage(ctx, a2atypes.Message{
		Role:      a2atypes.RoleUser,
		Parts:     []a2atypes.Part{a2atypes.TextPart(input)},
		MessageID: uuid.NewString(),
	}, nil)
	if err != nil {
		return "", jsonvalue.Null(), err
	}
	if result.IsTask {
		return taskText(result.Task), jsonvalue.Null(), nil
	}
	return messageText(result.Message), jsonvalue.Null(), nil
}

func messageText(m a2atypes.Message) string {
	var sb strings.Builder
	for i, part := range m.Parts {
		if part.Kind != a2atypes.PartText {
			continue
		}
		if i > 0 && sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func taskText(t a2atypes.Task) string {
	var sb strings.Builder
	for _, art := range t.Artifacts {
		for _, part := range art.Parts {
			if part.Kind != a2atypes.PartText {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func renderArgs(arguments map[string]any) string {
	var sb strings.Builder
	first := true
	for k, v := range arguments {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(k)
		sb.WriteString("=")
		fmt.Fprintf(&sb, "%v", v)
	}
	return sb.String()
}
