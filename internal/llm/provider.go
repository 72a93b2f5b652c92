package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/tabletalk/tabletalk/internal/agent"
)

// Provider adapts the chat client to the decision-provider contract.
// Decisions come back as JSON embedded in the model's reply; anything the
// model adds around the JSON object is ignored. The provider never
// validates actions against game rules, that stays with the dispatcher
// and the engines.
type Provider struct {
	client *Client
	logger *log.Logger
}

// NewProvider wraps a chat client as a decision provider.
func NewProvider(client *Client, logger *log.Logger) *Provider {
	return &Provider{
		client: client,
		logger: logger.WithPrefix("llm"),
	}
}

// decisionPayload is the JSON shape the model is instructed to reply
// with. Amount is the total bet for a raise.
type decisionPayload struct {
	Action  string `json:"action"`
	Amount  int    `json:"amount"`
	Comment string `json:"comment"`
}

const personaPreamble = "You are an AGGRESSIVE and COCKY card game AI. " +
	"You love to trash talk and taunt the player. You're confident, " +
	"competitive, and love winning. Be entertaining but not too mean, " +
	"like a fun rival at the casino. "

func systemPrompt(game agent.GameType) string {
	var role string
	switch game {
	case agent.Blackjack:
		role = "You are the Blackjack dealer playing against one player. " +
			"Choose your action by standard Blackjack strategy. "
	case agent.War:
		role = "You are playing the card game War against one player. "
	case agent.Holdem:
		role = "You are playing heads-up Texas Hold'em against one player. " +
			"Choose your action by sound poker strategy. "
	}
	return personaPreamble + role +
		`Always respond ONLY as compact JSON: {"action": "<one of the legal actions>", ` +
		`"amount": <total bet, raise only>, "comment": "your trash talk"}. ` +
		"No extra text outside the JSON."
}

// Decide asks the model to pick one of the legal actions for the request.
func (p *Provider) Decide(ctx context.Context, req agent.Request) (agent.Response, error) {
	if len(req.LegalActions) == 0 {
		// Fail closed instead of asking the model to guess.
		return agent.Response{}, fmt.Errorf("round %s: no legal actions in request", req.RoundID)
	}
	state, err := json.Marshal(req.State)
	if err != nil {
		return agent.Response{}, fmt.Errorf("encoding game state: %w", err)
	}
	legal, err := json.Marshal(req.LegalActions)
	if err != nil {
		return agent.Response{}, fmt.Errorf("encoding legal actions: %w", err)
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt(req.GameType)},
		{Role: "user", Content: fmt.Sprintf(
			"Current game: %s. Your legal actions (with min/max amounts where they apply): %s. "+
				"Your turn: pick exactly one legal action and trash talk the player!",
			state, legal)},
	}

	raw, err := p.client.Chat(ctx, messages)
	if err != nil {
		return agent.Response{}, err
	}

	payload, err := parseDecision(raw)
	if err != nil {
		p.logger.Warn("Unparseable model reply", "game", req.GameType, "raw", truncate(raw, 200))
		return agent.Response{}, err
	}

	return agent.Response{
		RoundID: req.RoundID,
		Decision: agent.Decision{
			Action:     agent.Action(payload.Action),
			Amount:     payload.Amount,
			Commentary: payload.Comment,
		},
	}, nil
}

// Comment asks the model for a one-liner about a game event. Errors
// surface to the caller; the engines treat commentary as best-effort.
func (p *Provider) Comment(ctx context.Context, req agent.Request, trigger string) (string, error) {
	state, err := json.Marshal(req.State)
	if err != nil {
		return "", fmt.Errorf("encoding game state: %w", err)
	}

	messages := []Message{
		{Role: "system", Content: personaPreamble +
			"Comment on what just happened in the game with attitude! " +
			"Keep responses SHORT (1 sentence max)."},
		{Role: "user", Content: fmt.Sprintf(
			"Game: %s. Event: %s. State: %s. React to this with trash talk!",
			req.GameType, trigger, state)},
	}

	return p.client.Chat(ctx, messages)
}

// parseDecision extracts the first JSON object from the reply. Models
// routinely wrap the JSON in prose despite instructions.
func parseDecision(raw string) (decisionPayload, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return decisionPayload{}, fmt.Errorf("no JSON object in model reply")
	}

	var payload decisionPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return decisionPayload{}, fmt.Errorf("parsing model decision: %w", err)
	}
	payload.Action = strings.ToLower(strings.TrimSpace(payload.Action))
	// Models write "all-in" and "all_in" as often as "allin".
	payload.Action = strings.NewReplacer("-", "", "_", "", " ", "").Replace(payload.Action)
	payload.Comment = strings.TrimSpace(payload.Comment)
	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
