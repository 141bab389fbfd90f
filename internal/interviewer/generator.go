// Package interviewer phrases the next interview question. The state machine
// decides what to ask; this package decides how to ask it, delegating the
// wording to the language model.
package interviewer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uprotect/intake/internal/catalog"
	"github.com/uprotect/intake/internal/gemini"
	"github.com/uprotect/intake/internal/interview"
)

// historyWindow caps how many transcript messages are sent with each
// generation request.
const historyWindow = 20

// Completer is the slice of the Gemini client the generator needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []gemini.Message) (string, error)
}

type Generator struct {
	llm    Completer
	logger *slog.Logger
}

func New(llm Completer, logger *slog.Logger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// NextQuestion asks the model to phrase a single question eliciting the
// topic's goal, in the flow of the conversation so far. The call is
// stateless: asking for the same topic again is always safe.
func (g *Generator) NextQuestion(ctx context.Context, topic catalog.Topic, transcript []interview.Message, answers map[string]interview.Answer) (string, error) {
	system := fmt.Sprintf(systemPrompt, topic.Goal)

	messages := toModelMessages(transcript)
	if len(messages) == 0 {
		messages = []gemini.Message{{Role: "user", Text: openingCue}}
	}

	reply, err := g.llm.Complete(ctx, system, messages)
	if err != nil {
		return "", fmt.Errorf("next question for %s: %w", topic.Key, err)
	}

	question := strings.TrimSpace(reply)
	if question == "" {
		return "", fmt.Errorf("next question for %s: empty generation", topic.Key)
	}

	g.logger.Debug("question generated", "topic", topic.Key, "len", len(question))
	return question, nil
}

// toModelMessages maps transcript speakers onto Gemini roles, keeping only
// the most recent window.
func toModelMessages(transcript []interview.Message) []gemini.Message {
	if len(transcript) > historyWindow {
		transcript = transcript[len(transcript)-historyWindow:]
	}
	out := make([]gemini.Message, 0, len(transcript))
	for _, m := range transcript {
		role := "user"
		if m.Speaker == interview.SpeakerAgent {
			role = "model"
		}
		out = append(out, gemini.Message{Role: role, Text: m.Text})
	}
	return out
}
