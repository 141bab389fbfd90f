package interviewer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/uprotect/intake/internal/catalog"
	"github.com/uprotect/intake/internal/gemini"
	"github.com/uprotect/intake/internal/interview"
	"github.com/uprotect/intake/internal/validate"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubCompleter struct {
	reply    string
	err      error
	system   string
	messages []gemini.Message
}

func (s *stubCompleter) Complete(_ context.Context, system string, messages []gemini.Message) (string, error) {
	s.system = system
	s.messages = messages
	return s.reply, s.err
}

var ageTopic = catalog.Topic{
	Key:      "age",
	Goal:     "the respondent's age in years",
	Required: true,
	Rule:     validate.RuleAge,
}

func TestNextQuestion_IncludesGoalAndHistory(t *testing.T) {
	llm := &stubCompleter{reply: "  Thank you, Jane. May I ask how old you are?\n"}
	g := New(llm, discardLogger())

	transcript := []interview.Message{
		{Speaker: interview.SpeakerAgent, Text: "What is your full name?"},
		{Speaker: interview.SpeakerRespondent, Text: "Jane Doe"},
	}

	q, err := g.NextQuestion(context.Background(), ageTopic, transcript, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != "Thank you, Jane. May I ask how old you are?" {
		t.Errorf("expected trimmed reply, got %q", q)
	}

	if !strings.Contains(llm.system, "the respondent's age in years") {
		t.Error("system prompt missing topic goal")
	}
	if len(llm.messages) != 2 {
		t.Fatalf("expected 2 history messages, got %d", len(llm.messages))
	}
	if llm.messages[0].Role != "model" || llm.messages[1].Role != "user" {
		t.Errorf("speaker roles mapped wrong: %q/%q", llm.messages[0].Role, llm.messages[1].Role)
	}
}

func TestNextQuestion_EmptyTranscriptGetsOpeningCue(t *testing.T) {
	llm := &stubCompleter{reply: "Could you tell me your full name?"}
	g := New(llm, discardLogger())

	if _, err := g.NextQuestion(context.Background(), ageTopic, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.messages) != 1 || llm.messages[0].Text != openingCue {
		t.Errorf("expected opening cue message, got %+v", llm.messages)
	}
}

func TestNextQuestion_TruncatesHistory(t *testing.T) {
	llm := &stubCompleter{reply: "ok"}
	g := New(llm, discardLogger())

	transcript := make([]interview.Message, 50)
	for i := range transcript {
		transcript[i] = interview.Message{Speaker: interview.SpeakerRespondent, Text: "line"}
	}

	if _, err := g.NextQuestion(context.Background(), ageTopic, transcript, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(llm.messages) != historyWindow {
		t.Errorf("expected %d messages, got %d", historyWindow, len(llm.messages))
	}
}

func TestNextQuestion_PropagatesErrors(t *testing.T) {
	wantErr := errors.New("provider down")
	g := New(&stubCompleter{err: wantErr}, discardLogger())

	_, err := g.NextQuestion(context.Background(), ageTopic, nil, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestNextQuestion_EmptyReplyIsAnError(t *testing.T) {
	g := New(&stubCompleter{reply: "   \n"}, discardLogger())

	if _, err := g.NextQuestion(context.Background(), ageTopic, nil, nil); err == nil {
		t.Fatal("expected error for empty generation")
	}
}
