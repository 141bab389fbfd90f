package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uprotect/intake/internal/catalog"
	"github.com/uprotect/intake/internal/validate"
)

// ClosingMessage is the exact sentence that signals interview completion.
// External UI logic matches this string verbatim to unlock submission, so it
// must never change.
const ClosingMessage = "This concludes our interview. The submission buttons are now available below."

// Greeting opens every session before the first generated question.
const Greeting = "Hello! I'm here to help. I need to gather some information to document what happened. Your safety and comfort are my top priorities."

// UnableToCollect is recorded as the answer value for a required topic the
// respondent declined past the re-ask limit, so the interview can still
// finish instead of looping forever.
const UnableToCollect = "unable to collect"

// DefaultMaxAttempts bounds how often a required topic is re-asked after an
// explicit decline before it is recorded as UnableToCollect.
const DefaultMaxAttempts = 5

// ErrTerminal is returned by Respond once a session has finished.
var ErrTerminal = errors.New("interview: session is terminal")

// QuestionGenerator produces the natural-language phrasing for the next
// topic. Implementations must be safe to call again with the same arguments:
// a failed call leaves the session untouched and the machine will ask again.
type QuestionGenerator interface {
	NextQuestion(ctx context.Context, topic catalog.Topic, transcript []Message, answers map[string]Answer) (string, error)
}

// Machine drives sessions through the topic catalog. It holds no per-session
// state and is safe to share across sessions.
type Machine struct {
	topics      []catalog.Topic
	gen         QuestionGenerator
	logger      *slog.Logger
	maxAttempts int
}

func NewMachine(gen QuestionGenerator, logger *slog.Logger) *Machine {
	return &Machine{
		topics:      catalog.Topics(),
		gen:         gen,
		logger:      logger,
		maxAttempts: DefaultMaxAttempts,
	}
}

// NewSession creates a fresh session positioned before the first topic.
func (m *Machine) NewSession() *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		topics:    m.topics,
		answers:   make(map[string]Answer),
	}
}

// Begin emits the opening agent turn: the fixed greeting plus the generated
// first question. The session is untouched if generation fails.
func (m *Machine) Begin(ctx context.Context, s *Session) (string, error) {
	if len(s.transcript) > 0 {
		return "", fmt.Errorf("interview: session already begun")
	}

	question, err := m.gen.NextQuestion(ctx, m.topics[0], s.Transcript(), s.Answers())
	if err != nil {
		return "", fmt.Errorf("generate opening question: %w", err)
	}

	opening := Greeting + "\n\n" + question
	s.appendAgent(opening)
	m.logger.Info("session started", "session_id", s.ID)
	return opening, nil
}

// Respond processes one respondent input and returns the next agent message.
// Every call appends the respondent message and exactly one agent message; a
// generation failure leaves the session exactly as it was so the same input
// can be retried.
func (m *Machine) Respond(ctx context.Context, s *Session, raw string) (string, error) {
	if s.phase == phaseTerminal {
		return "", ErrTerminal
	}

	if s.phase == phaseCheckpoint {
		return m.resumeFromCheckpoint(ctx, s, raw)
	}

	topic := s.topics[s.cursor]

	// Explicit decline intent. Bare "no" stays a real answer for yes/no
	// topics; consent questions must never be skipped by accident.
	if topic.Rule != validate.RuleYesNo && isDecline(raw) {
		return m.handleDecline(ctx, s, topic, raw)
	}

	res := validate.Check(raw, topic.Rule)
	if !res.OK {
		s.appendRespondent(raw)
		s.appendAgent(res.Reason)
		m.logger.Debug("validation failed", "session_id", s.ID, "topic", topic.Key)
		return res.Reason, nil
	}

	return m.advance(ctx, s, raw, Answer{TopicKey: topic.Key, Value: res.Value})
}

func (m *Machine) handleDecline(ctx context.Context, s *Session, topic catalog.Topic, raw string) (string, error) {
	if !topic.Required {
		m.logger.Info("optional topic declined", "session_id", s.ID, "topic", topic.Key)
		return m.advance(ctx, s, raw, Answer{TopicKey: topic.Key, Declined: true})
	}

	s.attempts++
	if s.attempts >= m.maxAttempts {
		m.logger.Warn("required topic abandoned", "session_id", s.ID, "topic", topic.Key, "attempts", s.attempts)
		return m.advance(ctx, s, raw, Answer{TopicKey: topic.Key, Value: UnableToCollect, Declined: true})
	}

	reply := fmt.Sprintf(
		"I understand this can be difficult to share. We do need %s to file a complete report — please take your time, and tell me when you're ready.",
		topic.Goal,
	)
	s.appendRespondent(raw)
	s.appendAgent(reply)
	return reply, nil
}

// advance records the answer, skips any topics whose condition is unmet and
// emits the next agent message: a generated question, a checkpoint recap or
// the closing sentence. Nothing is mutated until the message text exists.
func (m *Machine) advance(ctx context.Context, s *Session, raw string, answer Answer) (string, error) {
	// Evaluate skips against the answers including the one being recorded.
	answers := s.Answers()
	answers[answer.TopicKey] = answer
	next := m.nextIndex(answers, s.cursor+1)

	if next >= len(m.topics) {
		s.appendRespondent(raw)
		s.record(answer)
		s.cursor = len(m.topics)
		s.phase = phaseTerminal
		s.appendAgent(ClosingMessage)
		m.logger.Info("session complete", "session_id", s.ID, "answers", len(s.answers))
		return ClosingMessage, nil
	}

	if cp := catalog.CheckpointAfter(answer.TopicKey); cp != nil {
		recap := m.buildRecap(cp, answers)
		s.appendRespondent(raw)
		s.record(answer)
		s.cursor = next
		s.phase = phaseCheckpoint
		s.attempts = 0
		s.appendAgent(recap)
		return recap, nil
	}

	question, err := m.gen.NextQuestion(ctx, m.topics[next], s.Transcript(), answers)
	if err != nil {
		// Cursor and answers stay put: the same input can be replayed once
		// the generator recovers.
		return "", fmt.Errorf("generate question for %s: %w", m.topics[next].Key, err)
	}

	s.appendRespondent(raw)
	s.record(answer)
	s.cursor = next
	s.attempts = 0
	s.appendAgent(question)
	return question, nil
}

// resumeFromCheckpoint handles the reply to a recap. Any response continues
// the interview; recaps confirm understanding but never reopen prior topics.
func (m *Machine) resumeFromCheckpoint(ctx context.Context, s *Session, raw string) (string, error) {
	question, err := m.gen.NextQuestion(ctx, m.topics[s.cursor], s.Transcript(), s.Answers())
	if err != nil {
		return "", fmt.Errorf("generate question for %s: %w", m.topics[s.cursor].Key, err)
	}

	s.appendRespondent(raw)
	s.phase = phaseAwaiting
	s.appendAgent(question)
	return question, nil
}

// nextIndex returns the first topic index at or after from whose condition is
// satisfied by the recorded answers, or len(topics) when none remains.
func (m *Machine) nextIndex(answers map[string]Answer, from int) int {
	for i := from; i < len(m.topics); i++ {
		cond := m.topics[i].DependsOn
		if cond == nil {
			return i
		}
		prior, ok := answers[cond.TopicKey]
		if ok && !prior.Declined && strings.Contains(prior.Value, cond.Contains) {
			return i
		}
	}
	return len(m.topics)
}

func (m *Machine) buildRecap(cp *catalog.Checkpoint, answers map[string]Answer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Before we go on, let me make sure I have your %s right:\n", cp.Name)

	inRange := false
	for _, topic := range m.topics {
		if topic.Key == cp.FromKey {
			inRange = true
		}
		if inRange {
			if a, ok := answers[topic.Key]; ok {
				value := a.Value
				if a.Declined && value == "" {
					value = "(not provided)"
				}
				fmt.Fprintf(&b, "- %s: %s\n", topic.Goal, value)
			}
		}
		if topic.Key == cp.AfterKey {
			break
		}
	}

	b.WriteString("Did I get all of that right? Then we'll continue.")
	return b.String()
}

var declineExact = map[string]bool{
	"no":         true,
	"nope":       true,
	"skip":       true,
	"pass":       true,
	"n/a":        true,
	"no comment": true,
}

var declinePrefixes = []string{
	"i'd rather not",
	"i would rather not",
	"i prefer not",
	"prefer not",
	"rather not",
	"i don't want to",
	"i do not want to",
	"i can't share",
	"i cannot share",
	"skip this",
	"i don't know",
}

// isDecline detects an explicit refusal to answer. Kept narrow: a false
// positive on a required topic costs the respondent a re-ask.
func isDecline(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	lower = strings.TrimRight(lower, ".!")
	if declineExact[lower] {
		return true
	}
	for _, prefix := range declinePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
