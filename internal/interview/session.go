// Package interview implements the interview state machine: a linear walk
// over the topic catalog with validation, conditional skips, checkpoint
// recaps and a terminal closing signal.
package interview

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uprotect/intake/internal/catalog"
)

// Speaker identifies who said a transcript line.
type Speaker string

const (
	SpeakerAgent      Speaker = "agent"
	SpeakerRespondent Speaker = "respondent"
)

// Message is one transcript line. The transcript is append-only; append
// order is chronological order.
type Message struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Answer is the accepted response for one topic. An answer is never mutated
// once recorded; a rejected input produces no Answer. Declined marks an
// answered-with-null topic (an optional topic the respondent skipped, or a
// required topic abandoned after the re-ask limit).
type Answer struct {
	TopicKey    string    `json:"topic_key"`
	Value       string    `json:"value"`
	Declined    bool      `json:"declined,omitempty"`
	CollectedAt time.Time `json:"collected_at"`
}

type phase int

const (
	phaseAwaiting phase = iota
	phaseCheckpoint
	phaseTerminal
)

// Session holds all state for one interview: the transcript, the recorded
// answers, the cursor into the topic sequence and the terminal flag. A
// Session is mutated only by Machine.Begin and Machine.Respond, and is not
// safe for concurrent use; callers serialize access per session.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	topics     []catalog.Topic
	transcript []Message
	answers    map[string]Answer
	cursor     int
	phase      phase
	attempts   int // re-ask count for the current topic, reset on advance
}

// Transcript returns a copy of the transcript so far.
func (s *Session) Transcript() []Message {
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Answer returns the recorded answer for a topic key, if any.
func (s *Session) Answer(topicKey string) (Answer, bool) {
	a, ok := s.answers[topicKey]
	return a, ok
}

// Answers returns a copy of all recorded answers keyed by topic.
func (s *Session) Answers() map[string]Answer {
	out := make(map[string]Answer, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Terminal reports whether the interview has finished. A terminal session is
// read-only except for report generation.
func (s *Session) Terminal() bool {
	return s.phase == phaseTerminal
}

// CurrentTopic returns the topic the interview is waiting on. The second
// return is false once the session is terminal.
func (s *Session) CurrentTopic() (catalog.Topic, bool) {
	if s.cursor >= len(s.topics) {
		return catalog.Topic{}, false
	}
	return s.topics[s.cursor], true
}

// TranscriptText renders the transcript as plain text for the extraction
// stage, one "Speaker: text" line per message.
func (s *Session) TranscriptText() string {
	var b strings.Builder
	for i, m := range s.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		switch m.Speaker {
		case SpeakerAgent:
			b.WriteString("Agent: ")
		default:
			b.WriteString("Respondent: ")
		}
		b.WriteString(m.Text)
	}
	return b.String()
}

func (s *Session) appendAgent(text string) {
	s.transcript = append(s.transcript, Message{Speaker: SpeakerAgent, Text: text, At: time.Now().UTC()})
}

func (s *Session) appendRespondent(text string) {
	s.transcript = append(s.transcript, Message{Speaker: SpeakerRespondent, Text: text, At: time.Now().UTC()})
}

func (s *Session) record(a Answer) {
	a.CollectedAt = time.Now().UTC()
	s.answers[a.TopicKey] = a
}
