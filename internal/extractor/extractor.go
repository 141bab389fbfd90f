// Package extractor turns a finished interview transcript into a structured
// case record. The field list is closed: keys outside it are ignored, and a
// response that cannot be parsed fails the whole extraction — given the
// sensitivity of the data, nothing partial is ever passed downstream.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/uprotect/intake/internal/gemini"
)

// FieldKeys is the closed list of fields the extraction produces, matching
// the external form one-to-one.
var FieldKeys = []string{
	"name",
	"age",
	"phoneNumber",
	"sexualOrientation",
	"genderIdentity",
	"consentToStore",
	"consentToUse",
	"dateOfIncident",
	"typeOfViolation",
	"perpetrators",
	"caseDescription",
	"nameOfReferrer",
	"supportNeeded",
	"supportBudget",
	"memberOrganisation",
	"charges",
	"phoneOfReferrer",
	"emailOfReferrer",
}

// Record is the structured result of one extraction. Fields holds every key
// from FieldKeys; a field the transcript never mentioned is present with an
// empty value. A Record is derived data — it can always be regenerated from
// the transcript.
type Record struct {
	Narrative string            `json:"narrative"`
	Fields    map[string]string `json:"fields"`
}

// MalformedError means the model's output could not be turned into a valid
// record. Raw carries the verbatim model output for operator diagnosis. The
// caller must not submit anything and may retry from the same transcript.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed extraction: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Completer is the slice of the Gemini client the extractor needs.
type Completer interface {
	Complete(ctx context.Context, system string, messages []gemini.Message) (string, error)
}

type Extractor struct {
	llm    Completer
	logger *slog.Logger
}

func New(llm Completer, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, logger: logger}
}

// llmResponse is the wire shape the documenter prompt demands.
type llmResponse struct {
	Narrative string                     `json:"narrative"`
	Data      map[string]json.RawMessage `json:"data"`
}

// Extract runs the documenter pass over the full transcript. One call, no
// streaming; an unchanged transcript yields the same record, modulo model
// nondeterminism.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Record, error) {
	prompt := fmt.Sprintf(extractionUserPrompt, transcript)

	e.logger.Info("extracting case record", "transcript_len", len(transcript))

	raw, err := e.llm.Complete(ctx, systemPrompt, []gemini.Message{{Role: "user", Text: prompt}})
	if err != nil {
		return nil, fmt.Errorf("llm extraction: %w", err)
	}

	var resp llmResponse
	if err := json.Unmarshal([]byte(stripFences(raw)), &resp); err != nil {
		e.logger.Error("failed to parse extraction response", "error", err, "raw", raw)
		return nil, &MalformedError{Raw: raw, Err: err}
	}
	if strings.TrimSpace(resp.Narrative) == "" {
		e.logger.Error("extraction response missing narrative", "raw", raw)
		return nil, &MalformedError{Raw: raw, Err: fmt.Errorf("missing narrative")}
	}
	if resp.Data == nil {
		e.logger.Error("extraction response missing data object", "raw", raw)
		return nil, &MalformedError{Raw: raw, Err: fmt.Errorf("missing data object")}
	}

	rec := &Record{
		Narrative: strings.TrimSpace(resp.Narrative),
		Fields:    make(map[string]string, len(FieldKeys)),
	}
	for _, key := range FieldKeys {
		value, err := flatten(resp.Data[key])
		if err != nil {
			return nil, &MalformedError{Raw: raw, Err: fmt.Errorf("field %s: %w", key, err)}
		}
		rec.Fields[key] = value
	}

	rec.Fields["consentToStore"] = normalizeConsent(rec.Fields["consentToStore"])
	rec.Fields["consentToUse"] = normalizeConsent(rec.Fields["consentToUse"])

	// The case description is the narrative. The prompt asks the model to
	// copy it over; this makes sure of it.
	if rec.Fields["caseDescription"] == "" {
		rec.Fields["caseDescription"] = rec.Narrative
	}

	e.logger.Info("extraction complete", "fields", countNonEmpty(rec.Fields))
	return rec, nil
}

// flatten turns a JSON field value into its submission string form: strings
// pass through, lists join into one delimited string, numbers and booleans
// render textually, null and absent become empty.
func flatten(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}

	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				s = fmt.Sprintf("%v", item)
			}
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// normalizeConsent forces consent values to exactly "Yes" or "No"; anything
// else is treated as not collected.
func normalizeConsent(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true":
		return "Yes"
	case "no", "n", "false":
		return "No"
	}
	return ""
}

// stripFences removes markdown code fences models sometimes wrap around JSON.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func countNonEmpty(fields map[string]string) int {
	n := 0
	for _, v := range fields {
		if v != "" {
			n++
		}
	}
	return n
}
