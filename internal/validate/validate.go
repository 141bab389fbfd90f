package validate

import (
	"regexp"
	"strings"
)

// Rule names a validation rule attached to a catalog topic.
type Rule string

const (
	RuleAge   Rule = "age"
	RulePhone Rule = "phone"
	RuleEmail Rule = "email"
	RuleDate  Rule = "date"
	RuleYesNo Rule = "yes_no"
	RuleText  Rule = "text"
)

// Result is the outcome of checking raw respondent text against a rule.
// When OK is false, Reason holds a respondent-facing re-prompt explaining
// the problem; it never aborts the session.
type Result struct {
	OK     bool
	Value  string // normalized value, set only when OK
	Reason string // set only when !OK
}

var (
	agePattern   = regexp.MustCompile(`^[0-9]{1,3}$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)
)

// Check validates raw text against the named rule. Phone and email are
// deliberately loose shape checks, and date is free text — stricter
// normalization happens at the extraction stage, not here.
func Check(raw string, rule Rule) Result {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fail("I didn't catch that — could you type your answer again?")
	}

	switch rule {
	case RuleAge:
		if !agePattern.MatchString(trimmed) {
			return fail("Please give your age as a number, for example 26.")
		}
		return ok(trimmed)

	case RulePhone:
		if !phonePattern.MatchString(trimmed) || !strings.ContainsAny(trimmed, "0123456789") {
			return fail("That doesn't look like a phone number. Digits, spaces, +, -, ( and ) are fine.")
		}
		return ok(trimmed)

	case RuleEmail:
		at := strings.Index(trimmed, "@")
		if at < 0 || !strings.Contains(trimmed[at:], ".") {
			return fail("That doesn't look like an email address — it should contain an @ and a dot, like name@example.org.")
		}
		return ok(trimmed)

	case RuleDate:
		// Free text. Dates arrive in many forms ("last March", "12/04/2023");
		// the extraction stage is responsible for reading them.
		return ok(trimmed)

	case RuleYesNo:
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "yes"):
			return ok("Yes")
		case strings.HasPrefix(lower, "no"):
			return ok("No")
		}
		return fail("Please answer with a clear yes or no.")

	case RuleText:
		return ok(trimmed)
	}

	// Unknown rule falls back to text semantics rather than blocking the
	// interview on a catalog mistake.
	return ok(trimmed)
}

func ok(v string) Result { return Result{OK: true, Value: v} }

func fail(reason string) Result { return Result{Reason: reason} }
