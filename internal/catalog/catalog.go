// Package catalog defines the fixed interview checklist: every topic the
// interview collects, in the order it is collected, plus the checkpoint
// blocks where the agent recaps before moving on.
package catalog

import "github.com/uprotect/intake/internal/validate"

// Condition gates a topic on the content of an earlier answer. The topic is
// asked only when the answer recorded for TopicKey contains Contains.
type Condition struct {
	TopicKey string
	Contains string
}

// Topic is one unit of information the interview collects. Topics are
// immutable and their sequence defines interview order.
type Topic struct {
	Key       string
	Goal      string // what the agent must elicit, fed to the question generator
	Required  bool
	Rule      validate.Rule
	DependsOn *Condition
}

// Checkpoint marks a recap step: after the topic named AfterKey is answered,
// the agent summarizes every answer from FromKey onward and asks the
// respondent to confirm before continuing.
type Checkpoint struct {
	Name     string
	FromKey  string
	AfterKey string
}

var topics = []Topic{
	{
		Key:      "name",
		Goal:     "the respondent's full, official name",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "age",
		Goal:     "the respondent's age in years",
		Required: true,
		Rule:     validate.RuleAge,
	},
	{
		Key:      "phoneNumber",
		Goal:     "a phone number where the respondent can be reached",
		Required: true,
		Rule:     validate.RulePhone,
	},
	{
		Key:      "sexualOrientation",
		Goal:     "the respondent's sexual orientation, in their own words",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "genderIdentity",
		Goal:     "the respondent's gender identity, in their own words",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "consentToStore",
		Goal:     "a clear yes or no to storing their data securely",
		Required: true,
		Rule:     validate.RuleYesNo,
	},
	{
		Key:      "consentToUse",
		Goal:     "a clear yes or no to using their anonymised data for advocacy",
		Required: true,
		Rule:     validate.RuleYesNo,
	},
	{
		Key:      "dateOfIncident",
		Goal:     "when the incident happened, as precisely as they remember",
		Required: true,
		Rule:     validate.RuleDate,
	},
	{
		Key:      "typeOfViolation",
		Goal:     "the type or types of violation they experienced, for example Detention/arrest, Fired, Eviction, Assault, Blackmail",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "perpetrators",
		Goal:     "the names or a description of the perpetrator or perpetrators",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "caseDescription",
		Goal:     "a detailed narrative of what happened: who, what, where, when, why and how",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "nameOfReferrer",
		Goal:     "the name of the person or organisation that referred them here",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "supportNeeded",
		Goal:     "the kind of support they need right now",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "supportBudget",
		Goal:     "a rough estimated cost for the support they need",
		Required: true,
		Rule:     validate.RuleText,
	},
	{
		Key:      "memberOrganisation",
		Goal:     "whether they belong to a member organisation, and if so which",
		Required: false,
		Rule:     validate.RuleText,
	},
	{
		Key:      "charges",
		Goal:     "any charges brought against them when they were arrested",
		Required: false,
		Rule:     validate.RuleText,
		DependsOn: &Condition{
			TopicKey: "typeOfViolation",
			Contains: "Detention/arrest",
		},
	},
	{
		Key:      "phoneOfReferrer",
		Goal:     "the referrer's phone number",
		Required: false,
		Rule:     validate.RulePhone,
	},
	{
		Key:      "emailOfReferrer",
		Goal:     "the referrer's email address",
		Required: false,
		Rule:     validate.RuleEmail,
	},
}

var checkpoints = []Checkpoint{
	{Name: "respondent profile", FromKey: "name", AfterKey: "consentToUse"},
	{Name: "incident details", FromKey: "dateOfIncident", AfterKey: "caseDescription"},
}

// Topics returns the full interview checklist in interview order.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}

// Checkpoints returns the configured recap blocks in interview order.
func Checkpoints() []Checkpoint {
	out := make([]Checkpoint, len(checkpoints))
	copy(out, checkpoints)
	return out
}

// CheckpointAfter returns the checkpoint triggered by answering the topic
// with the given key, or nil if that topic does not close a block.
func CheckpointAfter(topicKey string) *Checkpoint {
	for i := range checkpoints {
		if checkpoints[i].AfterKey == topicKey {
			cp := checkpoints[i]
			return &cp
		}
	}
	return nil
}
