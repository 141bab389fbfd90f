// Package submission prepares and delivers the final case record to the
// external form-collection service.
package submission

import "time"

// FieldMapping translates internal field keys into the external form's field
// identifiers. It is deployment-owned configuration, loaded once and never
// mutated.
type FieldMapping map[string]string

// BuildPayload maps record fields onto external identifiers. Fields without
// a mapping entry, or with an empty value, are silently dropped — an
// inapplicable field is not an error. Fixed fields are applied last and
// always win over record-derived values for the same external key.
func BuildPayload(fields map[string]string, fixed map[string]string, mapping FieldMapping) map[string]string {
	payload := make(map[string]string)

	for key, value := range fields {
		external, mapped := mapping[key]
		if !mapped || value == "" {
			continue
		}
		payload[external] = value
	}

	for key, value := range fixed {
		external, mapped := mapping[key]
		if !mapped || value == "" {
			continue
		}
		payload[external] = value
	}

	return payload
}

// FixedFields returns the operator-controlled fields added to every
// submission: the submission timestamp and the configured case-owner
// identity. The case-number field is deliberately never set; it is assigned
// downstream.
func FixedFields(caseOwner string, now time.Time) map[string]string {
	return map[string]string{
		"dateAnd":          now.Format("2006-01-02 15:04:05"),
		"referralReceived": caseOwner,
		"caseAssigned":     caseOwner,
	}
}
