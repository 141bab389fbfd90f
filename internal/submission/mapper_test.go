package submission

import (
	"reflect"
	"testing"
	"time"
)

var testMapping = FieldMapping{
	"name":             "q3_name",
	"age":              "q4_age",
	"charges":          "q15_charges",
	"caseAssigned":     "q20_caseAssigned",
	"referralReceived": "q21_referralReceived",
	"dateAnd":          "q22_dateAnd",
}

func TestBuildPayload_MapsAndDrops(t *testing.T) {
	fields := map[string]string{
		"name":        "Jane Doe",
		"age":         "34",
		"charges":     "",            // empty: dropped
		"phoneNumber": "0772 123456", // unmapped: dropped
	}

	payload := BuildPayload(fields, nil, testMapping)

	want := map[string]string{
		"q3_name": "Jane Doe",
		"q4_age":  "34",
	}
	if !reflect.DeepEqual(payload, want) {
		t.Errorf("payload = %v, want %v", payload, want)
	}
	if _, ok := payload["q15_charges"]; ok {
		t.Error("empty value must not emit an external key")
	}
}

func TestBuildPayload_FixedFieldsWin(t *testing.T) {
	fields := map[string]string{
		"name":         "Jane Doe",
		"caseAssigned": "someone the model hallucinated",
	}
	fixed := map[string]string{
		"caseAssigned": "Alex Ssemambo",
	}

	payload := BuildPayload(fields, fixed, testMapping)

	if got := payload["q20_caseAssigned"]; got != "Alex Ssemambo" {
		t.Errorf("caseAssigned = %q, want the configured operator identity", got)
	}
}

func TestBuildPayload_EmptyRecord(t *testing.T) {
	payload := BuildPayload(nil, FixedFields("Alex Ssemambo", time.Now()), testMapping)

	if len(payload) != 3 {
		t.Errorf("expected only the 3 fixed fields, got %v", payload)
	}
}

func TestFixedFields(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 5, 9, 0, time.UTC)
	fixed := FixedFields("Alex Ssemambo", at)

	if fixed["dateAnd"] != "2026-08-31 14:05:09" {
		t.Errorf("dateAnd = %q", fixed["dateAnd"])
	}
	if fixed["referralReceived"] != "Alex Ssemambo" || fixed["caseAssigned"] != "Alex Ssemambo" {
		t.Errorf("case-owner fields = %q/%q", fixed["referralReceived"], fixed["caseAssigned"])
	}
	if _, ok := fixed["caseNo"]; ok {
		t.Error("caseNo must stay unset; it is assigned downstream")
	}
}
