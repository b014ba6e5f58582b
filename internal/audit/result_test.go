package audit

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	return out
}

func TestResult_MatchEnvelope(t *testing.T) {
	got := decode(t, Match(TargetLogs{Count: 1, Logs: []TargetLog{{Action: "Dentist Created", PerformedBy: "Ana Reyes", Date: "Jan 15, 2025 2:30 PM"}}}))
	if got["found"] != true || got["count"].(float64) != 1 {
		t.Fatalf("unexpected envelope: %v", got)
	}
	logs := got["logs"].([]any)
	first := logs[0].(map[string]any)
	if first["performed_by"] != "Ana Reyes" || first["target_id"] != nil {
		t.Fatalf("unexpected log: %v", first)
	}
	if _, ok := got["note"]; ok {
		t.Fatalf("match should carry no note")
	}
}

func TestResult_InferredEnvelope(t *testing.T) {
	got := decode(t, Inferred(EntityFinding{Activity: &EntityActivity{Action: "Specialization Updated", PerformedBy: "Dr. Ben Cruz"}}, "fallback"))
	if got["found"] != true || got["note"] != "fallback" || got["performed_by"] != "Dr. Ben Cruz" {
		t.Fatalf("unexpected envelope: %v", got)
	}
	if _, ok := got["created_by"]; ok {
		t.Fatalf("inferred payload must not carry created_by")
	}
}

func TestResult_NoMatchAndInvalidEnvelopes(t *testing.T) {
	got := decode(t, NoMatch[TargetLogs]("nothing"))
	if got["found"] != false || got["message"] != "nothing" || len(got) != 2 {
		t.Fatalf("unexpected no_match envelope: %v", got)
	}

	got = decode(t, InvalidRequest[AppointmentCreator]("need input"))
	if got["error"] != "need input" || len(got) != 1 {
		t.Fatalf("unexpected invalid_request envelope: %v", got)
	}
}

func TestResult_Found(t *testing.T) {
	if !Match(1).Found() || !Inferred(1, "n").Found() {
		t.Fatalf("match and inferred should be found")
	}
	if NoMatch[int]("x").Found() || InvalidRequest[int]("x").Found() {
		t.Fatalf("no_match and invalid_request should not be found")
	}
}
