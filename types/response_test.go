package types

import (
	"encoding/json"
	"testing"
)

func TestApiResponseEnvelope(t *testing.T) {
	raw, err := json.Marshal(ApiResponse{Message: "OK", Status: 200, Data: map[string]int{"id": 1}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"message", "status", "data"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("envelope missing %q", key)
		}
	}
	if len(decoded) != 3 {
		t.Errorf("envelope carries %d keys, want message/status/data only", len(decoded))
	}

	// Data is optional and drops out of the payload entirely when unset.
	raw, err = json.Marshal(ApiResponse{Message: "No Content", Status: 204})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"message":"No Content","status":204}` {
		t.Errorf("empty-data envelope = %s", raw)
	}
}
