package parse

import "testing"

type fetchArgs struct {
	URL       string `json:"url"`
	MaxLength int    `json:"max_length"`
}

func TestStringAs_ValidJSON(t *testing.T) {
	got, err := StringAs[fetchArgs](`{"url":"https://example.com","max_length":100}`)
	if err != nil {
		t.Fatalf("StringAs returned error: %v", err)
	}
	if got.URL != "https://example.com" || got.MaxLength != 100 {
		t.Errorf("got %+v", got)
	}
}

func TestStringAs_RepairsBrokenJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"single quotes", `{'url': 'https://example.com', 'max_length': 100}`},
		{"unquoted keys", `{url: "https://example.com", max_length: 100}`},
		{"trailing comma", `{"url": "https://example.com", "max_length": 100,}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StringAs[fetchArgs](tt.content)
			if err != nil {
				t.Fatalf("StringAs returned error: %v", err)
			}
			if got.URL != "https://example.com" || got.MaxLength != 100 {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestStringAs_EmptyPayload(t *testing.T) {
	got, err := StringAs[fetchArgs]("")
	if err != nil {
		t.Fatalf("StringAs returned error: %v", err)
	}
	if got != (fetchArgs{}) {
		t.Errorf("got %+v, want zero value", got)
	}
}

func TestStringAs_String(t *testing.T) {
	got, err := StringAs[string]("plain text, not JSON")
	if err != nil {
		t.Fatalf("StringAs returned error: %v", err)
	}
	if got != "plain text, not JSON" {
		t.Errorf("got %q", got)
	}
}

func TestObjectFields(t *testing.T) {
	fields, err := ObjectFields(`{"query": "go testing", "max_results": 3}`)
	if err != nil {
		t.Fatalf("ObjectFields returned error: %v", err)
	}
	if fields["query"] != "go testing" {
		t.Errorf("fields[query] = %v", fields["query"])
	}

	empty, err := ObjectFields("")
	if err != nil {
		t.Fatalf("ObjectFields on empty payload: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty map, got %v", empty)
	}
}
