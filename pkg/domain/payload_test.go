package domain

import (
	"errors"
	"testing"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantStatus ResponseStatus
		wantTree   bool
		wantSeq    int
		recognized bool
	}{
		{
			name:       "Validation Error",
			input:      `{"reason": null, "type": "constraint", "seq_id": 2, "status": "validation-error"}`,
			wantStatus: StatusValidationError,
			wantSeq:    2,
			recognized: true,
		},
		{
			name:       "Accepted With Tree",
			input:      `{"status": "accepted", "seq_id": "3", "tree": [{"type": "question", "ix": 0, "answer": "x"}]}`,
			wantStatus: StatusAccepted,
			wantTree:   true,
			wantSeq:    3,
			recognized: true,
		},
		{
			name:       "Empty Tree Still Counts",
			input:      `{"tree": []}`,
			wantTree:   true,
			recognized: true,
		},
		{
			name:       "Unrecognized",
			input:      `{"foo": "bar"}`,
			recognized: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.HasTree != tt.wantTree {
				t.Errorf("HasTree = %v, want %v", resp.HasTree, tt.wantTree)
			}
			if resp.SeqID != tt.wantSeq {
				t.Errorf("SeqID = %d, want %d", resp.SeqID, tt.wantSeq)
			}
			if resp.Recognized() != tt.recognized {
				t.Errorf("Recognized() = %v, want %v", resp.Recognized(), tt.recognized)
			}
		})
	}
}

func TestParseResponse_NumericIx(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"tree": [{"type": "repeat-juncture", "ix": 1, "children": [{"type": "sub-group", "ix": "1_0"}]}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Tree[0].Ix; got != "1" {
		t.Errorf("Ix = %q, want %q", got, "1")
	}
	if got := resp.Tree[0].Children[0].Type; got != NodeTypeGroup {
		t.Errorf("child type = %q, want %q", got, NodeTypeGroup)
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	for _, input := range []string{`not json`, `null`, `{"tree": "nope"}`} {
		_, err := ParsePayload([]byte(input))
		if !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("ParsePayload(%q) error = %v, want ErrInvalidPayload", input, err)
		}
	}
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload([]byte(`{"tree": [{"type": "question", "datatype": "select", "choices": ["a", "b"]}], "seq_id": 1, "session_id": "123", "title": "My title", "langs": ["en"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.SessionID != "123" || p.SeqID != 1 || p.Title != "My title" || len(p.Langs) != 1 {
		t.Errorf("unexpected metadata: %+v", p)
	}
	if len(p.Tree) != 1 || len(p.Tree[0].Choices) != 2 {
		t.Errorf("unexpected tree: %+v", p.Tree)
	}
}
