package model

import (
	"encoding/json"
	"testing"
)

func TestAlternativesNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"canonical", `[{"text":"A"},{"text":"B"}]`, []string{"A", "B"}},
		{"plain strings", `["yes","no"]`, []string{"yes", "no"}},
		{"numbers", `[1, 2.5]`, []string{"1", "2.5"}},
		{"numeric text member", `[{"text": 42}]`, []string{"42"}},
		{"foreign object", `[{"label":"x","ok":true}]`, []string{`{"label":"x","ok":true}`}},
		{"mixed", `["a", {"text":"b"}, 3, null]`, []string{"a", "b", "3", ""}},
		{"not an array", `{"text":"A"}`, []string{}},
		{"null", `null`, []string{}},
		{"empty", `[]`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var alts Alternatives
			if err := json.Unmarshal([]byte(tt.raw), &alts); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			got := alts.Texts()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d alternatives, got %d: %v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("alternative %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAlternativesScanValue(t *testing.T) {
	v, err := Alternatives{{Text: "A"}, {Text: "B"}}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != `[{"text":"A"},{"text":"B"}]` {
		t.Errorf("unexpected stored value %v", v)
	}

	var nilAlts Alternatives
	v, _ = nilAlts.Value()
	if v != `[]` {
		t.Errorf("nil alternatives should store as [], got %v", v)
	}

	var scanned Alternatives
	if err := scanned.Scan(`["legacy", {"text":"ok"}]`); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(scanned) != 2 || scanned[0].Text != "legacy" || scanned[1].Text != "ok" {
		t.Errorf("unexpected scanned alternatives %v", scanned)
	}

	if err := scanned.Scan(nil); err != nil || len(scanned) != 0 {
		t.Errorf("Scan(nil) = %v, %v", scanned, err)
	}
	if err := scanned.Scan(12); err == nil {
		t.Error("expected error scanning an int")
	}
}

func TestNewQuestionDefaults(t *testing.T) {
	n := NewQuestion{Statement: "What is Go?", CorrectAnswer: "A language"}.WithDefaults()
	if n.Difficulty != DifficultyMedium {
		t.Errorf("expected MEDIUM, got %q", n.Difficulty)
	}
	if n.Type != TypeObjective {
		t.Errorf("expected OBJECTIVE, got %q", n.Type)
	}
	if n.Alternatives == nil {
		t.Error("expected non-nil alternatives")
	}

	kept := NewQuestion{Difficulty: DifficultyHard, Type: TypeDrawing}.WithDefaults()
	if kept.Difficulty != DifficultyHard || kept.Type != TypeDrawing {
		t.Errorf("explicit values overwritten: %+v", kept)
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		req      PageRequest
		wantLast int
	}{
		{"empty", 0, PageRequest{Page: 1, PerPage: 10}, 0},
		{"exact", 20, PageRequest{Page: 1, PerPage: 10}, 2},
		{"partial", 21, PageRequest{Page: 3, PerPage: 10}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage[int](nil, tt.total, tt.req)
			if p.Meta.LastPage != tt.wantLast {
				t.Errorf("LastPage = %d, want %d", p.Meta.LastPage, tt.wantLast)
			}
			if p.Data == nil {
				t.Error("expected non-nil data slice")
			}
		})
	}
}

func TestPageRequestNormalize(t *testing.T) {
	p := PageRequest{Page: 0, PerPage: 500}.Normalize()
	if p.Page != 1 || p.PerPage != 100 {
		t.Errorf("unexpected normalized page %+v", p)
	}
	if got := (PageRequest{Page: 3, PerPage: 10}).Offset(); got != 20 {
		t.Errorf("Offset = %d, want 20", got)
	}
}
