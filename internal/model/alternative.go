package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Alternative is a single answer option in its canonical {text} form.
type Alternative struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts any JSON value and coerces it into {text}.
// Plain strings and numbers become the text, objects with a "text" member use
// it, and any other object is kept as its compact JSON encoding.
func (a *Alternative) UnmarshalJSON(data []byte) error {
	a.Text = normalizeAlternative(data)
	return nil
}

func normalizeAlternative(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			if text, ok := obj["text"]; ok {
				return normalizeAlternative(text)
			}
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

// Alternatives is the list of answer options of a question.
type Alternatives []Alternative

// UnmarshalJSON normalizes every element; anything that is not an array
// yields an empty list.
func (a *Alternatives) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*a = Alternatives{}
		return nil
	}
	out := make(Alternatives, 0, len(items))
	for _, item := range items {
		out = append(out, Alternative{Text: normalizeAlternative(item)})
	}
	*a = out
	return nil
}

// Texts returns the plain alternative texts.
func (a Alternatives) Texts() []string {
	texts := make([]string, len(a))
	for i, alt := range a {
		texts[i] = alt.Text
	}
	return texts
}

// Value stores alternatives as a JSON array column.
func (a Alternatives) Value() (driver.Value, error) {
	if a == nil {
		a = Alternatives{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON array column, normalizing legacy shapes.
func (a *Alternatives) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Alternatives{}
		return nil
	case string:
		return a.UnmarshalJSON([]byte(v))
	case []byte:
		return a.UnmarshalJSON(v)
	default:
		return fmt.Errorf("scan alternatives: unsupported type %T", src)
	}
}
