package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Option is a single multiple-choice option.
type Option struct {
	Key     string
	Content string
}

// OptionList keeps options in their authored order. It is encoded as a JSON
// object ({"A": "...", "B": "..."}) and decoding preserves key order.
type OptionList []Option

func (l OptionList) Has(key string) bool {
	for _, o := range l {
		if o.Key == key {
			return true
		}
	}
	return false
}

func (l OptionList) Keys() []string {
	keys := make([]string, 0, len(l))
	for _, o := range l {
		keys = append(keys, o.Key)
	}
	return keys
}

func (l OptionList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(o.Key)
		if err != nil {
			return nil, err
		}
		content, err := json.Marshal(o.Content)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(content)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *OptionList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}

	var list OptionList
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		content, err := scalarString(raw)
		if err != nil {
			return fmt.Errorf("option %q: %w", key, err)
		}
		list = append(list, Option{Key: key, Content: content})
		return nil
	})
	if err != nil {
		return err
	}
	*l = list
	return nil
}

// RecordedAnswer is one entry of an attempt's answer_order map. Fields other
// than answer and time_spent are kept so a record like {"flagged": true} still
// counts as a response.
type RecordedAnswer struct {
	Answer    *string `json:"answer,omitempty"`
	TimeSpent *int    `json:"time_spent,omitempty"`

	extra map[string]json.RawMessage
}

// IsBlank reports whether the record is absent, null, or an empty object.
func (r *RecordedAnswer) IsBlank() bool {
	return r == nil || (r.Answer == nil && r.TimeSpent == nil && len(r.extra) == 0)
}

// Value returns the answer text, or "" when the record has no answer.
func (r *RecordedAnswer) Value() string {
	if r == nil || r.Answer == nil {
		return ""
	}
	return *r.Answer
}

func (r RecordedAnswer) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(r.extra)+2)
	for key, raw := range r.extra {
		fields[key] = raw
	}
	if r.Answer != nil {
		fields["answer"] = *r.Answer
	}
	if r.TimeSpent != nil {
		fields["time_spent"] = *r.TimeSpent
	}
	return json.Marshal(fields)
}

func (r *RecordedAnswer) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = RecordedAnswer{}
	for key, raw := range fields {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			r.keep(key, raw)
			continue
		}
		switch key {
		case "answer":
			answer, err := answerString(raw)
			if err != nil {
				return fmt.Errorf("answer: %w", err)
			}
			r.Answer = &answer
		case "time_spent":
			var spent int
			if err := json.Unmarshal(raw, &spent); err != nil {
				return fmt.Errorf("time_spent: %w", err)
			}
			r.TimeSpent = &spent
		default:
			r.keep(key, raw)
		}
	}
	return nil
}

func (r *RecordedAnswer) keep(key string, raw json.RawMessage) {
	if r.extra == nil {
		r.extra = make(map[string]json.RawMessage)
	}
	r.extra[key] = raw
}

// answerString normalises a scalar answer, joining multi-select arrays with ",".
func answerString(raw json.RawMessage) (string, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			s, err := scalarString(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	}
	return scalarString(raw)
}

func decodeOrderedObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}

// scalarString renders a JSON string, number or bool as plain text.
func scalarString(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}
