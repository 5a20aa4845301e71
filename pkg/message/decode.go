package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf16"
)

// Decode parses a message from JSON. A Telegram update envelope is accepted
// as well; its payload message is returned.
func Decode(data []byte) (*Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode message: empty input")
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	if _, ok := probe["update_id"]; ok {
		var u Update
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("decode update: %w", err)
		}
		msg := u.Payload()
		if msg == nil {
			return nil, fmt.Errorf("decode update %d: no message payload", u.UpdateID)
		}
		return msg, nil
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// utf16Slice cuts s by UTF-16 code unit offsets, the unit entity offsets
// are expressed in.
func utf16Slice(s string, offset, length int) string {
	units := utf16.Encode([]rune(s))
	if offset < 0 || offset > len(units) {
		return ""
	}
	end := offset + length
	if end > len(units) || length < 0 {
		end = len(units)
	}
	return string(utf16.Decode(units[offset:end]))
}
