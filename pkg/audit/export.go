package audit

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteNDJSON writes events as newline-delimited JSON
func WriteNDJSON(w io.Writer, events []*Event) error {
	enc := json.NewEncoder(w)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to encode audit event %s: %w", event.ID, err)
		}
	}
	return nil
}
