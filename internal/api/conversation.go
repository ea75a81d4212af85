package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ishitcode/hire/internal/interview"
)

type rawEvaluationRequest struct {
	Conversation json.RawMessage `json:"conversation"`
	Summary      *string         `json:"summary"`
	PhoneNumber  string          `json:"phoneNumber"`
}

var errBadConversation = errors.New("conversation must be an array")

// decodeEvaluationRequest accepts the conversation as turn objects or as
// plain strings. Strings are attributed with the builder's tagger.
func decodeEvaluationRequest(r *http.Request, builder *interview.Builder) (*interview.EvaluationRequest, error) {
	var raw rawEvaluationRequest
	if err := decodeJSON(r, &raw); err != nil {
		return nil, err
	}
	if raw.Summary == nil {
		return nil, errors.New("summary is required")
	}

	turns, err := decodeConversation(raw.Conversation, builder)
	if err != nil {
		return nil, err
	}

	return &interview.EvaluationRequest{
		Conversation: turns,
		Summary:      *raw.Summary,
		PhoneNumber:  raw.PhoneNumber,
	}, nil
}

func decodeConversation(data json.RawMessage, builder *interview.Builder) ([]interview.Turn, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, errBadConversation
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []interview.Turn{}, nil
	}

	if first := bytes.TrimSpace(items[0]); len(first) > 0 && first[0] == '"' {
		var lines []string
		if err := json.Unmarshal(data, &lines); err != nil {
			return nil, err
		}
		return builder.TagLines(lines), nil
	}

	var turns []interview.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, err
	}

	spoken := make([]interview.Turn, 0, len(turns))
	for i, turn := range turns {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		if !turn.Speaker.Valid() {
			turn.Speaker = builder.Tag(i, text)
		}
		spoken = append(spoken, turn)
	}
	return spoken, nil
}
