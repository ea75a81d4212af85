package voice

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/ishitcode/hire/internal/interview"
)

// providerCall is the call resource returned by the provider.
type providerCall struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (p providerCall) report() *interview.StatusReport {
	return &interview.StatusReport{
		CallID: strings.TrimSpace(p.CallID),
		Status: NormalizeStatus(p.Status),
		Error:  strings.TrimSpace(p.Error),
	}
}

// NormalizeStatus maps provider call states onto CallStatus values. Unknown
// states are passed through and treated as non-terminal by callers.
func NormalizeStatus(status string) interview.CallStatus {
	s := strings.ToLower(strings.TrimSpace(status))
	s = strings.ReplaceAll(s, "-", "_")

	switch s {
	case "", "queued", "ringing", "initiated", "initiating", "dialing":
		return interview.StatusInitiating
	case "in_progress", "ongoing", "answered", "active":
		return interview.StatusInProgress
	case "completed", "ended", "done", "finished":
		return interview.StatusCompleted
	case "failed", "busy", "no_answer", "canceled", "cancelled", "error":
		return interview.StatusFailed
	}
	return interview.CallStatus(s)
}

// decodeArtifact reads the loosely typed call payload. structured_conversation
// may arrive either as {"conversation": [...]} or as a bare list of turns.
func decodeArtifact(payload map[string]any) (*interview.CallArtifact, error) {
	var artifact interview.CallArtifact

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       conversationHook,
		Result:           &artifact,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(payload); err != nil {
		return nil, err
	}

	if artifact.StructuredConversation != nil && len(artifact.StructuredConversation.Conversation) == 0 {
		artifact.StructuredConversation = nil
	}

	return &artifact, nil
}

func conversationHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(interview.Conversation{}) {
		return data, nil
	}
	if from.Kind() == reflect.Slice {
		return map[string]any{"conversation": data}, nil
	}
	return data, nil
}
