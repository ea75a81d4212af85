package interview

import "strings"

// CallStatus is the lifecycle state of an interview call as reported by the voice provider.
type CallStatus string

const (
	StatusInitiating CallStatus = "initiating"
	StatusInProgress CallStatus = "in_progress"
	StatusCompleted  CallStatus = "completed"
	StatusFailed     CallStatus = "failed"
)

// IsTerminal reports whether no further polling is needed.
func (s CallStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Speaker string

const (
	SpeakerAI        Speaker = "AI_HR"
	SpeakerCandidate Speaker = "Candidate"
)

// Valid reports whether the speaker is one of the known roles.
func (s Speaker) Valid() bool {
	return s == SpeakerAI || s == SpeakerCandidate
}

// Turn is one attributed utterance of an interview.
type Turn struct {
	Speaker Speaker `json:"speaker" mapstructure:"speaker"`
	Text    string  `json:"text" mapstructure:"text"`
}

type Conversation struct {
	Conversation []Turn `json:"conversation" mapstructure:"conversation"`
}

// Text joins the turns' text with newlines.
func (c *Conversation) Text() string {
	if c == nil {
		return ""
	}

	lines := make([]string, 0, len(c.Conversation))
	for _, turn := range c.Conversation {
		lines = append(lines, turn.Text)
	}

	return strings.Join(lines, "\n")
}

// StatusReport is the payload of GET /api/calls/status.
type StatusReport struct {
	CallID string     `json:"call_id,omitempty"`
	Status CallStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// CallArtifact is the payload of GET /api/calls for a finished call.
type CallArtifact struct {
	CallID                 string        `json:"call_id,omitempty" mapstructure:"call_id"`
	RecordingFile          string        `json:"recording_file,omitempty" mapstructure:"recording_file"`
	StructuredConversation *Conversation `json:"structured_conversation,omitempty" mapstructure:"structured_conversation"`
	RawTranscription       string        `json:"raw_transcription,omitempty" mapstructure:"raw_transcription"`
}

// EvaluationRequest is the body of POST /api/finaleval.
type EvaluationRequest struct {
	Conversation []Turn `json:"conversation"`
	Summary      string `json:"summary"`
	PhoneNumber  string `json:"phoneNumber"`
}
