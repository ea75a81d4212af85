package interview

// NormalizeArtifact derives the displayable transcript and the flat transcript
// text from a call artifact.
//
// A structured conversation takes precedence; a raw transcription is wrapped in
// a single interviewer turn; with neither the returned turns are nil. The text
// prefers the raw transcription over the joined structured turns.
func NormalizeArtifact(artifact *CallArtifact) ([]Turn, string) {
	if artifact == nil {
		return nil, ""
	}

	var turns []Turn
	switch {
	case artifact.StructuredConversation != nil:
		turns = artifact.StructuredConversation.Conversation
	case artifact.RawTranscription != "":
		turns = []Turn{{Speaker: SpeakerAI, Text: artifact.RawTranscription}}
	}

	text := artifact.RawTranscription
	if text == "" {
		text = artifact.StructuredConversation.Text()
	}

	return turns, text
}
