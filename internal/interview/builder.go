package interview

import "strings"

// DefaultSummary is used when no candidate summary is available.
const DefaultSummary = "ML role candidate interview evaluation"

// Builder turns a flat transcript into an evaluation request.
type Builder struct {
	tagger         SpeakerTagger
	defaultSummary string
}

// NewBuilder creates a Builder. A nil tagger falls back to DefaultTagger and an
// empty default summary to DefaultSummary.
func NewBuilder(tagger SpeakerTagger, defaultSummary string) *Builder {
	if tagger == nil {
		tagger = DefaultTagger()
	}

	if defaultSummary = strings.TrimSpace(defaultSummary); defaultSummary == "" {
		defaultSummary = DefaultSummary
	}

	return &Builder{tagger: tagger, defaultSummary: defaultSummary}
}

// Build splits the transcript into trimmed non-empty lines and tags each one.
// The phone number is passed through untouched.
func (b *Builder) Build(transcript, summary, phoneNumber string) (*EvaluationRequest, error) {
	turns := b.TagLines(strings.Split(transcript, "\n"))
	if len(turns) == 0 {
		return nil, ErrEmptyConversation
	}

	return &EvaluationRequest{
		Conversation: turns,
		Summary:      b.Summary(summary),
		PhoneNumber:  phoneNumber,
	}, nil
}

// TagLines tags already split lines. Blank lines are dropped before indexing.
func (b *Builder) TagLines(lines []string) []Turn {
	turns := make([]Turn, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		turns = append(turns, Turn{
			Speaker: b.tagger.Tag(len(turns), line),
			Text:    line,
		})
	}

	return turns
}

// Tag attributes a single line using the builder's tagger.
func (b *Builder) Tag(index int, line string) Speaker {
	return b.tagger.Tag(index, line)
}

// Summary returns the summary or the configured default when it is blank.
func (b *Builder) Summary(summary string) string {
	if strings.TrimSpace(summary) == "" {
		return b.defaultSummary
	}
	return summary
}
