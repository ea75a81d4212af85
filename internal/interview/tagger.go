package interview

import "strings"

// SpeakerTagger attributes a transcript line to a speaker.
type SpeakerTagger interface {
	Tag(index int, line string) Speaker
}

// KeywordTagger is a best-effort heuristic: the first keyword group found in the
// lowercased line wins, otherwise speakers alternate starting with the interviewer.
type KeywordTagger struct {
	AIKeywords        []string
	CandidateKeywords []string
}

// DefaultTagger returns the keyword sets used for interview transcripts.
func DefaultTagger() *KeywordTagger {
	return &KeywordTagger{
		AIKeywords:        []string{"ai", "interviewer", "hr"},
		CandidateKeywords: []string{"candidate", "applicant", "i "},
	}
}

func (t *KeywordTagger) Tag(index int, line string) Speaker {
	lower := strings.ToLower(line)

	if containsAny(lower, t.AIKeywords) {
		return SpeakerAI
	}
	if containsAny(lower, t.CandidateKeywords) {
		return SpeakerCandidate
	}

	if index%2 == 0 {
		return SpeakerAI
	}
	return SpeakerCandidate
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
