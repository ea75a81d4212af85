package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/ishitcode/hire/internal/interview"
	"github.com/ishitcode/hire/internal/utils"
)

var requiredFields = []string{"strengths", "areasForImprovement", "detailedFeedback", "finalDecision"}

// Validate turns raw model output into a Result. Ratings are rounded and
// clamped to [MinRating, MaxRating]; any structural problem fails the whole
// result.
func Validate(raw string) (*Result, error) {
	cleaned := utils.ExtractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", interview.ErrMalformedJSON, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: expected a json object", interview.ErrMalformedJSON)
	}

	for _, field := range requiredFields {
		if missing(data[field]) {
			return nil, fmt.Errorf("%w: %s", interview.ErrMissingField, field)
		}
	}

	result := &Result{}

	if err := decodeStrings(data["strengths"], &result.Strengths); err != nil {
		return nil, fmt.Errorf("decode strengths: %w", err)
	}
	if err := decodeStrings(data["areasForImprovement"], &result.AreasForImprovement); err != nil {
		return nil, fmt.Errorf("decode areasForImprovement: %w", err)
	}

	feedback, err := normalizeFeedback(data["detailedFeedback"])
	if err != nil {
		return nil, err
	}
	result.DetailedFeedback = feedback

	decision, err := normalizeDecision(data["finalDecision"])
	if err != nil {
		return nil, err
	}
	result.FinalDecision = *decision

	result.AdditionalInsights = map[string]any{}
	if insights, ok := data["additionalInsights"].(map[string]any); ok {
		result.AdditionalInsights = insights
	}

	return result, nil
}

// missing treats null and blank strings as absent.
func missing(v any) bool {
	if v == nil {
		return true
	}
	str, ok := v.(string)
	return ok && strings.TrimSpace(str) == ""
}

func decodeStrings(input any, out *[]string) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return interview.WrapError(interview.ErrDataShape, "decode list", err)
	}
	if *out == nil {
		*out = []string{}
	}
	return nil
}

func normalizeFeedback(input any) (map[string]string, error) {
	raw, ok := input.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("detailedFeedback must be an object: %w", interview.ErrDataShape)
	}

	feedback := make(map[string]string, len(raw))
	for category, value := range raw {
		switch v := value.(type) {
		case string:
			feedback[category] = v
		case nil:
			feedback[category] = ""
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode feedback %q: %w", category, err)
			}
			feedback[category] = string(encoded)
		}
	}
	return feedback, nil
}

func normalizeDecision(input any) (*FinalDecision, error) {
	raw, ok := input.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("finalDecision must be an object: %w", interview.ErrDataShape)
	}

	decision, err := parseDecision(raw["decision"])
	if err != nil {
		return nil, err
	}

	ratings := map[string]int{}
	if rawRatings, present := raw["ratings"]; present && rawRatings != nil {
		values, ok := rawRatings.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ratings must be an object: %w", interview.ErrDataShape)
		}
		for category, value := range values {
			rating, err := parseRating(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", err, category)
			}
			ratings[category] = ClampRating(rating)
		}
	}

	return &FinalDecision{
		Decision:        decision,
		Ratings:         ratings,
		ConfidenceScore: stringify(raw["confidenceScore"]),
	}, nil
}

func parseDecision(v any) (string, error) {
	s, _ := v.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accepted":
		return DecisionAccepted, nil
	case "rejected":
		return DecisionRejected, nil
	}
	return "", fmt.Errorf("%w: got %v", interview.ErrInvalidDecision, v)
}

func parseRating(v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, interview.ErrInvalidRating
		}
		f = parsed
	default:
		return 0, interview.ErrInvalidRating
	}
	if math.IsNaN(f) {
		return 0, interview.ErrInvalidRating
	}
	return f, nil
}

// ClampRating rounds the rating to the nearest integer within [MinRating, MaxRating].
func ClampRating(v float64) int {
	switch {
	case math.IsInf(v, 1):
		return MaxRating
	case math.IsInf(v, -1):
		return MinRating
	}
	rounded := math.Round(v)
	if rounded < MinRating {
		return MinRating
	}
	if rounded > MaxRating {
		return MaxRating
	}
	return int(rounded)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(encoded)
	}
}
