package inspect

import (
	"strings"

	"github.com/google/uuid"

	"applypilot/internal/domain"
	"applypilot/internal/logging"
)

// DefaultMinLabelLength filters decorative groups whose label is too short to
// be a real question.
const DefaultMinLabelLength = 3

var affirmative = map[string]bool{
	"yes": true, "y": true, "true": true, "sure": true,
	"agree": true, "i agree": true, "accept": true, "ja": true, "oui": true,
}

var negative = map[string]bool{
	"no": true, "n": true, "false": true,
	"decline": true, "disagree": true, "nein": true, "non": true,
}

// IsAffirmative reports whether text is a recognized "yes" variant.
func IsAffirmative(text string) bool {
	return affirmative[strings.ToLower(strings.TrimSpace(text))]
}

// IsNegative reports whether text is a recognized "no" variant.
func IsNegative(text string) bool {
	return negative[strings.ToLower(strings.TrimSpace(text))]
}

// Classify maps a raw field group to a question type using a fixed priority
// order: single-line text (with typed variants) first, then multi-line,
// select, radio group, checkbox group, file upload, and unknown last.
func Classify(g FieldGroup) domain.QuestionType {
	switch g.Control {
	case "input":
		switch g.InputType {
		case "tel":
			return domain.QuestionPhone
		case "email":
			return domain.QuestionEmail
		case "number":
			return domain.QuestionNumeric
		case "date":
			return domain.QuestionDate
		case "", "text", "search", "url":
			return domain.QuestionShortText
		default:
			return domain.QuestionShortText
		}
	case "textarea":
		return domain.QuestionMultiLine
	case "select":
		return domain.QuestionSelect
	case "radio":
		if isYesNo(g.Options) {
			return domain.QuestionYesNo
		}
		return domain.QuestionChoice
	case "checkbox":
		if isYesNo(g.Options) {
			return domain.QuestionYesNo
		}
		return domain.QuestionCheckbox
	case "file":
		return domain.QuestionFileUpload
	default:
		return domain.QuestionUnknown
	}
}

// isYesNo reports whether a choice group's exactly-two options are a
// recognized affirmative/negative pair.
func isYesNo(options []string) bool {
	if len(options) != 2 {
		return false
	}
	return (IsAffirmative(options[0]) && IsNegative(options[1])) ||
		(IsNegative(options[0]) && IsAffirmative(options[1]))
}

// preFilled reports whether the group already carries a value, selection, or
// attached file, and returns the captured value.
func preFilled(g FieldGroup) (bool, string) {
	if strings.TrimSpace(g.Value) != "" {
		return true, strings.TrimSpace(g.Value)
	}
	if len(g.Checked) > 0 {
		return true, strings.Join(g.Checked, ", ")
	}
	return false, ""
}

// BuildQuestions classifies raw groups into questions for the given page.
// Groups whose label is empty or shorter than minLabelLen are discarded as
// decorative. Unknown fields are retained for audit but excluded from the
// forced-fill set by their type.
func BuildQuestions(groups []FieldGroup, pageIndex, minLabelLen int) []*domain.Question {
	if minLabelLen <= 0 {
		minLabelLen = DefaultMinLabelLength
	}

	var out []*domain.Question
	for _, g := range groups {
		label := strings.TrimSpace(g.Label)
		if len(label) < minLabelLen {
			continue
		}

		q := &domain.Question{
			ID:        uuid.NewString(),
			Text:      label,
			Type:      Classify(g),
			Options:   g.Options,
			Required:  g.Required,
			PageIndex: pageIndex,
			MaxLength: g.MaxLength,
			FieldRef:  g,
		}
		if filled, val := preFilled(g); filled {
			q.IsPreFilled = true
			q.PreFilledValue = val
		}
		logging.InspectDebug("classified %q as %s (page %d, prefilled=%v)",
			label, q.Type, pageIndex, q.IsPreFilled)
		out = append(out, q)
	}
	return out
}
