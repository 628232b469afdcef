package domain

// QuestionType is the classified shape of a detected form field.
type QuestionType string

const (
	QuestionShortText  QuestionType = "short_text"
	QuestionMultiLine  QuestionType = "multi_line"
	QuestionSelect     QuestionType = "select"
	QuestionChoice     QuestionType = "choice"
	QuestionCheckbox   QuestionType = "checkbox"
	QuestionNumeric    QuestionType = "numeric"
	QuestionYesNo      QuestionType = "yes_no"
	QuestionPhone      QuestionType = "phone"
	QuestionEmail      QuestionType = "email"
	QuestionDate       QuestionType = "date"
	QuestionFileUpload QuestionType = "file_upload"
	QuestionUnknown    QuestionType = "unknown"
)

// ForcedFill reports whether the submit-time fill step should attempt this
// type. Unknown fields are retained for audit but never force-filled; file
// uploads are skipped intentionally.
func (t QuestionType) ForcedFill() bool {
	return t != QuestionUnknown && t != QuestionFileUpload
}

// Question is one detected form field. FieldRef is an opaque locator owned by
// the adapter that produced it; nothing outside that adapter interprets it.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`

	Answer         string `json:"answer"`
	IsPreFilled    bool   `json:"is_pre_filled"`
	PreFilledValue string `json:"pre_filled_value,omitempty"`

	PageIndex int `json:"page_index"`
	MaxLength int `json:"max_length,omitempty"`

	FieldRef any `json:"-"`
}
