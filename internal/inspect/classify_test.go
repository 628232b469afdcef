package inspect

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applypilot/internal/domain"
)

func TestClassifyPriority(t *testing.T) {
	cases := []struct {
		name  string
		group FieldGroup
		want  domain.QuestionType
	}{
		{"plain text input", FieldGroup{Control: "input", InputType: "text"}, domain.QuestionShortText},
		{"untyped input", FieldGroup{Control: "input"}, domain.QuestionShortText},
		{"tel input", FieldGroup{Control: "input", InputType: "tel"}, domain.QuestionPhone},
		{"email input", FieldGroup{Control: "input", InputType: "email"}, domain.QuestionEmail},
		{"number input", FieldGroup{Control: "input", InputType: "number"}, domain.QuestionNumeric},
		{"date input", FieldGroup{Control: "input", InputType: "date"}, domain.QuestionDate},
		{"textarea", FieldGroup{Control: "textarea"}, domain.QuestionMultiLine},
		{"select", FieldGroup{Control: "select", Options: []string{"A", "B"}}, domain.QuestionSelect},
		{"radio group", FieldGroup{Control: "radio", Options: []string{"Red", "Green", "Blue"}}, domain.QuestionChoice},
		{"checkbox group", FieldGroup{Control: "checkbox", Options: []string{"Go", "Rust"}}, domain.QuestionCheckbox},
		{"file upload", FieldGroup{Control: "file"}, domain.QuestionFileUpload},
		{"unrecognized control", FieldGroup{Control: "canvas"}, domain.QuestionUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.group))
		})
	}
}

func TestYesNoReclassification(t *testing.T) {
	t.Run("two-option yes/no radio becomes boolean", func(t *testing.T) {
		g := FieldGroup{Control: "radio", Options: []string{"Yes", "No"}}
		assert.Equal(t, domain.QuestionYesNo, Classify(g))
	})

	t.Run("order does not matter", func(t *testing.T) {
		g := FieldGroup{Control: "radio", Options: []string{"No", "Yes"}}
		assert.Equal(t, domain.QuestionYesNo, Classify(g))
	})

	t.Run("text variants recognized", func(t *testing.T) {
		g := FieldGroup{Control: "radio", Options: []string{"I agree", "Decline"}}
		assert.Equal(t, domain.QuestionYesNo, Classify(g))
	})

	t.Run("two non-boolean options stay a choice group", func(t *testing.T) {
		g := FieldGroup{Control: "radio", Options: []string{"Remote", "On-site"}}
		assert.Equal(t, domain.QuestionChoice, Classify(g))
	})

	t.Run("three options never boolean", func(t *testing.T) {
		g := FieldGroup{Control: "radio", Options: []string{"Yes", "No", "Maybe"}}
		assert.Equal(t, domain.QuestionChoice, Classify(g))
	})
}

func TestBuildQuestions(t *testing.T) {
	groups := []FieldGroup{
		{Label: "Years of experience with Go?", Control: "input", InputType: "number", Required: true},
		{Label: "", Control: "input", InputType: "text"},   // no label: decorative
		{Label: "x", Control: "input", InputType: "text"},  // below min length
		{Label: "Phone number", Control: "input", InputType: "tel", Value: "555-0100"},
		{Label: "Are you authorized to work?", Control: "radio", Options: []string{"Yes", "No"}, Checked: []string{"Yes"}},
	}

	qs := BuildQuestions(groups, 2, 3)
	require.Len(t, qs, 3)
	for _, q := range qs {
		assert.NotEmpty(t, q.ID)
	}

	want := []*domain.Question{
		{
			Text:      "Years of experience with Go?",
			Type:      domain.QuestionNumeric,
			Required:  true,
			PageIndex: 2,
		},
		{
			Text:           "Phone number",
			Type:           domain.QuestionPhone,
			IsPreFilled:    true,
			PreFilledValue: "555-0100",
			PageIndex:      2,
		},
		{
			Text:           "Are you authorized to work?",
			Type:           domain.QuestionYesNo,
			Options:        []string{"Yes", "No"},
			IsPreFilled:    true,
			PreFilledValue: "Yes",
			PageIndex:      2,
		},
	}
	ignore := cmpopts.IgnoreFields(domain.Question{}, "ID", "FieldRef")
	if diff := cmp.Diff(want, qs, ignore); diff != "" {
		t.Errorf("questions mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildQuestionsKeepsUnknownForAudit(t *testing.T) {
	qs := BuildQuestions([]FieldGroup{{Label: "Custom widget question", Control: "canvas"}}, 0, 3)
	require.Len(t, qs, 1)
	assert.Equal(t, domain.QuestionUnknown, qs[0].Type)
	assert.False(t, qs[0].Type.ForcedFill())
}

func TestClassifyNavPriority(t *testing.T) {
	t.Run("submit wins over review and next", func(t *testing.T) {
		c := ClassifyNav([]ButtonInfo{
			{Text: "Next", Selector: "#next"},
			{Text: "Review your application", Selector: "#review"},
			{Text: "Submit application", Selector: "#submit"},
		})
		assert.Equal(t, NavSubmit, c.Kind)
		assert.Equal(t, "#submit", c.Selector)
	})

	t.Run("review wins over next", func(t *testing.T) {
		c := ClassifyNav([]ButtonInfo{
			{Text: "Next", Selector: "#next"},
			{Text: "Review", Selector: "#review"},
		})
		assert.Equal(t, NavReview, c.Kind)
	})

	t.Run("aria label matches", func(t *testing.T) {
		c := ClassifyNav([]ButtonInfo{
			{Text: "", AriaText: "Continue to next step", Selector: "#n"},
		})
		assert.Equal(t, NavNext, c.Kind)
	})

	t.Run("no candidates means none", func(t *testing.T) {
		c := ClassifyNav([]ButtonInfo{{Text: "Dismiss"}, {Text: "Save as draft"}})
		assert.Equal(t, NavNone, c.Kind)
		assert.Empty(t, c.Selector)
	})
}

func TestAffirmativeNegative(t *testing.T) {
	assert.True(t, IsAffirmative(" Yes "))
	assert.True(t, IsAffirmative("I agree"))
	assert.True(t, IsNegative("NO"))
	assert.False(t, IsAffirmative("Maybe"))
	assert.False(t, IsNegative("Sometimes"))
}
