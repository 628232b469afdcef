// Package ai wraps the Gemini API behind the two collaborator capabilities
// the engine consumes: application-message generation and batch question
// answering. Both are best-effort from the caller's point of view.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// MessageResult is the outcome of application-message generation.
type MessageResult struct {
	Message               string   `json:"message"`
	MatchingSkills        []string `json:"matching_skills"`
	AddressedRequirements []string `json:"addressed_requirements"`
	ConfidenceScore       int      `json:"confidence_score"`
}

// Client is the AI collaborator capability set.
type Client interface {
	GenerateApplicationMessage(ctx context.Context, jobDescription, jobTitle, company, userProfile string) (*MessageResult, error)
	GenerateQuestionAnswers(ctx context.Context, questions []string, userProfile, jobDescription string) (map[string]string, error)
}

// GeminiClient implements Client on the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

const messagePrompt = `You are helping a candidate apply for a job.
Write a short, specific application message (no more than 150 words) from the
candidate to the hiring team. Then list the candidate's skills that match the
job, the job requirements the message addresses, and a confidence score from
0 to 100 for how well the candidate fits.

Job title: %s
Company: %s
Job description:
%s

Candidate profile:
%s

Respond with JSON only, matching this schema:
{"message": string, "matching_skills": [string], "addressed_requirements": [string], "confidence_score": number}`

// GenerateApplicationMessage produces a cover message plus fit metadata.
func (c *GeminiClient) GenerateApplicationMessage(ctx context.Context, jobDescription, jobTitle, company, userProfile string) (*MessageResult, error) {
	prompt := fmt.Sprintf(messagePrompt, jobTitle, company, jobDescription, userProfile)

	raw, err := c.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var result MessageResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse message response: %w", err)
	}
	if result.ConfidenceScore < 0 {
		result.ConfidenceScore = 0
	}
	if result.ConfidenceScore > 100 {
		result.ConfidenceScore = 100
	}
	return &result, nil
}

const answersPrompt = `You are helping a candidate fill a job application form.
Answer each question concisely and truthfully based on the candidate profile.
For yes/no questions answer exactly "Yes" or "No". For numeric questions
answer with a number only.

Job description:
%s

Candidate profile:
%s

Questions:
%s

Respond with JSON only: an object mapping each question text, exactly as
given, to its answer string. Do not rephrase the question keys.`

// GenerateQuestionAnswers batch-answers the given questions, keyed by the
// exact question text as passed in.
func (c *GeminiClient) GenerateQuestionAnswers(ctx context.Context, questions []string, userProfile, jobDescription string) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}

	var sb strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&sb, "- %s\n", q)
	}
	prompt := fmt.Sprintf(answersPrompt, jobDescription, userProfile, sb.String())

	raw, err := c.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var answers map[string]string
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("parse answers response: %w", err)
	}
	return answers, nil
}

func (c *GeminiClient) generateJSON(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("Gemini generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty Gemini response")
	}
	return []byte(stripFences(text)), nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the mime-type hint.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
