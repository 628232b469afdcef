package domain

// Platform identifies which adapter owns a session. The set is closed here;
// support for a new site is added by registering a new adapter under a new
// constant, never by branching on the value.
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformIndeed   Platform = "indeed"
)

// Job is the boundary input from the (out of scope) discovery collaborator.
type Job struct {
	Platform    Platform `json:"platform"`
	ExternalID  string   `json:"external_id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	URL         string   `json:"url"`
	Description string   `json:"description,omitempty"`
}

// JobDetails is the result of fetching a job page: the boundary job plus the
// flattened description text the resolver consumes.
type JobDetails struct {
	Job         Job    `json:"job"`
	Description string `json:"description"`
	QuickApply  bool   `json:"quick_apply"`
}

// SearchFilter narrows a job search. Zero values mean "any".
type SearchFilter struct {
	Keywords   string `json:"keywords"`
	Location   string `json:"location"`
	Remote     bool   `json:"remote"`
	MaxResults int    `json:"max_results"`
}

// Profile is the free-text candidate profile handed to the Answer Resolver.
type Profile struct {
	Name     string `json:"name"     yaml:"name"`
	Email    string `json:"email"    yaml:"email"`
	Phone    string `json:"phone"    yaml:"phone"`
	Summary  string `json:"summary"  yaml:"summary"`
	FullText string `json:"full_text" yaml:"full_text"`
}

// Text returns the resolver-facing free text, preferring the explicit blob.
func (p Profile) Text() string {
	if p.FullText != "" {
		return p.FullText
	}
	return p.Summary
}
