package domain

import (
	"errors"
	"strings"
)

// Unknown marks an optional classification field that was absent in the source
// row. Records never carry empty optional fields, always this marker.
const Unknown = "unknown"

// MaxEmbedChars caps the text sent to the embedding model per record.
const MaxEmbedChars = 8000

// Record is one classified repository in the corpus. Records are immutable
// once normalized; a rebuild produces a fresh sequence rather than mutating
// an existing one.
type Record struct {
	ID                string   `json:"id"`
	Name              string   `json:"repository"`
	Org               string   `json:"org"`
	Description       string   `json:"description"`
	URL               string   `json:"url"`
	SolutionType      string   `json:"solution_type"`
	Competency        string   `json:"competency"`
	CustomerProblems  string   `json:"customer_problems"`
	SolutionMarketing string   `json:"solution_marketing"`
	PrimaryLanguage   string   `json:"primary_language"`
	SecondaryLanguage string   `json:"secondary_language"`
	AWSServices       []string `json:"aws_services"`
	DeploymentTools   []string `json:"deployment_tools"`
	CostRange         string   `json:"cost_range"`
	SetupTime         string   `json:"setup_time"`
	USP               string   `json:"usp"`
	FreshnessStatus   string   `json:"freshness_status"`
	Stars             int      `json:"stars"`
	Topics            []string `json:"topics"`
}

// Validate checks the fields every Record must carry.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("record name is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("record description is required")
	}
	return nil
}

// EmbedText renders the text fed to the embedding model. The template is
// deterministic: the same Record always produces the same text, so rebuilt
// indexes stay comparable across runs.
func (r Record) EmbedText() string {
	parts := []string{
		"Repository: " + r.Name,
		"Description: " + r.Description,
		"Solution Type: " + r.SolutionType,
		"Competency: " + r.Competency,
		"Primary Language: " + r.PrimaryLanguage,
		"AWS Services: " + strings.Join(r.AWSServices, ", "),
		"Topics: " + strings.Join(r.Topics, ", "),
	}
	text := strings.Join(parts, " | ")
	if len(text) > MaxEmbedChars {
		text = text[:MaxEmbedChars]
	}
	return text
}
