package prompt

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Builder constructs prompts for root-cause analysis, recommendation
// generation, and baseline method selection.
type Builder struct {
	templates *template.Template
}

// NewBuilder parses all embedded templates and returns a Builder.
func NewBuilder() (*Builder, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &Builder{templates: tmpl}, nil
}

// RootCauseInput holds data for the root cause prompt template. The JSON
// fields carry pre-rendered context blocks.
type RootCauseInput struct {
	AnomalyType         string
	MetricName          string
	CurrentValue        float64
	BaselineValue       float64
	DeviationSigma      float64
	DeviationPercentage float64
	Severity            string
	DetectedAt          string
	HistoricalSummary   string
	TrendSummary        string
	RecentChangesJSON   string
	MigrationJSON       string
}

// RecommendationsInput holds data for the recommendations prompt template.
type RecommendationsInput struct {
	AnomalyType         string
	Severity            string
	MetricName          string
	DeviationPercentage float64
	PrimaryCause        string
	ContributingFactors string
	ConfidencePct       float64
	Guidance            string
}

// MethodSelectionInput holds data for the method selection prompt template.
type MethodSelectionInput struct {
	MetricName    string
	SampleCount   int
	Mean          float64
	StdDev        float64
	CV            float64
	Trend         string
	TrendSlope    float64
	Volatility    string
	Distribution  string
	Skewness      float64
	Min           float64
	Max           float64
	CurrentMethod string
}

// BuildRootCausePrompt renders the root cause template.
func (b *Builder) BuildRootCausePrompt(input RootCauseInput) (string, error) {
	return b.render("root_cause.tmpl", input)
}

// BuildRecommendationsPrompt renders the recommendations template.
func (b *Builder) BuildRecommendationsPrompt(input RecommendationsInput) (string, error) {
	return b.render("recommendations.tmpl", input)
}

// BuildMethodSelectionPrompt renders the method selection template.
func (b *Builder) BuildMethodSelectionPrompt(input MethodSelectionInput) (string, error) {
	return b.render("method_selection.tmpl", input)
}

func (b *Builder) render(name string, input any) (string, error) {
	var buf bytes.Buffer
	if err := b.templates.ExecuteTemplate(&buf, name, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}
