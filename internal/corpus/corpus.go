// Package corpus normalizes raw classification exports into the canonical
// record sequence the index is built from. Input rows arrive as CSV or
// Parquet; rows missing the required fields are dropped and counted, absent
// optional fields get the explicit unknown marker, and list columns are
// split on commas. Normalization is pure file-to-records work: no network.
package corpus

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// Column names of the classification export, shared by the CSV and Parquet
// readers.
const (
	colRepository        = "repository"
	colDescription       = "description"
	colURL               = "url"
	colSolutionType      = "solution_type"
	colCompetency        = "competency"
	colCustomerProblems  = "customer_problems"
	colSolutionMarketing = "solution_marketing"
	colPrimaryLanguage   = "primary_language"
	colSecondaryLanguage = "secondary_language"
	colAWSServices       = "aws_services"
	colDeploymentTools   = "deployment_tools"
	colCostRange         = "cost_range"
	colSetupTime         = "setup_time"
	colUSP               = "usp"
	colFreshnessStatus   = "freshness_status"
	colStars             = "stars"
	colTopics            = "topics"
)

// columns lists every export column the normalizer consumes.
var columns = []string{
	colRepository, colDescription, colURL, colSolutionType, colCompetency,
	colCustomerProblems, colSolutionMarketing, colPrimaryLanguage,
	colSecondaryLanguage, colAWSServices, colDeploymentTools, colCostRange,
	colSetupTime, colUSP, colFreshnessStatus, colStars, colTopics,
}

// row is one raw tabular row keyed by export column name.
type row map[string]string

// Options configure one normalization run.
type Options struct {
	Org   string
	Limit int // 0 = no limit; counts kept records
}

// Result is the outcome of a normalization run.
type Result struct {
	Records []domain.Record
	Read    int // raw rows seen
	Dropped int // rows without the required fields
}

// Normalizer turns raw classification exports into canonical records.
type Normalizer struct {
	opts   Options
	logger *zap.Logger
}

// NewNormalizer creates a normalizer stamping records with opts.Org.
func NewNormalizer(opts Options, logger *zap.Logger) *Normalizer {
	return &Normalizer{opts: opts, logger: logger}
}

// NormalizeFile reads path and normalizes its rows; the format follows the
// file extension.
func (n *Normalizer) NormalizeFile(path string) (*Result, error) {
	var (
		rows []row
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".parquet":
		rows, err = readParquetRows(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .csv or .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}
	return n.Normalize(rows), nil
}

// Normalize turns raw rows into canonical records, keeping input order.
// Record IDs are assigned from the position in the kept sequence, the same
// position the record's vector will occupy in the index.
func (n *Normalizer) Normalize(rows []row) *Result {
	res := &Result{Records: make([]domain.Record, 0, len(rows))}
	for i, raw := range rows {
		res.Read++
		rec, ok := normalizeRow(raw, n.opts.Org, len(res.Records))
		if !ok {
			res.Dropped++
			n.logger.Debug("Dropped row without required fields", zap.Int("row", i+1))
			continue
		}
		res.Records = append(res.Records, rec)
		if n.opts.Limit > 0 && len(res.Records) >= n.opts.Limit {
			break
		}
	}

	n.logger.Info("Normalized corpus",
		zap.String("org", n.opts.Org),
		zap.Int("read", res.Read),
		zap.Int("kept", len(res.Records)),
		zap.Int("dropped", res.Dropped))
	return res
}

func normalizeRow(raw row, org string, position int) (domain.Record, bool) {
	name := strings.TrimSpace(raw[colRepository])
	desc := strings.TrimSpace(raw[colDescription])
	if name == "" || desc == "" {
		return domain.Record{}, false
	}

	return domain.Record{
		ID:                fmt.Sprintf("repo_%d", position),
		Name:              name,
		Org:               org,
		Description:       desc,
		URL:               orUnknown(raw[colURL]),
		SolutionType:      orUnknown(raw[colSolutionType]),
		Competency:        orUnknown(raw[colCompetency]),
		CustomerProblems:  orUnknown(raw[colCustomerProblems]),
		SolutionMarketing: orUnknown(raw[colSolutionMarketing]),
		PrimaryLanguage:   orUnknown(raw[colPrimaryLanguage]),
		SecondaryLanguage: orUnknown(raw[colSecondaryLanguage]),
		AWSServices:       splitList(raw[colAWSServices]),
		DeploymentTools:   splitList(raw[colDeploymentTools]),
		CostRange:         orUnknown(raw[colCostRange]),
		SetupTime:         orUnknown(raw[colSetupTime]),
		USP:               orUnknown(raw[colUSP]),
		FreshnessStatus:   orUnknown(raw[colFreshnessStatus]),
		Stars:             parseStars(raw[colStars]),
		Topics:            splitList(raw[colTopics]),
	}, true
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return domain.Unknown
	}
	return s
}

// splitList turns a comma-joined export column into a clean slice. An empty
// column keeps the unknown marker so rendered embed text never carries a
// bare label.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{domain.Unknown}
	}
	return out
}

// parseStars reads the star count; anything unparsable counts as zero.
func parseStars(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
