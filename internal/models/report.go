package models

import "fmt"

// ReportType selects the report template rendered by the backend.
type ReportType string

const (
	ReportFull    ReportType = "full"
	ReportSummary ReportType = "summary"
	ReportSegment ReportType = "segment"
)

// ParseReportType validates a report type name.
func ParseReportType(s string) (ReportType, error) {
	switch rt := ReportType(s); rt {
	case ReportFull, ReportSummary, ReportSegment:
		return rt, nil
	}
	return "", fmt.Errorf("invalid report type %q (want full, summary or segment)", s)
}

// GeneratedReport describes a report produced by /reports/generate.
type GeneratedReport struct {
	ReportID    string `json:"reportId"`
	FileName    string `json:"fileName"`
	GeneratedAt string `json:"generatedAt"`
	ReportType  string `json:"reportType"`
	FileSize    int64  `json:"fileSize"`
	Message     string `json:"message"`
}

// ReportGenerationResponse wraps GeneratedReport.
type ReportGenerationResponse = Envelope[GeneratedReport]
