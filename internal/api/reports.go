package api

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/zulandar/segdash/internal/models"
)

// Download is a streamed binary response. The caller closes Body.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	FileName    string // from Content-Disposition, may be empty
	Size        int64  // -1 when unknown
}

// GenerateReport asks the backend to render a report.
func (c *Client) GenerateReport(ctx context.Context, reportType models.ReportType) (*models.GeneratedReport, error) {
	var out models.ReportGenerationResponse
	if err := c.doJSON(ctx, request{
		op: "generateReport", method: http.MethodPost, path: "/reports/generate",
		query: url.Values{"reportType": {string(reportType)}}, fallback: "Failed to generate report",
	}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// DownloadReport streams a generated report.
func (c *Client) DownloadReport(ctx context.Context, id string) (*Download, error) {
	resp, err := c.do(ctx, request{
		op: "downloadReport", method: http.MethodGet, path: "/reports/" + url.PathEscape(id),
		fallback: "Failed to download report",
	})
	if err != nil {
		return nil, err
	}
	d := &Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		d.FileName = params["filename"]
	}
	return d, nil
}
