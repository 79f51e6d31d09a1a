package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/zulandar/segdash/internal/models"
)

// fileQuery builds the optional fileName filter.
func fileQuery(fileName string) url.Values {
	if fileName == "" {
		return nil
	}
	return url.Values{"fileName": {fileName}}
}

// Segments lists the segments of fileName, or of every file when empty.
func (c *Client) Segments(ctx context.Context, fileName string) ([]models.SegmentDTO, error) {
	var out []models.SegmentDTO
	err := c.doJSON(ctx, request{
		op: "getSegments", method: http.MethodGet, path: "/analysis/segments",
		query: fileQuery(fileName), fallback: "Failed to fetch segments",
	}, &out)
	return out, err
}

// Insights lists the marketing insights of fileName.
func (c *Client) Insights(ctx context.Context, fileName string) ([]models.InsightDTO, error) {
	var out []models.InsightDTO
	err := c.doJSON(ctx, request{
		op: "getInsights", method: http.MethodGet, path: "/analysis/insights",
		query: fileQuery(fileName), fallback: "Failed to fetch insights",
	}, &out)
	return out, err
}

// Dashboard returns the dashboard aggregates of fileName.
func (c *Client) Dashboard(ctx context.Context, fileName string) (*models.DashboardDTO, error) {
	var out models.DashboardDTO
	if err := c.doJSON(ctx, request{
		op: "getDashboard", method: http.MethodGet, path: "/analysis/dashboard",
		query: fileQuery(fileName), fallback: "Failed to fetch dashboard data",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Customers lists customers matching f. Unset filter fields are omitted from
// the query.
func (c *Client) Customers(ctx context.Context, f models.CustomerFilter) ([]models.CustomerDTO, error) {
	q := url.Values{}
	if f.Segment != nil {
		q.Set("segment", strconv.Itoa(*f.Segment))
	}
	if f.MaritalStatus != "" {
		q.Set("maritalStatus", f.MaritalStatus)
	}
	if f.FileName != "" {
		q.Set("fileName", f.FileName)
	}
	var out []models.CustomerDTO
	err := c.doJSON(ctx, request{
		op: "getCustomers", method: http.MethodGet, path: "/analysis/customers",
		query: q, fallback: "Failed to fetch customers",
	}, &out)
	return out, err
}

// Customer returns one customer.
func (c *Client) Customer(ctx context.Context, id int) (*models.CustomerDTO, error) {
	var out models.CustomerDTO
	if err := c.doJSON(ctx, request{
		op: "getCustomerById", method: http.MethodGet, path: "/analysis/customers/" + strconv.Itoa(id),
		fallback: "Failed to fetch customer",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Files lists the names of uploaded files.
func (c *Client) Files(ctx context.Context) ([]string, error) {
	var out []string
	err := c.doJSON(ctx, request{
		op: "getFiles", method: http.MethodGet, path: "/analysis/files",
		fallback: "Failed to fetch files",
	}, &out)
	return out, err
}

// Upload sends a CSV or JSON dataset as multipart field "file". The reader is
// consumed once; uploads are never retried.
func (c *Client) Upload(ctx context.Context, name, contentType string, r io.Reader) (*models.UploadResponse, error) {
	var out models.UploadResponse
	if err := c.doJSON(ctx, request{
		op: "uploadFile", method: http.MethodPost, path: "/analysis/upload",
		file:     &filePart{name: name, contentType: contentType, r: r},
		fallback: "Failed to upload file",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cluster runs segmentation over an uploaded parquet file. The backend may
// answer with JSON or with a plain-text confirmation.
func (c *Client) Cluster(ctx context.Context, parquetPath string, numClusters int) (*models.ClusterResponse, error) {
	q := url.Values{}
	q.Set("parquetPath", parquetPath)
	q.Set("numClusters", strconv.Itoa(numClusters))
	req := request{
		op: "clusterData", method: http.MethodPost, path: "/analysis/cluster",
		query: q, fallback: "Failed to cluster data",
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: req.op, Message: req.fallback, Err: err}
	}

	out := &models.ClusterResponse{NumClusters: numClusters}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, out); err != nil {
			return nil, &Error{Kind: KindDecode, Op: req.op, Message: req.fallback, Err: err}
		}
		return out, nil
	}
	out.Message = strings.TrimSpace(string(trimmed))
	return out, nil
}
