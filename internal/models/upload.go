package models

// UploadResponse is returned by /analysis/upload after the file has been
// imported and converted to parquet.
type UploadResponse struct {
	Message         string `json:"message"`
	FileName        string `json:"fileName"`
	RecordsImported int    `json:"recordsImported"`
	CSVPath         string `json:"csvPath"`
	ParquetPath     string `json:"parquetPath"`
}

// ClusterResponse is returned by /analysis/cluster. Older backends answer
// with a plain-text body, in which case only Message is populated.
type ClusterResponse struct {
	Message          string       `json:"message"`
	NumClusters      int          `json:"numClusters"`
	TotalCustomers   int          `json:"totalCustomers"`
	Segments         []SegmentDTO `json:"segments"`
	ProcessingTimeMs int64        `json:"processingTimeMs"`
}
