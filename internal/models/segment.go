package models

// SegmentDTO summarises one cluster produced by the backend.
type SegmentDTO struct {
	SegmentID          int            `json:"segmentId"`
	SegmentName        string         `json:"segmentName"`
	Description        string         `json:"description"`
	CustomerCount      int            `json:"customerCount"`
	AvgIncome          float64        `json:"avgIncome"`
	AvgSpending        float64        `json:"avgSpending"`
	AvgMntWines        float64        `json:"avgMntWines"`
	AvgNumWebPurchases float64        `json:"avgNumWebPurchases"`
	ResponseRate       float64        `json:"responseRate"`
	FileName           string         `json:"fileName"`
	Characteristics    map[string]any `json:"characteristics,omitempty"`
}

// InsightDTO is the marketing strategy generated for a segment.
type InsightDTO struct {
	SegmentID       int                `json:"segmentId"`
	SegmentName     string             `json:"segmentName,omitempty"`
	FileName        string             `json:"fileName"`
	Strategy        string             `json:"strategy"`
	Characteristics string             `json:"characteristics"`
	Recommendations []string           `json:"recommendations"`
	KeyMetrics      map[string]float64 `json:"keyMetrics,omitempty"`
}

// DashboardDTO holds the aggregates shown on the dashboard page. The
// distribution maps are keyed by segment id.
type DashboardDTO struct {
	FileName               string                 `json:"fileName"`
	TotalCustomers         int                    `json:"totalCustomers"`
	AvgSpending            float64                `json:"avgSpending"`
	MarketingResponseRate  float64                `json:"marketingResponseRate"`
	SegmentDistribution    map[int]int            `json:"segmentDistribution"`
	IncomeBySegment        map[string]map[int]int `json:"incomeBySegment"`
	EducationBySegment     map[string]map[int]int `json:"educationBySegment"`
	MaritalStatusBySegment map[string]map[int]int `json:"maritalStatusBySegment"`
	TopSegments            []SegmentDTO           `json:"topSegments"`
}
