package models

// TrainModelRequest is the body of POST /ml/train.
type TrainModelRequest struct {
	ModelName string   `json:"modelName"`
	Features  []string `json:"features"`
}

// TrainedModel describes a model produced by /ml/train.
type TrainedModel struct {
	ModelID          string  `json:"modelId"`
	ModelName        string  `json:"modelName"`
	TrainingDataSize int     `json:"trainingDataSize"`
	NumSegments      int     `json:"numSegments"`
	Accuracy         float64 `json:"accuracy"`
	ModelPath        string  `json:"modelPath"`
	TrainedAt        string  `json:"trainedAt"`
	TrainingTimeMs   int64   `json:"trainingTimeMs"`
}

// TrainModelResponse wraps TrainedModel.
type TrainModelResponse = Envelope[TrainedModel]

// PredictRequest describes one customer to classify. Income is required;
// the remaining fields are sent only when set.
type PredictRequest struct {
	Income              float64  `json:"income"`
	MntWines            *float64 `json:"mntWines,omitempty"`
	MntFruits           *float64 `json:"mntFruits,omitempty"`
	MntMeatProducts     *float64 `json:"mntMeatProducts,omitempty"`
	MntFishProducts     *float64 `json:"mntFishProducts,omitempty"`
	MntSweetProducts    *float64 `json:"mntSweetProducts,omitempty"`
	MntGoldProds        *float64 `json:"mntGoldProds,omitempty"`
	NumWebPurchases     *float64 `json:"numWebPurchases,omitempty"`
	NumCatalogPurchases *float64 `json:"numCatalogPurchases,omitempty"`
	NumStorePurchases   *float64 `json:"numStorePurchases,omitempty"`
	AcceptedCmp1        *float64 `json:"acceptedCmp1,omitempty"`
	AcceptedCmp2        *float64 `json:"acceptedCmp2,omitempty"`
	AcceptedCmp3        *float64 `json:"acceptedCmp3,omitempty"`
	AcceptedCmp4        *float64 `json:"acceptedCmp4,omitempty"`
	AcceptedCmp5        *float64 `json:"acceptedCmp5,omitempty"`
}

// PredictOptionalFields lists the JSON names of the optional PredictRequest
// fields in display order.
var PredictOptionalFields = []string{
	"mntWines", "mntFruits", "mntMeatProducts", "mntFishProducts", "mntSweetProducts", "mntGoldProds",
	"numWebPurchases", "numCatalogPurchases", "numStorePurchases",
	"acceptedCmp1", "acceptedCmp2", "acceptedCmp3", "acceptedCmp4", "acceptedCmp5",
}

// SetOptional assigns an optional field by its JSON name. It reports false
// for unknown names.
func (r *PredictRequest) SetOptional(name string, v float64) bool {
	var dst **float64
	switch name {
	case "mntWines":
		dst = &r.MntWines
	case "mntFruits":
		dst = &r.MntFruits
	case "mntMeatProducts":
		dst = &r.MntMeatProducts
	case "mntFishProducts":
		dst = &r.MntFishProducts
	case "mntSweetProducts":
		dst = &r.MntSweetProducts
	case "mntGoldProds":
		dst = &r.MntGoldProds
	case "numWebPurchases":
		dst = &r.NumWebPurchases
	case "numCatalogPurchases":
		dst = &r.NumCatalogPurchases
	case "numStorePurchases":
		dst = &r.NumStorePurchases
	case "acceptedCmp1":
		dst = &r.AcceptedCmp1
	case "acceptedCmp2":
		dst = &r.AcceptedCmp2
	case "acceptedCmp3":
		dst = &r.AcceptedCmp3
	case "acceptedCmp4":
		dst = &r.AcceptedCmp4
	case "acceptedCmp5":
		dst = &r.AcceptedCmp5
	default:
		return false
	}
	*dst = &v
	return true
}

// Probabilities holds the per-segment distance and probability maps.
type Probabilities struct {
	Distances map[string]float64 `json:"distances"`
	Segments  map[string]float64 `json:"segments"`
}

// Prediction is the result of /ml/predict.
type Prediction struct {
	PredictionID       string             `json:"predictionId"`
	PredictedSegment   int                `json:"predictedSegment"`
	SegmentName        string             `json:"segmentName"`
	SegmentDescription string             `json:"segmentDescription"`
	Confidence         float64            `json:"confidence"`
	Probabilities      Probabilities      `json:"probabilities"`
	FeatureImportance  map[string]float64 `json:"featureImportance"`
	PredictedAt        string             `json:"predictedAt"`
	Recommendation     string             `json:"recommendation"`
}

// PredictResponse wraps Prediction.
type PredictResponse = Envelope[Prediction]
