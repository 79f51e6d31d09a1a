package api

import (
	"context"
	"net/http"

	"github.com/zulandar/segdash/internal/models"
)

// TrainModel trains a prediction model over the clustered data.
func (c *Client) TrainModel(ctx context.Context, req models.TrainModelRequest) (*models.TrainedModel, error) {
	var out models.TrainModelResponse
	if err := c.doJSON(ctx, request{
		op: "trainModel", method: http.MethodPost, path: "/ml/train",
		body: req, fallback: "Failed to train model",
	}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Predict returns the segment predicted for one customer profile.
func (c *Client) Predict(ctx context.Context, req models.PredictRequest) (*models.Prediction, error) {
	var out models.PredictResponse
	if err := c.doJSON(ctx, request{
		op: "predictSegment", method: http.MethodPost, path: "/ml/predict",
		body: req, fallback: "Failed to predict segment",
	}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}
