package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/choiwjun/chamgab-sub000/models"
	"github.com/choiwjun/chamgab-sub000/utils"
)

// MLClient calls the external success-probability model. Any failure
// (timeout, network, non-2xx, bad body) is reported as an error so the
// caller can substitute the rule-based predictor; no retries.
type MLClient struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewMLClient(baseURL string, timeout time.Duration) *MLClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &MLClient{
		BaseURL:    baseURL,
		Timeout:    timeout,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether an ML endpoint is configured at all.
func (c *MLClient) Enabled() bool {
	return c != nil && c.BaseURL != ""
}

type mlPredictionResponse struct {
	SuccessProbability   float64 `json:"success_probability"`
	Confidence           float64 `json:"confidence"`
	FeatureContributions []struct {
		Name       string  `json:"name"`
		Importance float64 `json:"importance"`
		Direction  string  `json:"direction"`
	} `json:"feature_contributions"`
}

func (c *MLClient) Predict(ctx context.Context, features models.PredictionFeatures) (*models.PredictionResult, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("ml request encode failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/api/business/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ml request build failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ml request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ml service returned status %d", resp.StatusCode)
	}

	var mlResp mlPredictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&mlResp); err != nil {
		return nil, fmt.Errorf("ml response decode failed: %v", err)
	}

	factors := make([]models.FactorContribution, 0, len(mlResp.FeatureContributions))
	for _, fc := range mlResp.FeatureContributions {
		direction := fc.Direction
		if direction != "positive" && direction != "negative" {
			if fc.Importance < 0 {
				direction = "negative"
			} else {
				direction = "positive"
			}
		}
		factors = append(factors, models.FactorContribution{
			Name:      FactorName(fc.Name),
			Impact:    utils.Round1(fc.Importance),
			Direction: direction,
		})
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return abs(factors[i].Impact) > abs(factors[j].Impact)
	})

	score := utils.Clamp(mlResp.SuccessProbability, 0, 100)
	return &models.PredictionResult{
		SuccessProbability: utils.Round1(score),
		Confidence:         utils.Round1(utils.Clamp(mlResp.Confidence, 0, 100)),
		Factors:            factors,
		Recommendation:     recommendationFor(score),
		Source:             "ml_model",
	}, nil
}
