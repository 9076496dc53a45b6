package diagnosis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// PredictRequest body sent to the model service. Gender uses the training labels.
type PredictRequest struct {
	AgeMonths    int     `json:"age_months"`
	BodyLengthCm float64 `json:"body_length_cm"`
	BodyWeightKg float64 `json:"body_weight_kg"`
	Gender       string  `json:"gender"`
}

// PredictResponse prediction is either a label ("Stunted") or a numeric code (-1).
type PredictResponse struct {
	Prediction json.RawMessage `json:"prediction"`
	Error      string          `json:"error,omitempty"`
}

// HTTPClassifier calls a model service over HTTP
type HTTPClassifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPClassifier retryCount 0 disables resty retries.
func NewHTTPClassifier(baseURL string, timeout time.Duration, retryCount int, logger *zap.Logger) *HTTPClassifier {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPClassifier{
		httpClient: client,
		logger:     logger,
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, in domain.ClinicalInput) (domain.StuntingStatus, error) {
	request := PredictRequest{
		AgeMonths:    in.AgeMonths,
		BodyLengthCm: in.BodyLengthCm,
		BodyWeightKg: in.BodyWeightKg,
		Gender:       in.Gender.Text(),
	}

	var response PredictResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		SetError(&response).
		Post("/predict")
	if err != nil {
		c.logger.Error("Classifier call failed", zap.Error(err))
		return "", fmt.Errorf("failed to call classifier: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Classifier returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", response.Error),
		)
		return "", fmt.Errorf("classifier error: status %d %s", resp.StatusCode(), response.Error)
	}

	status, err := parsePrediction(response.Prediction)
	if err != nil {
		c.logger.Error("Classifier returned unusable prediction",
			zap.ByteString("prediction", response.Prediction),
			zap.Error(err),
		)
		return "", err
	}
	return status, nil
}

func parsePrediction(raw json.RawMessage) (domain.StuntingStatus, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty prediction")
	}
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		return domain.ParseStuntingStatus(label)
	}
	var code float64
	if err := json.Unmarshal(raw, &code); err == nil {
		if code != float64(int(code)) {
			return "", fmt.Errorf("non-integer prediction code %v", code)
		}
		return domain.ParseStuntingStatus(fmt.Sprintf("%d", int(code)))
	}
	return "", fmt.Errorf("unsupported prediction %s", string(raw))
}
