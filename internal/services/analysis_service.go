package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"foodinsight/internal/models/request_models"
	"foodinsight/internal/models/response_models"
	"foodinsight/pkg/metrics"
	"foodinsight/pkg/utils"
)

// Analyzer never fails: every problem is folded into the returned result's Failure kind.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string, body request_models.BodyMetrics) response_models.AnalysisResult
}

type AnalysisService struct {
	client   utils.VisionClientInterface
	provider string
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewAnalysisService(client utils.VisionClientInterface, provider string, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) Analyzer {
	return &AnalysisService{
		client:   client,
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		metrics:  m,
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, image []byte, mimeType string, body request_models.BodyMetrics) response_models.AnalysisResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.client.DescribeImage(ctx, buildAnalysisPrompt(body), mimeType, image)

	var res response_models.AnalysisResult
	if err != nil {
		kind := classifyAnalysisError(err)
		detail := ""
		if kind == response_models.AnalysisFailureConfig {
			detail = configFailureDetail(err)
		}
		res = response_models.FailedAnalysis(kind, detail)
		s.logger.Error("food analysis failed",
			zap.String("provider", s.provider),
			zap.String("failure", string(kind)),
			zap.Error(err))
	} else {
		res = utils.ParseAnalysis(text)
		if !res.OK() {
			s.logger.Warn("food analysis response not parseable", zap.String("provider", s.provider), zap.Int("length", len(text)))
		}
	}

	result := string(res.Failure)
	if res.OK() {
		result = "ok"
	}
	s.metrics.Analysis(s.provider, result)
	s.logger.Debug("food analysis finished", zap.String("result", result), zap.Duration("took", time.Since(start)))
	return res
}

func buildAnalysisPrompt(b request_models.BodyMetrics) string {
	return fmt.Sprintf(`Analyze this food image in detail:
1. Identify what food item(s) are in the image
2. Provide detailed nutritional information (calories, protein, carbs, fat, vitamins, etc.)
3. Assess if this food is suitable for a person with these health metrics:
   - Age: %d years
   - Gender: %s
   - Height: %g cm
   - Weight: %g kg
   - BMI: %.2f
4. Suggest a personalized diet plan related to this food
5. Provide a specific recommendation for improving nutrition

Format your response in JSON with these keys:
{"food_name": "Name of food",
 "nutrition": "Detailed HTML formatted nutritional breakdown with <ul> and <li> tags",
 "good_for_user": "Assessment of suitability for this user",
 "diet_plan": "Personalized diet plan",
 "recommendation": "Specific recommendation"}`, b.Age, b.Gender, b.Height, b.Weight, b.BMI)
}

func classifyAnalysisError(err error) response_models.AnalysisFailure {
	if errors.Is(err, utils.ErrAnalysisNotConfigured) {
		return response_models.AnalysisFailureConfig
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return response_models.AnalysisFailureConfig
		case 429:
			return response_models.AnalysisFailureQuota
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == 429 {
		return response_models.AnalysisFailureQuota
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return response_models.AnalysisFailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return response_models.AnalysisFailureNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") ||
		strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "permission denied"):
		return response_models.AnalysisFailureConfig
	case strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "resourceexhausted") || strings.Contains(msg, "rate limit"):
		return response_models.AnalysisFailureQuota
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "unavailable") || strings.Contains(msg, "timeout"):
		return response_models.AnalysisFailureNetwork
	default:
		return response_models.AnalysisFailureUnexpected
	}
}

func configFailureDetail(err error) string {
	if errors.Is(err, utils.ErrAnalysisNotConfigured) {
		// strip the sentinel prefix, keep the operator hint
		msg := err.Error()
		if i := strings.Index(msg, ": "); i >= 0 {
			return msg[i+2:]
		}
		return msg
	}
	return "Invalid or missing API key. Please check the analysis provider configuration."
}
