package analysis_fx

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"foodinsight/internal/config"
	"foodinsight/internal/services"
	"foodinsight/pkg/metrics"
	"foodinsight/pkg/utils"
)

var Module = fx.Provide(
	provideVisionClient,
	provideAnalyzer)

// provideVisionClient picks the model client for ANALYSIS_PROVIDER. A missing API key is not
// fatal: every analysis then reports a configuration failure to the user.
func provideVisionClient(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (utils.VisionClientInterface, error) {
	apiKey, model := cfg.Analysis.GeminiAPIKey, cfg.Analysis.GeminiModel
	if strings.EqualFold(cfg.Analysis.Provider, config.AnalysisProviderOpenAI) {
		apiKey, model = cfg.Analysis.OpenAIAPIKey, cfg.Analysis.OpenAIModel
	}
	if apiKey == "" {
		logger.Warn("analysis API key missing; food analysis will report a configuration error",
			zap.String("provider", cfg.Analysis.Provider))
	}

	client, err := utils.NewVisionClient(context.Background(), cfg.Analysis.Provider, apiKey, model)
	if err != nil {
		return nil, err
	}
	logger.Info("initialized vision client", zap.String("provider", cfg.Analysis.Provider), zap.String("model", model))

	lc.Append(fx.StopHook(client.Close))
	return client, nil
}

func provideAnalyzer(cfg *config.Config, client utils.VisionClientInterface, logger *zap.Logger, m *metrics.Metrics) services.Analyzer {
	return services.NewAnalysisService(client, strings.ToLower(cfg.Analysis.Provider), cfg.Analysis.Timeout, logger, m)
}
