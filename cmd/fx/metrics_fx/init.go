package metrics_fx

import (
	"go.uber.org/fx"

	"foodinsight/pkg/metrics"
)

var Module = fx.Provide(metrics.New)
