package trust

import (
	"log/slog"
	"math"
)

// Computes the weighted base score for a set of metrics. Order of the input
// is irrelevant. Each metric contributes clamp(value/maxValue, 0, 1) times
// its weight; the total is scaled against the sum of absolute weights so
// negative (inverse) weights pull the score down without breaking the scale.
//
// A metric with a zero or negative MaxValue is a configuration error: it is
// skipped and logged, and aggregation continues. No metrics (or all metrics
// skipped) yields the neutral default of 50.
//
// The result is intentionally not clamped here; CombineScore applies the
// single [0,100] saturation after the verification bonus is added.
func BaseScore(metrics []Metric) float64 {
	var contribution, totalWeight float64
	for _, m := range metrics {
		if m.MaxValue <= 0 {
			slog.Warn("skipping metric with invalid max value",
				"subject", m.SubjectID, "type", m.Type, "maxValue", m.MaxValue)
			continue
		}
		normalized := clamp(m.Value/m.MaxValue, 0, 1)
		contribution += normalized * m.Weight
		totalWeight += math.Abs(m.Weight)
	}
	if totalWeight == 0 {
		return DefaultScore
	}
	return 100 * contribution / totalWeight
}
