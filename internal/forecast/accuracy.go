package forecast

import (
	"fmt"
	"math"
)

// MaxHoldout is the largest supported holdout.
const MaxHoldout = 3

// AccuracyMetrics are the backtest error measures.
// MAPE divides by 1 for months whose actual is 0, which understates error on sparse series.
type AccuracyMetrics struct {
	MAE  float64 `json:"MAE"`
	RMSE float64 `json:"RMSE"`
	MAPE float64 `json:"MAPE"`
}

// AccuracyDetail compares one held-out month.
type AccuracyDetail struct {
	Period    string  `json:"period"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	Error     float64 `json:"error"`
	AbsError  float64 `json:"absError"`
}

// AccuracyResult is the outcome of a holdout backtest.
type AccuracyResult struct {
	Metric  Metric           `json:"metric"`
	Product string           `json:"product,omitempty"`
	Method  string           `json:"method"`
	Holdout int              `json:"holdout"`
	Metrics AccuracyMetrics  `json:"metrics"`
	Details []AccuracyDetail `json:"details"`
}

// Accuracy trains on all but the last holdout months of s and scores the
// forecast of those months against what actually happened.
func Accuracy(s Series, metric Metric, kind Kind, holdout int) (*AccuracyResult, error) {
	if holdout < 1 || holdout > MaxHoldout {
		return nil, fmt.Errorf("Accuracy: holdout must be between 1 and %d, got %d", MaxHoldout, holdout)
	}
	if s.Len() < MinMonths+holdout {
		return nil, fmt.Errorf("Accuracy: %w", insufficient(MinMonths+holdout, s.Len()))
	}

	train := s[:s.Len()-holdout]
	test := s[s.Len()-holdout:]

	p, err := runMethod(train, kind, holdout)
	if err != nil {
		return nil, fmt.Errorf("Accuracy: forecasting training window: %w", err)
	}

	predicted := make(map[string]float64, len(p.Points))
	for _, f := range p.Points {
		predicted[f.Period] = f.Forecast
	}

	res := &AccuracyResult{
		Metric:  metric,
		Method:  p.Method,
		Holdout: holdout,
		Details: make([]AccuracyDetail, len(test)),
	}
	var absSum, sqSum, pctSum float64
	for i, actual := range test {
		yhat := predicted[actual.Period]
		diff := actual.Value - yhat
		res.Details[i] = AccuracyDetail{
			Period:    actual.Period,
			Actual:    actual.Value,
			Predicted: yhat,
			Error:     diff,
			AbsError:  math.Abs(diff),
		}
		denom := actual.Value
		if denom == 0 {
			denom = 1
		}
		absSum += math.Abs(diff)
		sqSum += diff * diff
		pctSum += math.Abs(diff / denom)
	}

	n := float64(len(test))
	res.Metrics = AccuracyMetrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
		MAPE: pctSum / n * 100,
	}
	return res, nil
}
