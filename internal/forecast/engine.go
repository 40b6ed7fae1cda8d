package forecast

import (
	"errors"
	"fmt"
)

const (
	// MinMonths is the history every forecast request needs before a method is chosen.
	MinMonths = 3

	seasonalMonths = 6
)

// Trend labels.
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// TrendLabel classifies a slope.
func TrendLabel(v float64) string {
	switch {
	case v > 0:
		return TrendUp
	case v < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}

// Select resolves a kind to a method for a history of n months.
// Auto picks seasonal decomposition from six months on, exponential smoothing below.
func Select(kind Kind, n int) Method {
	switch kind {
	case KindMovingAverage:
		return MovingAverage{Window: 3}
	case KindExponential:
		return ExponentialSmoothing{Alpha: 0.3}
	case KindSeasonal:
		return SeasonalDecomposition{}
	}
	if n >= seasonalMonths {
		return SeasonalDecomposition{}
	}
	return ExponentialSmoothing{Alpha: 0.3}
}

// runMethod runs the selected method, falling back from seasonal decomposition
// to exponential smoothing when its history requirement is unmet.
func runMethod(s Series, kind Kind, horizon int) (*Projection, error) {
	m := Select(kind, s.Len())
	p, err := m.Forecast(s, horizon)
	if err == nil {
		return p, nil
	}
	if m.Kind() == KindSeasonal && errors.Is(err, ErrInsufficientData) {
		return ExponentialSmoothing{Alpha: 0.3}.Forecast(s, horizon)
	}
	return nil, err
}

// HistoricalPoint is one observed month.
type HistoricalPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Result is a forecast ready to serve.
type Result struct {
	Metric          Metric             `json:"metric"`
	Historical      []HistoricalPoint  `json:"historical"`
	Forecast        []ForecastPoint    `json:"forecast"`
	Method          string             `json:"method"`
	LastActual      float64            `json:"lastActual"`
	ForecastAvg     float64            `json:"forecastAvg"`
	Trend           string             `json:"trend"`
	SeasonalIndices map[string]float64 `json:"seasonalIndices,omitempty"`
}

// Run forecasts horizon months of s with the given method kind.
func Run(s Series, metric Metric, kind Kind, horizon int) (*Result, error) {
	if s.Len() < MinMonths {
		return nil, fmt.Errorf("Run: %w", insufficient(MinMonths, s.Len()))
	}
	if horizon < 1 {
		return nil, fmt.Errorf("Run: horizon must be positive, got %d", horizon)
	}

	p, err := runMethod(s, kind, horizon)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	res := &Result{
		Metric:          metric,
		Historical:      make([]HistoricalPoint, s.Len()),
		Forecast:        p.Points,
		Method:          p.Method,
		LastActual:      s.Last().Value,
		Trend:           TrendLabel(p.Trend),
		SeasonalIndices: p.SeasonalIndices,
	}
	for i, pt := range s {
		res.Historical[i] = HistoricalPoint{Period: pt.Period, Value: pt.Value}
	}
	for _, f := range p.Points {
		res.ForecastAvg += f.Forecast
	}
	res.ForecastAvg /= float64(len(p.Points))

	return res, nil
}
