package forecast

import (
	"math"
	"strconv"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pharmainsight/internal/domain"
)

// Kind names a forecasting method as accepted from callers.
type Kind string

const (
	KindAuto          Kind = "auto"
	KindMovingAverage Kind = "moving_average"
	KindExponential   Kind = "exponential"
	KindSeasonal      Kind = "seasonal"
)

// ParseKind validates a method name. An empty name means auto.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case "":
		return KindAuto, true
	case KindAuto, KindMovingAverage, KindExponential, KindSeasonal:
		return k, true
	}
	return "", false
}

// Point forecast bands.
const (
	smoothBand   = 0.15
	seasonalBand = 0.20
)

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Period   string  `json:"period"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Projection is the output of one method run.
type Projection struct {
	Method          string             // display name
	Points          []ForecastPoint    // one per future month
	Trend           float64            // slope or trailing delta used for the trend label
	SeasonalIndices map[string]float64 // calendar month -> index, seasonal method only
}

// Method projects a monthly series forward.
// A method whose history requirement is unmet returns an InsufficientDataError.
type Method interface {
	Kind() Kind
	Name() string
	MinHistory() int
	Forecast(s Series, horizon int) (*Projection, error)
}

// project steps forward from the last period of s, one point per month.
// estimate receives the 1-based step and the target month.
func project(s Series, horizon int, band float64, estimate func(step int, target civil.Date) float64) []ForecastPoint {
	last := s.Last().Date
	points := make([]ForecastPoint, horizon)
	for i := 0; i < horizon; i++ {
		target := domain.AddMonths(last, i+1)
		v := math.Max(0, estimate(i+1, target))
		points[i] = ForecastPoint{
			Period:   domain.PeriodKey(target),
			Forecast: v,
			Lower:    math.Max(0, v*(1-band)),
			Upper:    v * (1 + band),
		}
	}
	return points
}

// MovingAverage extends the last rolling mean by its most recent change.
type MovingAverage struct {
	Window int
}

func (m MovingAverage) window() int {
	if m.Window <= 0 {
		return 3
	}
	return m.Window
}

func (m MovingAverage) Kind() Kind { return KindMovingAverage }
func (m MovingAverage) Name() string { return "Moving Average" }
func (m MovingAverage) MinHistory() int { return max(3, m.window()) }

func (m MovingAverage) Forecast(s Series, horizon int) (*Projection, error) {
	if s.Len() < m.MinHistory() {
		return nil, insufficient(m.MinHistory(), s.Len())
	}

	values := s.Values()
	w := m.window()
	mean := func(end int) float64 {
		var sum float64
		for _, v := range values[end-w : end] {
			sum += v
		}
		return sum / float64(w)
	}

	n := len(values)
	last := mean(n)
	var trend float64
	if n > w {
		trend = last - mean(n-1)
	}

	return &Projection{
		Method: m.Name(),
		Points: project(s, horizon, smoothBand, func(step int, _ civil.Date) float64 {
			return last + trend*float64(step)
		}),
		Trend: trend,
	}, nil
}

// ExponentialSmoothing extends the last exponentially weighted mean by its one-step delta.
type ExponentialSmoothing struct {
	Alpha float64
}

func (e ExponentialSmoothing) alpha() float64 {
	if e.Alpha <= 0 || e.Alpha > 1 {
		return 0.3
	}
	return e.Alpha
}

func (e ExponentialSmoothing) Kind() Kind { return KindExponential }
func (e ExponentialSmoothing) Name() string { return "Exponential Smoothing" }
func (e ExponentialSmoothing) MinHistory() int { return 3 }

func (e ExponentialSmoothing) Forecast(s Series, horizon int) (*Projection, error) {
	if s.Len() < e.MinHistory() {
		return nil, insufficient(e.MinHistory(), s.Len())
	}

	a := e.alpha()
	values := s.Values()
	ema := values[0]
	prev := ema
	for _, v := range values[1:] {
		prev = ema
		ema = a*v + (1-a)*ema
	}
	trend := ema - prev

	return &Projection{
		Method: e.Name(),
		Points: project(s, horizon, smoothBand, func(step int, _ civil.Date) float64 {
			return ema + trend*float64(step)
		}),
		Trend: trend,
	}, nil
}

// SeasonalDecomposition fits a linear trend to deseasonalized values and
// re-applies the calendar-month index of each target month.
type SeasonalDecomposition struct{}

func (SeasonalDecomposition) Kind() Kind { return KindSeasonal }
func (SeasonalDecomposition) Name() string { return "Seasonal Decomposition" }
func (SeasonalDecomposition) MinHistory() int { return 6 }

func (d SeasonalDecomposition) Forecast(s Series, horizon int) (*Projection, error) {
	if s.Len() < d.MinHistory() {
		return nil, insufficient(d.MinHistory(), s.Len())
	}

	indices := seasonalIndices(s)

	n := float64(s.Len())
	var xMean, yMean float64
	deseasonalized := make([]float64, s.Len())
	for i, p := range s {
		idx := indices[p.Date.Month]
		if idx == 0 {
			idx = 1
		}
		deseasonalized[i] = p.Value / idx
		xMean += float64(i)
		yMean += deseasonalized[i]
	}
	xMean /= n
	yMean /= n

	var num, denom float64
	for i, y := range deseasonalized {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		denom += dx * dx
	}
	var slope float64
	if denom != 0 {
		slope = num / denom
	}
	intercept := yMean - slope*xMean
	lastT := s.Len() - 1

	reported := make(map[string]float64, len(indices))
	for month, idx := range indices {
		reported[strconv.Itoa(int(month))] = math.Round(idx*100) / 100
	}

	return &Projection{
		Method: d.Name(),
		Points: project(s, horizon, seasonalBand, func(step int, target civil.Date) float64 {
			idx, ok := indices[target.Month]
			if !ok {
				idx = 1
			}
			return (intercept + slope*float64(lastT+step)) * idx
		}),
		Trend:           slope,
		SeasonalIndices: reported,
	}, nil
}

// seasonalIndices divides each calendar month's mean value by the overall mean.
// A zero overall mean is treated as 1.
func seasonalIndices(s Series) map[time.Month]float64 {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	var total float64
	for _, p := range s {
		sums[p.Date.Month] += p.Value
		counts[p.Date.Month]++
		total += p.Value
	}
	overall := total / float64(s.Len())
	if overall == 0 || math.IsNaN(overall) || math.IsInf(overall, 0) {
		overall = 1
	}

	indices := make(map[time.Month]float64, len(sums))
	for month, sum := range sums {
		idx := sum / float64(counts[month]) / overall
		if math.IsNaN(idx) || math.IsInf(idx, 0) {
			idx = 1
		}
		indices[month] = idx
	}
	return indices
}
