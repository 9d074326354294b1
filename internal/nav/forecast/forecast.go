// Package forecast predicts weather from the conditions the world reports.
package forecast

import (
	"errors"

	"pioneer.ai/internal/sim/model"
)

var (
	ErrNoData        = errors.New("no conditions observed yet")
	ErrOutOfRange    = errors.New("prediction beyond the known forecast")
	ErrNegativeAhead = errors.New("hours ahead must not be negative")
)

type Forecaster struct {
	last *model.Conditions
}

func New() *Forecaster { return &Forecaster{} }

// Observe records the latest conditions; call it on every time change.
func (f *Forecaster) Observe(c model.Conditions) {
	cc := c
	cc.Forecast = append([]model.Weather(nil), c.Forecast...)
	f.last = &cc
}

// Predict returns the weather expected hoursAhead from the last observation.
func (f *Forecaster) Predict(hoursAhead int) (model.Weather, error) {
	if hoursAhead < 0 {
		return model.Sunny, ErrNegativeAhead
	}
	if f.last == nil {
		return model.Sunny, ErrNoData
	}
	days := (f.last.Hour + hoursAhead) / 24
	if days == 0 {
		return f.last.Weather, nil
	}
	if days > len(f.last.Forecast) {
		return model.Sunny, ErrOutOfRange
	}
	return f.last.Forecast[days-1], nil
}
