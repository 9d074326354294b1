package model

import "fmt"

type DayTime uint8

const (
	Morning DayTime = iota
	Afternoon
	Night
)

func (d DayTime) String() string {
	switch d {
	case Morning:
		return "MORNING"
	case Afternoon:
		return "AFTERNOON"
	}
	return "NIGHT"
}

// DayTimeAt maps an hour of the day (0..23) to its half-day phase.
func DayTimeAt(hour int) DayTime {
	switch {
	case hour >= 6 && hour < 12:
		return Morning
	case hour >= 12 && hour < 18:
		return Afternoon
	}
	return Night
}

type Weather uint8

const (
	Sunny Weather = iota
	Rainy
	Foggy
	Snow
	Monsoon
)

var weatherNames = [...]string{
	Sunny:   "SUNNY",
	Rainy:   "RAINY",
	Foggy:   "FOGGY",
	Snow:    "SNOW",
	Monsoon: "MONSOON",
}

func (w Weather) String() string {
	if int(w) < len(weatherNames) {
		return weatherNames[w]
	}
	return "UNKNOWN"
}

func (w Weather) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *Weather) UnmarshalText(b []byte) error {
	v, err := ParseWeather(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

func ParseWeather(s string) (Weather, error) {
	for i, n := range weatherNames {
		if n == s {
			return Weather(i), nil
		}
	}
	return Sunny, fmt.Errorf("unknown weather %q", s)
}

func (w Weather) Hazardous() bool { return w == Snow || w == Monsoon }

// Conditions is the environment reported with every clock change.
type Conditions struct {
	Day     int     `json:"day"`
	Hour    int     `json:"hour"`
	Minute  int     `json:"minute"`
	DayTime DayTime `json:"day_time"`
	Weather Weather `json:"weather"`
	// Forecast[i] is the scheduled weather for day Day+1+i.
	Forecast []Weather `json:"forecast,omitempty"`
}
