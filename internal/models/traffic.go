package models

import "time"

// TrafficSnapshot is the synthetic city-wide traffic picture for one moment.
type TrafficSnapshot struct {
	Timestamp       time.Time `json:"timestamp"`
	TrafficFactor   float64   `json:"traffic_factor"`
	IncidentFactor  float64   `json:"incident_factor"`
	HourOfDay       int       `json:"hour_of_day"`
	IsPeakHour      bool      `json:"is_peak_hour"`
	WeatherFactor   float64   `json:"weather_factor"`
	Recommendations []string  `json:"recommendations"`
}
