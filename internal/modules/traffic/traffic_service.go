package traffic

import (
	"context"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"eco-route-planner/internal/models"
)

const (
	rushLevel    = 0.7
	daytimeLevel = 0.5
	nightLevel   = 0.2
	defaultLevel = 0.3

	noiseStdDev   = 0.1
	incidentScale = 0.1
	minTraffic    = 0.1
	maxTraffic    = 1.0

	// neutral until a weather feed exists
	weatherFactor = 0.5

	highTrafficThreshold = 0.7
	incidentThreshold    = 0.5
)

// ServiceInterface produces the synthetic traffic picture consumed by the
// router and the API.
type ServiceInterface interface {
	Current(ctx context.Context) models.TrafficSnapshot
	SnapshotAt(t time.Time) models.TrafficSnapshot
}

type service struct {
	now func() time.Time
	loc *time.Location
}

// NewService builds a generator that reads wall-clock hours in loc (UTC when
// nil).
func NewService(loc *time.Location) ServiceInterface {
	if loc == nil {
		loc = time.UTC
	}
	return &service{now: time.Now, loc: loc}
}

func (s *service) Current(ctx context.Context) models.TrafficSnapshot {
	return s.SnapshotAt(s.now())
}

// SnapshotAt is deterministic per clock hour: the noise generator is seeded
// with the hour, so every call within one hour sees the same picture.
func (s *service) SnapshotAt(t time.Time) models.TrafficSnapshot {
	local := t.In(s.loc)
	hour := local.Hour()
	rng := rand.New(rand.NewSource(uint64(local.Truncate(time.Hour).Unix())))

	tf := clamp(baseLevel(hour)+rng.NormFloat64()*noiseStdDev, minTraffic, maxTraffic)
	incident := math.Min(maxTraffic, rng.ExpFloat64()*incidentScale)

	snap := models.TrafficSnapshot{
		Timestamp:      t,
		TrafficFactor:  round3(tf),
		IncidentFactor: round3(incident),
		HourOfDay:      hour,
		IsPeakHour:     isPeakHour(hour),
		WeatherFactor:  weatherFactor,
	}
	snap.Recommendations = recommendations(snap)
	return snap
}

// baseLevel is the expected congestion for an hour of the day.
func baseLevel(hour int) float64 {
	switch {
	case isPeakHour(hour):
		return rushLevel
	case hour >= 10 && hour <= 16:
		return daytimeLevel
	case hour >= 22 || hour <= 6:
		return nightLevel
	default:
		return defaultLevel
	}
}

func isPeakHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

func recommendations(s models.TrafficSnapshot) []string {
	var out []string
	if s.TrafficFactor > highTrafficThreshold {
		out = append(out, "High traffic detected - consider eco routes")
	}
	if s.IncidentFactor > incidentThreshold {
		out = append(out, "Traffic incidents reported - allow extra time")
	}
	if s.IsPeakHour {
		out = append(out, "Peak hour - eco routes may save time and emissions")
	}
	if len(out) == 0 {
		out = append(out, "Good traffic conditions - all route types available")
	}
	return out
}

// Multiplier converts a snapshot into the link traffic factor applied to the
// graph: 1 + traffic × sensitivity.
func Multiplier(s models.TrafficSnapshot, sensitivity float64) float64 {
	if sensitivity <= 0 {
		return 1
	}
	return 1 + s.TrafficFactor*sensitivity
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
