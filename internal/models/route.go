package models

import "time"

// Route types returned in RouteResult.RouteType.
const (
	RouteTypeFast     = "fast"
	RouteTypeEco      = "eco"
	RouteTypeBalanced = "rl-optimized"
	RouteTypeOptimal  = "optimal"

	NoRouteFound = "no-route-found"
)

// OptimizeRequest is the body of POST /api/routes/optimize.
type OptimizeRequest struct {
	StartNode string `json:"start_node" validate:"required,max=32"`
	EndNode   string `json:"end_node" validate:"required,max=32,nefield=StartNode"`
	// Alpha weighs emissions against time. Nil means the default of 1.0;
	// the configured bounds are enforced by the service.
	Alpha *float64 `json:"alpha,omitempty"`
}

// RouteResult is one scored route between two locations.
type RouteResult struct {
	ID               string   `json:"id"`
	Path             []string `json:"path"`
	PathNames        []string `json:"path_names,omitempty"`
	TotalTime        float64  `json:"total_time"`
	TotalDistance    float64  `json:"total_distance"`
	TotalEmissions   float64  `json:"total_emissions"`
	GreenPointsScore int      `json:"green_points_score"`
	RouteType        string   `json:"route_type"`
	Alpha            float64  `json:"alpha"`
	ProcessingTimeMs float64  `json:"processing_time_ms"`
	CacheHit         bool     `json:"cache_hit"`
}

// OptimizeResponse wraps the ranked routes of one optimisation.
type OptimizeResponse struct {
	Routes                []RouteResult `json:"routes"`
	Recommendation        string        `json:"recommendation"`
	TotalProcessingTimeMs float64       `json:"total_processing_time_ms"`
	SustainabilityScore   int           `json:"sustainability_score"`
}

// LocationView is a routable location as listed by the API.
type LocationView struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

// ServiceMetrics is a point-in-time view of the optimiser's counters.
type ServiceMetrics struct {
	ServiceStatus         string  `json:"service_status"`
	TotalOptimizations    int64   `json:"total_optimizations"`
	AvgOptimizationTimeMs float64 `json:"avg_optimization_time_ms"`
	CacheHits             int64   `json:"cache_hits"`
	CacheMisses           int64   `json:"cache_misses"`
	CacheHitRate          float64 `json:"cache_hit_rate"`
	CacheSize             int     `json:"cache_size"`
	NodesCount            int     `json:"nodes_count"`
	LinksCount            int     `json:"links_count"`
	LiveTraffic           bool    `json:"live_traffic"`
}

// OptimizationRun is the audit record kept for every computed optimisation.
type OptimizationRun struct {
	ID               string    `json:"id"`
	StartNode        string    `json:"start_node"`
	EndNode          string    `json:"end_node"`
	Alpha            float64   `json:"alpha"`
	RouteCount       int       `json:"route_count"`
	Recommendation   string    `json:"recommendation"`
	BestPath         []string  `json:"best_path"`
	CacheHit         bool      `json:"cache_hit"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
