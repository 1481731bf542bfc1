package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"eco-route-planner/internal/models"
)

func printRoutes(w io.Writer, start, end string, alpha float64, routes []models.RouteResult) {
	fmt.Fprintf(w, "Routes %s -> %s (alpha %.2f)\n", start, end, alpha)
	if len(routes) == 0 {
		fmt.Fprintln(w, "  no route found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tPATH\tTIME (min)\tDIST (km)\tCO2 (g)\tSCORE")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%d\n",
			r.RouteType, strings.Join(r.Path, " > "),
			r.TotalTime, r.TotalDistance, r.TotalEmissions, r.GreenPointsScore)
	}
	tw.Flush()
}

func printLocations(w io.Writer, locs []models.LocationView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLAT\tLNG")
	for _, l := range locs {
		lat, lng := "-", "-"
		if l.Lat != nil && l.Lng != nil {
			lat, lng = fmt.Sprintf("%.4f", *l.Lat), fmt.Sprintf("%.4f", *l.Lng)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.ID, l.Name, lat, lng)
	}
	tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
