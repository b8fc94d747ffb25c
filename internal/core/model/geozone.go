package model

import (
	"time"

	"github.com/google/uuid"
	geo "github.com/kellydunn/golang-geo"
)

// Zone shapes
const (
	ZoneCircle  = "circle"
	ZonePolygon = "polygon"
)

// Geozone is a geographic boundary owned by an account. Crossing it during
// ingestion synthesizes arrive/depart events.
type Geozone struct {
	ID          string   `json:"id"`
	AccountID   string   `json:"accountId"`
	Description string   `json:"description"`
	Type        string   `json:"type"` // ZoneCircle or ZonePolygon
	RadiusM     float64  `json:"radiusM,omitempty"`
	Points      []LatLon `json:"points"` // center for circles, vertices for polygons

	CreatedAt time.Time `json:"createdAt"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewGeozone(accountID, description, zoneType string) *Geozone {
	return &Geozone{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Description: description,
		Type:        zoneType,
		CreatedAt:   time.Now().UTC(),
	}
}

// Contains reports whether the point lies inside the zone boundary.
func (z *Geozone) Contains(lat, lon float64) bool {
	if len(z.Points) == 0 {
		return false
	}
	p := geo.NewPoint(lat, lon)
	switch z.Type {
	case ZonePolygon:
		poly := geo.Polygon{}
		for _, v := range z.Points {
			poly.Add(geo.NewPoint(v.Lat, v.Lon))
		}
		return poly.Contains(p)
	default: // circle
		center := geo.NewPoint(z.Points[0].Lat, z.Points[0].Lon)
		return center.GreatCircleDistance(p)*1000.0 <= z.RadiusM
	}
}

// GeozoneTransition is the ephemeral record of one boundary crossing,
// produced by the geozone simulator and consumed within the same ingest
// call; the orchestrator derives a persisted Event from it.
type GeozoneTransition struct {
	Timestamp  int64
	StatusCode int
	Zone       *Geozone
	Arrive     bool
}

// DistanceKM returns the great-circle distance between two points in km.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.NewPoint(lat1, lon1).GreatCircleDistance(geo.NewPoint(lat2, lon2))
}
