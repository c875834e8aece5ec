package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/irfanhabeeb-002/foodshare/internal/model"
	"github.com/irfanhabeeb-002/foodshare/internal/repository"
)

// ProximityService answers "what can I claim near here". It reads the
// located, claimable, visible posts and applies a great-circle
// distance filter and ordering in memory; the data set is the posts a
// single user can see, which stays small enough that no spatial index
// is warranted.
type ProximityService struct {
	posts *repository.PostRepo
}

// NewProximityService constructs a ProximityService.
func NewProximityService(posts *repository.PostRepo) *ProximityService {
	if posts == nil {
		panic("nil repository passed to NewProximityService")
	}
	return &ProximityService{posts: posts}
}

// NearbyPost pairs a post with its distance from the query point.
type NearbyPost struct {
	model.FoodPost
	DistanceKm float64 `json:"distance_km"`
}

// Nearby returns the active, unexpired, visible-to-the-user posts
// whose location lies within radiusKm of (lat, lng), sorted ascending
// by distance with ties broken by most recent creation and then by
// descending ID. The boundary
// is inclusive at exactly radiusKm. Posts without a location are
// excluded, and an empty result is a valid answer, not an error.
func (s *ProximityService) Nearby(ctx context.Context, userID uint64, lat, lng, radiusKm float64) ([]NearbyPost, error) {
	posts, err := s.posts.ListLocated(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	nearby := make([]NearbyPost, 0, len(posts))
	for _, p := range posts {
		if !p.HasLocation() {
			continue
		}
		d := haversineKm(lat, lng, *p.Latitude, *p.Longitude)
		if d <= radiusKm {
			nearby = append(nearby, NearbyPost{FoodPost: p, DistanceKm: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		// DATETIME keeps one-second resolution, so equal timestamps
		// are common; the ID keeps the order stable across calls.
		if !nearby[i].CreatedAt.Equal(nearby[j].CreatedAt) {
			return nearby[i].CreatedAt.After(nearby[j].CreatedAt)
		}
		return nearby[i].ID > nearby[j].ID
	})
	return nearby, nil
}

// earthRadiusKm is the mean radius used by the haversine formula.
const earthRadiusKm = 6371.0

// haversineKm computes the great-circle distance between two
// coordinates in kilometers.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
