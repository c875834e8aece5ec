package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// locatedPost creates a public post at the given coordinates.
func (e *testEnv) locatedPost(t *testing.T, owner uint64, title string, lat, lng float64) uint64 {
	t.Helper()
	post, err := e.reservations.CreatePost(context.Background(), owner, PostInput{
		Title:          title,
		Latitude:       &lat,
		Longitude:      &lng,
		TotalCount:     2,
		AvailableUntil: postWindow(),
	})
	require.NoError(t, err)
	return post.ID
}

// TestHaversine_KnownDistance checks the formula against a surveyed
// city pair. Berlin to Potsdam is roughly 26 km.
func TestHaversine_KnownDistance(t *testing.T) {
	d := haversineKm(52.5200, 13.4050, 52.3906, 13.0645)
	assert.InDelta(t, 27.0, d, 2.0)

	// Zero distance for identical points.
	assert.Zero(t, haversineKm(48.8566, 2.3522, 48.8566, 2.3522))
}

// TestNearby_FiltersByRadius includes a close post and drops a distant
// one. One degree of latitude is about 111 km.
func TestNearby_FiltersByRadius(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	viewer := env.newUser(t)

	const lat, lng = 52.5200, 13.4050
	closeID := env.locatedPost(t, owner, "close", lat+0.02, lng)       // ~2.2 km
	env.locatedPost(t, owner, "far", lat+0.10, lng)                    // ~11 km
	env.newPost(t, owner, 2)                                           // no location

	posts, err := env.proximity.Nearby(ctx, viewer, lat, lng, 5.0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, closeID, posts[0].ID)
	assert.InDelta(t, 2.2, posts[0].DistanceKm, 0.2)
}

// TestNearby_BoundaryInclusive admits a post at exactly the radius.
func TestNearby_BoundaryInclusive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	viewer := env.newUser(t)

	const lat, lng = 40.0, -74.0
	const pLat, pLng = 40.05, -74.0
	env.locatedPost(t, owner, "edge", pLat, pLng)

	exact := haversineKm(lat, lng, pLat, pLng)
	posts, err := env.proximity.Nearby(ctx, viewer, lat, lng, exact)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, err = env.proximity.Nearby(ctx, viewer, lat, lng, exact*0.999)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

// TestNearby_SortsByDistance orders nearest first.
func TestNearby_SortsByDistance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	viewer := env.newUser(t)

	const lat, lng = 52.5200, 13.4050
	farID := env.locatedPost(t, owner, "farther", lat+0.03, lng)
	nearID := env.locatedPost(t, owner, "nearer", lat+0.01, lng)

	posts, err := env.proximity.Nearby(ctx, viewer, lat, lng, 10.0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, nearID, posts[0].ID)
	assert.Equal(t, farID, posts[1].ID)
	assert.Less(t, posts[0].DistanceKm, posts[1].DistanceKm)
}

// TestNearby_ExcludesUnclaimable drops expired and exhausted posts
// even inside the radius.
func TestNearby_ExcludesUnclaimable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	viewer := env.newUser(t)

	const lat, lng = 52.5200, 13.4050
	expiredID := env.locatedPost(t, owner, "expired", lat, lng)
	_, err := env.db.Exec(`UPDATE food_posts SET available_until = ? WHERE id = ?`,
		time.Now().UTC().Add(-time.Minute).Format("2006-01-02 15:04:05"), expiredID)
	require.NoError(t, err)

	goneID := env.locatedPost(t, owner, "gone", lat, lng)
	_, err = env.reservations.Claim(ctx, goneID, env.newUser(t))
	require.NoError(t, err)
	_, err = env.reservations.Claim(ctx, goneID, env.newUser(t))
	require.NoError(t, err)

	posts, err := env.proximity.Nearby(ctx, viewer, lat, lng, 5.0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

// TestNearby_SameInstantTieBreak pins two equidistant posts to the
// same creation timestamp; the newer row, by ID, must come first.
func TestNearby_SameInstantTieBreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.newUser(t)
	viewer := env.newUser(t)

	const lat, lng = 52.5200, 13.4050
	firstID := env.locatedPost(t, owner, "first", lat+0.01, lng)
	secondID := env.locatedPost(t, owner, "second", lat+0.01, lng)

	stamp := time.Now().UTC().Format("2006-01-02 15:04:05")
	_, err := env.db.Exec(`UPDATE food_posts SET created_at = ? WHERE id IN (?, ?)`,
		stamp, firstID, secondID)
	require.NoError(t, err)

	posts, err := env.proximity.Nearby(ctx, viewer, lat, lng, 10.0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, secondID, posts[0].ID)
	assert.Equal(t, firstID, posts[1].ID)
	assert.Equal(t, posts[0].DistanceKm, posts[1].DistanceKm)
}
