package recycling

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riy-server/internal/database/dbtest"
	"riy-server/internal/models"
)

const (
	originLon = 77.5946
	originLat = 12.9716
)

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func seed(t *testing.T, s *Service) map[string]*models.RecyclingCenter {
	t.Helper()
	centers := map[string]*models.RecyclingCenter{
		"near":  {Name: "Near Depot", Longitude: originLon + 0.009, Latitude: originLat, AcceptedItems: models.StringArray{"Plastic", "glass"}},
		"mid":   {Name: "Mid Yard", Longitude: originLon + 0.045, Latitude: originLat, AcceptedItems: models.StringArray{"E-Waste"}},
		"close": {Name: "Corner Bins", Longitude: originLon, Latitude: originLat + 0.002, AcceptedItems: models.StringArray{"Paper", "Plastic"}},
		"far":   {Name: "Far Plant", Longitude: originLon + 0.2, Latitude: originLat, AcceptedItems: models.StringArray{"Plastic"}},
	}
	for _, key := range []string{"near", "mid", "close", "far"} {
		require.NoError(t, s.Create(context.Background(), centers[key]))
	}
	return centers
}

func names(cs []models.RecyclingCenter) []string {
	out := []string{}
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

func services(t *testing.T) map[string]*Service {
	_, rdb := setupTestRedis(t)
	return map[string]*Service{
		"scan":    NewService(dbtest.Open(t), nil),
		"indexed": NewService(dbtest.Open(t), rdb),
	}
}

func TestNearby(t *testing.T) {
	for name, s := range services(t) {
		t.Run(name, func(t *testing.T) {
			seed(t, s)
			ctx := context.Background()

			got, err := s.Nearby(ctx, Query{Longitude: originLon, Latitude: originLat})
			require.NoError(t, err)
			assert.Equal(t, []string{"Corner Bins", "Near Depot", "Mid Yard"}, names(got))
			for i := range got {
				require.NotNil(t, got[i].DistanceMeters)
				if i > 0 {
					assert.LessOrEqual(t, *got[i-1].DistanceMeters, *got[i].DistanceMeters)
				}
			}
			assert.InDelta(t, 975, *got[1].DistanceMeters, 15)

			got, err = s.Nearby(ctx, Query{Longitude: originLon, Latitude: originLat, MaxDistance: 2000})
			require.NoError(t, err)
			assert.Equal(t, []string{"Corner Bins", "Near Depot"}, names(got))

			got, err = s.Nearby(ctx, Query{Longitude: originLon, Latitude: originLat, MaxDistance: 50000, Category: "plastic"})
			require.NoError(t, err)
			assert.Equal(t, []string{"Corner Bins", "Near Depot", "Far Plant"}, names(got))

			got, err = s.Nearby(ctx, Query{Longitude: -70, Latitude: 40})
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestNearby_InvalidInput(t *testing.T) {
	s := NewService(dbtest.Open(t), nil)
	ctx := context.Background()

	_, err := s.Nearby(ctx, Query{Longitude: 200, Latitude: 0})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = s.Nearby(ctx, Query{Longitude: 0, Latitude: -91})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	_, err = s.Nearby(ctx, Query{Category: "wood"})
	assert.ErrorIs(t, err, ErrInvalidCenter)
}

func TestNearby_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewService(dbtest.Open(t), rdb)
	seed(t, s)
	mr.Close()

	got, err := s.Nearby(context.Background(), Query{Longitude: originLon, Latitude: originLat, MaxDistance: 2000})
	require.NoError(t, err)
	assert.Equal(t, []string{"Corner Bins", "Near Depot"}, names(got))
}

func TestReindex(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	db := dbtest.Open(t)
	seed(t, NewService(db, nil))

	s := NewService(db, rdb)
	require.NoError(t, s.Reindex(context.Background()))

	members, err := mr.ZMembers(geoKey)
	require.NoError(t, err)
	assert.Len(t, members, 4)

	got, err := s.Nearby(context.Background(), Query{Longitude: originLon, Latitude: originLat, MaxDistance: 2000})
	require.NoError(t, err)
	assert.Equal(t, []string{"Corner Bins", "Near Depot"}, names(got))
}

func TestCreate_NormalizesAndValidates(t *testing.T) {
	s := NewService(dbtest.Open(t), nil)
	ctx := context.Background()

	c := &models.RecyclingCenter{Name: "  Depot ", Longitude: 1, Latitude: 1, AcceptedItems: models.StringArray{"e-waste", "METAL"}}
	require.NoError(t, s.Create(ctx, c))
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Depot", c.Name)
	assert.Equal(t, models.StringArray{"E-Waste", "Metal"}, c.AcceptedItems)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringArray{"E-Waste", "Metal"}, got.AcceptedItems)

	err = s.Create(ctx, &models.RecyclingCenter{Name: "", Longitude: 1, Latitude: 1})
	assert.ErrorIs(t, err, ErrInvalidCenter)
	err = s.Create(ctx, &models.RecyclingCenter{Name: "x", Longitude: 1, Latitude: 100})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
	err = s.Create(ctx, &models.RecyclingCenter{Name: "x", AcceptedItems: models.StringArray{"wood"}})
	assert.ErrorIs(t, err, ErrInvalidCenter)
}

func TestUpdateAndDelete(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewService(dbtest.Open(t), rdb)
	centers := seed(t, s)
	ctx := context.Background()
	near := centers["near"]

	moved := &models.RecyclingCenter{Name: "Near Depot", Longitude: originLon + 0.3, Latitude: originLat, AcceptedItems: models.StringArray{"Plastic"}}
	require.NoError(t, s.Update(ctx, near.ID, moved))
	assert.Equal(t, near.ID, moved.ID)

	got, err := s.Nearby(ctx, Query{Longitude: originLon, Latitude: originLat, MaxDistance: 2000})
	require.NoError(t, err)
	assert.Equal(t, []string{"Corner Bins"}, names(got))

	require.NoError(t, s.Delete(ctx, centers["close"].ID))
	members, err := mr.ZMembers(geoKey)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	_, err = s.Get(ctx, centers["close"].ID)
	assert.ErrorIs(t, err, ErrCenterNotFound)
	assert.ErrorIs(t, s.Delete(ctx, centers["close"].ID), ErrCenterNotFound)
	assert.ErrorIs(t, s.Update(ctx, 999, moved), ErrCenterNotFound)
}

func TestByCategory(t *testing.T) {
	s := NewService(dbtest.Open(t), nil)
	seed(t, s)

	got, err := s.ByCategory(context.Background(), "plastic")
	require.NoError(t, err)
	assert.Equal(t, []string{"Corner Bins", "Far Plant", "Near Depot"}, names(got))

	got, err = s.ByCategory(context.Background(), "Hazardous")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.ByCategory(context.Background(), "wood")
	assert.ErrorIs(t, err, ErrInvalidCenter)
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0, haversine(10, 10, 10, 10), 1e-9)
	// One degree of longitude on the equator.
	assert.InDelta(t, 111226, haversine(0, 0, 1, 0), 5)
}
