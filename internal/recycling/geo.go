package recycling

import (
	"context"
	"math"
	"strconv"

	"github.com/redis/go-redis/v9"

	"riy-server/internal/models"
)

const geoKey = "recycling:centers"

// earthRadiusMeters matches the radius Redis uses for GEO commands, so both
// lookup paths agree on distances.
const earthRadiusMeters = 6372797.560856

type geoHit struct {
	ID       uint
	Distance float64
}

// GeoIndex keeps center coordinates in a Redis GEO set keyed by center ID.
type GeoIndex struct {
	rdb *redis.Client
	key string
}

func NewGeoIndex(rdb *redis.Client) *GeoIndex {
	return &GeoIndex{rdb: rdb, key: geoKey}
}

func member(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (g *GeoIndex) Add(ctx context.Context, c *models.RecyclingCenter) error {
	return g.rdb.GeoAdd(ctx, g.key, &redis.GeoLocation{
		Name:      member(c.ID),
		Longitude: c.Longitude,
		Latitude:  c.Latitude,
	}).Err()
}

func (g *GeoIndex) Remove(ctx context.Context, id uint) error {
	return g.rdb.ZRem(ctx, g.key, member(id)).Err()
}

// Rebuild replaces the whole set with the given centers.
func (g *GeoIndex) Rebuild(ctx context.Context, centers []models.RecyclingCenter) error {
	if err := g.rdb.Del(ctx, g.key).Err(); err != nil {
		return err
	}
	if len(centers) == 0 {
		return nil
	}
	locs := make([]*redis.GeoLocation, 0, len(centers))
	for _, c := range centers {
		locs = append(locs, &redis.GeoLocation{Name: member(c.ID), Longitude: c.Longitude, Latitude: c.Latitude})
	}
	return g.rdb.GeoAdd(ctx, g.key, locs...).Err()
}

// Within returns the centers inside radius meters, nearest first.
func (g *GeoIndex) Within(ctx context.Context, lon, lat, radius float64) ([]geoHit, error) {
	locs, err := g.rdb.GeoRadius(ctx, g.key, lon, lat, &redis.GeoRadiusQuery{
		Radius:   radius,
		Unit:     "m",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	hits := make([]geoHit, 0, len(locs))
	for _, l := range locs {
		id, err := strconv.ParseUint(l.Name, 10, 64)
		if err != nil {
			continue
		}
		hits = append(hits, geoHit{ID: uint(id), Distance: l.Dist})
	}
	return hits, nil
}

// haversine returns the great-circle distance in meters.
func haversine(lon1, lat1, lon2, lat2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(a))
}
