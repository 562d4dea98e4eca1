// Package recycling is the recycling-center catalog and the proximity search
// over it.
package recycling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"riy-server/internal/logger"
	"riy-server/internal/models"
	"riy-server/internal/waste"
)

const DefaultMaxDistance = 10000 // meters

var (
	ErrCenterNotFound     = errors.New("recycling center not found")
	ErrInvalidCenter      = errors.New("invalid recycling center")
	ErrInvalidCoordinates = errors.New("longitude must be within [-180, 180] and latitude within [-90, 90]")
)

type Query struct {
	Longitude   float64
	Latitude    float64
	MaxDistance float64 // meters, DefaultMaxDistance when <= 0
	Category    string
}

// Service reads and writes centers in the database. When a Redis client is
// given, proximity queries go through a GEO index and fall back to a scan of
// the catalog if Redis fails.
type Service struct {
	db  *gorm.DB
	geo *GeoIndex
}

func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	s := &Service{db: db}
	if rdb != nil {
		s.geo = NewGeoIndex(rdb)
	}
	return s
}

func validCoordinates(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// Reindex loads every center into the GEO index. It is a no-op without Redis.
func (s *Service) Reindex(ctx context.Context) error {
	if s.geo == nil {
		return nil
	}
	var centers []models.RecyclingCenter
	if err := s.db.WithContext(ctx).Select("id", "longitude", "latitude").Find(&centers).Error; err != nil {
		return err
	}
	if err := s.geo.Rebuild(ctx, centers); err != nil {
		return fmt.Errorf("failed to rebuild geo index: %w", err)
	}
	logger.Info("Indexed %d recycling centers", len(centers))
	return nil
}

func (s *Service) Nearby(ctx context.Context, q Query) ([]models.RecyclingCenter, error) {
	if !validCoordinates(q.Longitude, q.Latitude) {
		return nil, ErrInvalidCoordinates
	}
	if q.MaxDistance <= 0 {
		q.MaxDistance = DefaultMaxDistance
	}
	category, err := categoryFilter(q.Category)
	if err != nil {
		return nil, err
	}

	if s.geo != nil {
		centers, err := s.nearbyIndexed(ctx, q, category)
		if err == nil {
			return centers, nil
		}
		logger.Warning("geo index unavailable, scanning catalog: %v", err)
	}
	return s.nearbyScan(ctx, q, category)
}

func (s *Service) nearbyIndexed(ctx context.Context, q Query, category string) ([]models.RecyclingCenter, error) {
	hits, err := s.geo.Within(ctx, q.Longitude, q.Latitude, q.MaxDistance)
	if err != nil {
		return nil, err
	}
	out := []models.RecyclingCenter{}
	if len(hits) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	var rows []models.RecyclingCenter
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.RecyclingCenter, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	for _, h := range hits {
		c, ok := byID[h.ID]
		if !ok || (category != "" && !c.Accepts(category)) {
			continue
		}
		d := h.Distance
		c.DistanceMeters = &d
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) nearbyScan(ctx context.Context, q Query, category string) ([]models.RecyclingCenter, error) {
	var rows []models.RecyclingCenter
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := []models.RecyclingCenter{}
	for _, c := range rows {
		if category != "" && !c.Accepts(category) {
			continue
		}
		d := haversine(q.Longitude, q.Latitude, c.Longitude, c.Latitude)
		if d > q.MaxDistance {
			continue
		}
		c.DistanceMeters = &d
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DistanceMeters < *out[j].DistanceMeters })
	return out, nil
}

func categoryFilter(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	c, ok := waste.ParseCategory(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidCenter, s)
	}
	return string(c), nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.RecyclingCenter, error) {
	var c models.RecyclingCenter
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCenterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ByCategory lists the centers accepting category, by name.
func (s *Service) ByCategory(ctx context.Context, category string) ([]models.RecyclingCenter, error) {
	c, ok := waste.ParseCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidCenter, category)
	}
	var rows []models.RecyclingCenter
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := []models.RecyclingCenter{}
	for _, r := range rows {
		if r.Accepts(string(c)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func normalize(c *models.RecyclingCenter) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCenter)
	}
	if !validCoordinates(c.Longitude, c.Latitude) {
		return ErrInvalidCoordinates
	}
	items := models.StringArray{}
	for _, item := range c.AcceptedItems {
		cat, ok := waste.ParseCategory(item)
		if !ok {
			return fmt.Errorf("%w: unknown accepted item %q", ErrInvalidCenter, item)
		}
		items = append(items, string(cat))
	}
	c.AcceptedItems = items
	return nil
}

func (s *Service) Create(ctx context.Context, c *models.RecyclingCenter) error {
	if err := normalize(c); err != nil {
		return err
	}
	c.ID = 0
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return err
	}
	s.index(ctx, c)
	return nil
}

func (s *Service) Update(ctx context.Context, id uint, c *models.RecyclingCenter) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := normalize(c); err != nil {
		return err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return err
	}
	s.index(ctx, c)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.RecyclingCenter{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCenterNotFound
	}
	if s.geo != nil {
		if err := s.geo.Remove(ctx, id); err != nil {
			logger.Warning("failed to drop center %d from geo index: %v", id, err)
		}
	}
	return nil
}

// index failures are logged only; Reindex on the next start repairs them.
func (s *Service) index(ctx context.Context, c *models.RecyclingCenter) {
	if s.geo == nil {
		return
	}
	if err := s.geo.Add(ctx, c); err != nil {
		logger.Warning("failed to index center %d: %v", c.ID, err)
	}
}
