// Package criteria resolves a landlord's credit-check thresholds, falling
// back to system defaults when none are configured.
package criteria

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"tenancy-workflow/internal/common/errors"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Find(ctx context.Context, landlordID string) (*models.Criteria, error)
	Put(ctx context.Context, c models.Criteria) error
}

// Defaults apply to landlords without configured criteria.
type Defaults struct {
	MinExperianScore int
	MaxCCJs          int
}

// Service reads criteria through a Redis cache. Cache failures only cost a
// store round trip; store failures are returned.
type Service struct {
	store    Store
	cache    redis.Cmdable
	ttl      time.Duration
	defaults Defaults
	logger   logger.Logger
	now      func() time.Time
}

func NewService(store Store, cache redis.Cmdable, ttl time.Duration, defaults Defaults, log logger.Logger) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		ttl:      ttl,
		defaults: defaults,
		logger:   log,
		now:      time.Now,
	}
}

func cacheKey(landlordID string) string {
	return "criteria:" + landlordID
}

func (s *Service) GetCriteria(ctx context.Context, landlordID string) (models.Criteria, error) {
	if c, ok := s.fromCache(ctx, landlordID); ok {
		return c, nil
	}

	found, err := s.store.Find(ctx, landlordID)
	if err != nil {
		return models.Criteria{}, err
	}

	c := models.Criteria{
		LandlordID:       landlordID,
		MinExperianScore: s.defaults.MinExperianScore,
		MaxCCJs:          s.defaults.MaxCCJs,
		Default:          true,
	}
	if found != nil {
		c = *found
		c.LandlordID = landlordID
	}

	s.toCache(ctx, c)
	return c, nil
}

// SetCriteria writes criteria and drops the cached copy.
func (s *Service) SetCriteria(ctx context.Context, c models.Criteria) error {
	if c.LandlordID == "" {
		return errors.NewFieldError("landlordId", "landlordId is required")
	}
	var fields []errors.FieldError
	if c.MinExperianScore < 0 || c.MinExperianScore > 999 {
		fields = append(fields, errors.FieldError{Field: "minExperianScore", Message: "must be between 0 and 999", Code: "OUT_OF_RANGE"})
	}
	if c.MaxCCJs < 0 {
		fields = append(fields, errors.FieldError{Field: "maxCcjs", Message: "must not be negative", Code: "OUT_OF_RANGE"})
	}
	if len(fields) > 0 {
		return errors.NewValidationError("invalid criteria", fields...)
	}

	c.UpdatedAt = s.now().UTC()
	c.Default = false
	if err := s.store.Put(ctx, c); err != nil {
		return err
	}

	if err := s.cache.Del(ctx, cacheKey(c.LandlordID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate criteria cache", map[string]interface{}{
			"landlordId": c.LandlordID,
			"error":      err,
		})
	}
	return nil
}

func (s *Service) fromCache(ctx context.Context, landlordID string) (models.Criteria, bool) {
	raw, err := s.cache.Get(ctx, cacheKey(landlordID)).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			s.logger.Warn("criteria cache read failed", map[string]interface{}{
				"landlordId": landlordID,
				"error":      err,
			})
		}
		return models.Criteria{}, false
	}

	var c models.Criteria
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Criteria{}, false
	}
	return c, true
}

func (s *Service) toCache(ctx context.Context, c models.Criteria) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(c.LandlordID), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("criteria cache write failed", map[string]interface{}{
			"landlordId": c.LandlordID,
			"error":      err,
		})
	}
}
