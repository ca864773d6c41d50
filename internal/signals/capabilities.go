package signals

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/mirandavel/tradepost-backend/pkg/logger"
	"github.com/mirandavel/tradepost-backend/pkg/redis"
)

const capabilityCacheEntry = "schema"

// Capabilities records which optional tables and columns the deployed
// schema actually carries. Absent elements resolve signals to neutral
// values instead of failing reads.
type Capabilities struct {
	HasReports           bool `json:"hasReports"`
	HasWarnings          bool `json:"hasWarnings"`
	HasSuspensions       bool `json:"hasSuspensions"`
	HasListings          bool `json:"hasListings"`
	HasReviewVerified    bool `json:"hasReviewVerified"`
	HasReviewValidity    bool `json:"hasReviewValidity"`
	HasDeviceFingerprint bool `json:"hasDeviceFingerprint"`
}

// CapabilityProber resolves the schema capabilities, caching the result in
// redis for a short TTL so metadata queries stay rare.
type CapabilityProber struct {
	db    *gorm.DB
	cache redis.CapabilityStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCapabilityProber wires a prober against the live connection.
func NewCapabilityProber(db *gorm.DB, cache redis.CapabilityStore, ttl time.Duration, logg *logger.Logger) *CapabilityProber {
	return &CapabilityProber{db: db, cache: cache, ttl: ttl, logg: logg}
}

// Resolve returns the cached capabilities, probing the schema on a miss.
// Probe failures degrade to a fresh probe result without caching.
func (p *CapabilityProber) Resolve(ctx context.Context) (Capabilities, error) {
	if p.cache != nil {
		key := p.cache.CapabilityKey(capabilityCacheEntry)
		raw, err := p.cache.Get(ctx, key)
		if err == nil {
			var caps Capabilities
			if unmarshalErr := json.Unmarshal([]byte(raw), &caps); unmarshalErr == nil {
				return caps, nil
			}
		} else if !redis.IsNil(err) && p.logg != nil {
			p.logg.Warn(ctx, "capability cache read failed, probing schema")
		}
	}

	caps := p.probe(ctx)

	if p.cache != nil {
		if buf, err := json.Marshal(caps); err == nil {
			key := p.cache.CapabilityKey(capabilityCacheEntry)
			if setErr := p.cache.Set(ctx, key, string(buf), p.ttl); setErr != nil && p.logg != nil {
				p.logg.Warn(ctx, "capability cache write failed")
			}
		}
	}

	return caps, nil
}

func (p *CapabilityProber) probe(ctx context.Context) Capabilities {
	migrator := p.db.WithContext(ctx).Migrator()
	return Capabilities{
		HasReports:           migrator.HasTable("reports"),
		HasWarnings:          migrator.HasTable("warnings"),
		HasSuspensions:       migrator.HasTable("suspensions"),
		HasListings:          migrator.HasTable("listings"),
		HasReviewVerified:    migrator.HasColumn("reviews", "is_verified"),
		HasReviewValidity:    migrator.HasColumn("reviews", "is_valid"),
		HasDeviceFingerprint: migrator.HasColumn("reviews", "device_fingerprint"),
	}
}
