package encounters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/tabletop-forge/combat-engine/internal/domain/combat"
	dnderr "github.com/tabletop-forge/combat-engine/internal/errors"
)

const (
	// Key patterns
	encounterKeyPrefix = "encounter:"
	encounterIndexKey  = "encounters:index"

	// TTL for encounters (7 days)
	defaultEncounterTTL = 7 * 24 * time.Hour
)

// RedisRepoConfig holds configuration for the Redis repository
type RedisRepoConfig struct {
	Client       redis.UniversalClient
	EncounterTTL time.Duration
}

// redisRepository implements Repository using Redis. Each encounter is
// stored as a JSON blob under its own key, with a set index so ListAll
// can recover every session after a restart.
type redisRepository struct {
	client       redis.UniversalClient
	encounterTTL time.Duration
}

// NewRedisRepository creates a new Redis-backed encounter repository
func NewRedisRepository(cfg *RedisRepoConfig) Repository {
	if cfg.Client == nil {
		panic("redis client is required")
	}

	ttl := cfg.EncounterTTL
	if ttl == 0 {
		ttl = defaultEncounterTTL
	}

	return &redisRepository{
		client:       cfg.Client,
		encounterTTL: ttl,
	}
}

// Create stores a new encounter
func (r *redisRepository) Create(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}
	if encounter.ID == "" {
		return dnderr.InvalidArgument("encounter ID cannot be empty")
	}

	data, err := json.Marshal(encounter)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize encounter")
	}

	key := encounterKeyPrefix + encounter.ID
	created, err := r.client.SetNX(ctx, key, string(data), r.encounterTTL).Result()
	if err != nil {
		return dnderr.Wrap(err, "failed to create encounter")
	}
	if !created {
		return dnderr.AlreadyExistsf("encounter with ID %s already exists", encounter.ID)
	}

	if err := r.client.SAdd(ctx, encounterIndexKey, encounter.ID).Err(); err != nil {
		return dnderr.Wrap(err, "failed to index encounter")
	}

	return nil
}

// Get retrieves an encounter by ID
func (r *redisRepository) Get(ctx context.Context, id string) (*combat.Encounter, error) {
	if id == "" {
		return nil, dnderr.InvalidArgument("encounter ID cannot be empty")
	}

	data, err := r.client.Get(ctx, encounterKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, dnderr.NotFoundf("encounter not found: %s", id)
		}
		return nil, dnderr.Wrap(err, "failed to get encounter")
	}

	return combat.Decode(data)
}

// Update modifies an existing encounter
func (r *redisRepository) Update(ctx context.Context, encounter *combat.Encounter) error {
	if encounter == nil {
		return dnderr.InvalidArgument("encounter cannot be nil")
	}
	if encounter.ID == "" {
		return dnderr.InvalidArgument("encounter ID cannot be empty")
	}

	key := encounterKeyPrefix + encounter.ID
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return dnderr.Wrap(err, "failed to check encounter")
	}
	if exists == 0 {
		return dnderr.NotFoundf("encounter not found: %s", encounter.ID)
	}

	data, err := json.Marshal(encounter)
	if err != nil {
		return dnderr.Wrap(err, "failed to serialize encounter")
	}

	if err := r.client.Set(ctx, key, string(data), r.encounterTTL).Err(); err != nil {
		return dnderr.Wrap(err, "failed to update encounter")
	}

	return nil
}

// Delete removes an encounter
func (r *redisRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dnderr.InvalidArgument("encounter ID cannot be empty")
	}

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, encounterKeyPrefix+id)
	pipe.SRem(ctx, encounterIndexKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.Wrap(err, "failed to delete encounter")
	}

	if del.Val() == 0 {
		return dnderr.NotFoundf("encounter not found: %s", id)
	}

	return nil
}

// ListAll retrieves every indexed encounter. Index entries whose blob
// has expired are skipped rather than failing the whole listing.
func (r *redisRepository) ListAll(ctx context.Context) ([]*combat.Encounter, error) {
	ids, err := r.client.SMembers(ctx, encounterIndexKey).Result()
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to list encounters")
	}

	results := make([]*combat.Encounter, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			encounter, err := r.Get(ctx, id)
			if err != nil {
				if dnderr.IsNotFound(err) {
					return nil
				}
				return dnderr.Wrapf(err, "failed to get encounter %s", id)
			}
			results[i] = encounter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	encounters := make([]*combat.Encounter, 0, len(results))
	for _, encounter := range results {
		if encounter != nil {
			encounters = append(encounters, encounter)
		}
	}

	return encounters, nil
}
