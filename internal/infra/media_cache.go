package infra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/Vovarama1992/mediashelf/internal/ports"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func mediaCacheKey(id string) string { return "media:" + id }

// mediaGenKey counts writes to a record. A read fill only lands if the count
// it saw before going to postgres is still current.
func mediaGenKey(id string) string { return "media:" + id + ":gen" }

// generation keys outlive entries so an in-flight fill cannot see one expire
const genTTL = 24 * time.Hour

// CachedMediaRepo serves GetByID from redis and keeps single-record keys in
// step with writes. Lists always go to the wrapped repository. Redis errors are
// logged and never fail a call.
type CachedMediaRepo struct {
	next ports.MediaRepository
	rdb  *redis.Client
	ttl  time.Duration
	log  *logger.ZapLogger
}

func NewCachedMediaRepo(next ports.MediaRepository, rdb *redis.Client, ttl time.Duration, log *logger.ZapLogger) ports.MediaRepository {
	return &CachedMediaRepo{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedMediaRepo) GetAll(ctx context.Context) ([]models.Media, error) {
	return c.next.GetAll(ctx)
}

func (c *CachedMediaRepo) Filter(ctx context.Context, mediaType models.MediaType) ([]models.Media, error) {
	return c.next.Filter(ctx, mediaType)
}

func (c *CachedMediaRepo) GetByID(ctx context.Context, id string) (*models.Media, error) {
	b, err := c.rdb.Get(ctx, mediaCacheKey(id)).Bytes()
	switch {
	case err == nil:
		var m models.Media
		uerr := json.Unmarshal(b, &m)
		if uerr == nil {
			return &m, nil
		}
		c.warn("cache decode failed", uerr, id)
	case !errors.Is(err, redis.Nil):
		c.warn("cache get failed", err, id)
	}

	gen, gerr := c.rdb.Get(ctx, mediaGenKey(id)).Int64()
	if gerr != nil && !errors.Is(gerr, redis.Nil) {
		c.warn("cache gen read failed", gerr, id)
	}

	m, err := c.next.GetByID(ctx, id)
	if err != nil || m == nil {
		return m, err
	}
	if gerr == nil || errors.Is(gerr, redis.Nil) {
		c.fill(ctx, m, gen)
	}
	return m, nil
}

func (c *CachedMediaRepo) Create(ctx context.Context, fields models.MediaFields) (*models.Media, error) {
	m, err := c.next.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	c.store(ctx, m)
	return m, nil
}

func (c *CachedMediaRepo) Update(ctx context.Context, id string, patch models.MediaPatch) (*models.Media, error) {
	m, err := c.next.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	c.drop(ctx, id)
	return m, nil
}

func (c *CachedMediaRepo) Delete(ctx context.Context, id string) (*models.Media, error) {
	m, err := c.next.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	c.drop(ctx, id)
	return m, nil
}

func (c *CachedMediaRepo) store(ctx context.Context, m *models.Media) {
	b, err := json.Marshal(m)
	if err != nil {
		c.warn("cache encode failed", err, m.ID)
		return
	}
	if err := c.rdb.Set(ctx, mediaCacheKey(m.ID), b, c.ttl).Err(); err != nil {
		c.warn("cache set failed", err, m.ID)
	}
}

// fill writes a row read from postgres, unless a write to the same id bumped
// the generation since seen was read. WATCH makes the check and the SET atomic.
func (c *CachedMediaRepo) fill(ctx context.Context, m *models.Media, seen int64) {
	b, err := json.Marshal(m)
	if err != nil {
		c.warn("cache encode failed", err, m.ID)
		return
	}
	genKey := mediaGenKey(m.ID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != seen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, mediaCacheKey(m.ID), b, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
	default:
		c.warn("cache fill failed", err, m.ID)
	}
}

var errStaleFill = errors.New("record changed during read")

// drop runs after the postgres write has committed: bump first, then delete,
// so any fill that read the old row is either refused or overwritten.
func (c *CachedMediaRepo) drop(ctx context.Context, id string) {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, mediaGenKey(id))
		p.Expire(ctx, mediaGenKey(id), genTTL)
		p.Del(ctx, mediaCacheKey(id))
		return nil
	})
	if err != nil {
		c.warn("cache invalidate failed", err, id)
	}
}

func (c *CachedMediaRepo) warn(msg string, err error, id string) {
	c.log.Log(logger.LogEntry{
		Level:   "warn",
		Message: msg,
		Error:   err,
		Fields:  map[string]any{"mediaID": id},
	})
}
