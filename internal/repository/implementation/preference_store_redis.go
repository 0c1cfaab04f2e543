package implementation

import (
	"context"
	"errors"

	"notehub-engine/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const preferenceKeyPrefix = "notehub:pref:"

type PreferenceStoreRedis struct {
	rdb *redis.Client
}

func NewPreferenceStore(rdb *redis.Client) contract.PreferenceStore {
	return &PreferenceStoreRedis{rdb: rdb}
}

func (s *PreferenceStoreRedis) GetPref(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, preferenceKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *PreferenceStoreRedis) SetPref(ctx context.Context, key string, value string) error {
	return s.rdb.Set(ctx, preferenceKeyPrefix+key, value, 0).Err()
}
