package redis

import (
	"context"
	"errors"
	"pnoti/internal/types"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	indexKeyName    = "devices"
	deviceKeyPrefix = "dev_"
)

// RegistryStore keeps a sorted-set index of device IDs (all scores 0, so members come back in
// lexicographic order) next to one JSON-array string per device. Writes touch both keys inside
// MULTI/EXEC so the index and the values never disagree.
type RegistryStore struct {
	cli    *redis.Client
	prefix string
}

func NewRegistryStore(cli *redis.Client, keyPrefix string) *RegistryStore {
	if keyPrefix == "" {
		keyPrefix = types.DefaultKeyPrefix
	}
	return &RegistryStore{cli: cli, prefix: keyPrefix}
}

func (s *RegistryStore) Count(ctx context.Context) (int, error) {
	n, err := s.cli.ZCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, types.Err(types.ErrStoreUnavailable, err, "redis zcard")
	}
	return int(n), nil
}

func (s *RegistryStore) ListDeviceIDs(ctx context.Context) ([]string, error) {
	ids, err := s.cli.ZRangeByLex(ctx, s.indexKey(), &redis.ZRangeBy{Min: "-", Max: "+"}).Result()
	if err != nil {
		return nil, types.Err(types.ErrStoreUnavailable, err, "redis zrangebylex")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *RegistryStore) GetServiceIDs(ctx context.Context, deviceID string) (types.ServiceSet, error) {
	raw, err := s.cli.Get(ctx, s.deviceKey(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, types.ErrNotFound
		}
		return nil, types.Err(types.ErrStoreUnavailable, err, "redis get %s", deviceID)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, types.Err(types.ErrStoreError, err, "invalid service ids for %s", deviceID)
	}
	return types.NewServiceSet(ids...), nil
}

func (s *RegistryStore) Remove(ctx context.Context, deviceID string) error {
	_, err := s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.deviceKey(deviceID))
		pipe.ZRem(ctx, s.indexKey(), deviceID)
		return nil
	})
	if err != nil {
		return types.Err(types.ErrStoreUnavailable, err, "redis remove %s", deviceID)
	}
	return nil
}

func (s *RegistryStore) Replace(ctx context.Context, deviceID string, serviceIDs types.ServiceSet) error {
	out, err := json.Marshal(serviceIDs.Sorted())
	if err != nil {
		return types.Err(types.ErrStoreError, err, "marshal service ids for %s", deviceID)
	}
	_, err = s.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.deviceKey(deviceID), string(out), 0)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: deviceID})
		return nil
	})
	if err != nil {
		return types.Err(types.ErrStoreUnavailable, err, "redis replace %s", deviceID)
	}
	log.WithField("deviceId", deviceID).Debugf("redis: stored %s", out)
	return nil
}

func (s *RegistryStore) ClearAll(ctx context.Context) error {
	out := s.cli.Keys(ctx, s.prefix+"*")
	if out.Err() != nil {
		return out.Err()
	}
	keys := out.Val()
	if len(keys) == 0 {
		return nil
	}
	return s.cli.Del(ctx, keys...).Err()
}

func (s *RegistryStore) indexKey() string { return s.prefix + indexKeyName }

func (s *RegistryStore) deviceKey(deviceID string) string {
	return s.prefix + deviceKeyPrefix + deviceID
}
