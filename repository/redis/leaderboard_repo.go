package redis

import (
	"context"
	"strconv"

	redislib "github.com/redis/go-redis/v9"

	"github.com/OmChannawar/Listify/repository"
)

// DefaultLeaderboardKey is the sorted set holding every profile's points.
const DefaultLeaderboardKey = "leaderboard:global"

// recordScript writes a score only when its version is newer than the stored
// one. KEYS[1] is the sorted set, KEYS[2] the version hash.
var recordScript = redislib.NewScript(`
local current = redis.call('HGET', KEYS[2], ARGV[1])
if current and tonumber(current) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[1], ARGV[3])
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
return 1
`)

type leaderboardIndex struct {
	client     redislib.UniversalClient
	key        string
	versionKey string
}

// NewLeaderboardIndex creates a Redis sorted-set leaderboard index. The set and
// its version hash must live on one node; on a cluster, put a hash tag in key.
func NewLeaderboardIndex(client redislib.UniversalClient, key string) repository.LeaderboardIndex {
	if key == "" {
		key = DefaultLeaderboardKey
	}
	return &leaderboardIndex{
		client:     client,
		key:        key,
		versionKey: key + ":versions",
	}
}

func (l *leaderboardIndex) Record(ctx context.Context, profileID string, score repository.Score) error {
	return recordScript.Run(ctx, l.client,
		[]string{l.key, l.versionKey},
		profileID,
		strconv.Itoa(score.Points),
		strconv.FormatInt(score.Version, 10),
	).Err()
}

// Top returns up to limit profile ids, highest score first. Members with equal
// scores come back in reverse lexical order; callers re-sort ties.
func (l *leaderboardIndex) Top(ctx context.Context, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := l.client.ZRevRange(ctx, l.key, 0, stop).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

// Reset replaces the set and its versions atomically.
func (l *leaderboardIndex) Reset(ctx context.Context, scores map[string]repository.Score) error {
	members := make([]redislib.Z, 0, len(scores))
	versions := make(map[string]interface{}, len(scores))
	for id, s := range scores {
		members = append(members, redislib.Z{Score: float64(s.Points), Member: id})
		versions[id] = s.Version
	}

	_, err := l.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Del(ctx, l.key, l.versionKey)
		if len(members) > 0 {
			pipe.ZAdd(ctx, l.key, members...)
			pipe.HSet(ctx, l.versionKey, versions)
		}
		return nil
	})
	return err
}
