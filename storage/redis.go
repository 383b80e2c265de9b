package storage

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mining-pool/blockminer/config"
	"github.com/mining-pool/blockminer/types"
	"github.com/pkg/errors"
)

var log = logging.Logger("storage")

type DB struct {
	*redis.Client
	coin string
	now  func() time.Time
}

// NewStorage connects to redis and checks the connection with a PING.
func NewStorage(ctx context.Context, coinName string, options *config.RedisOptions) (*DB, error) {
	redisOptions, err := options.ToRedisOptions()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(redisOptions)

	result, err := client.Ping(ctx).Result()
	if err != nil || strings.ToLower(result) != "pong" {
		_ = client.Close()
		return nil, errors.Errorf("failed to connect to the redis server at %s: %s %v", options.Addr(), result, err)
	}

	return NewStorageFromClient(client, coinName), nil
}

func NewStorageFromClient(client *redis.Client, coinName string) *DB {
	return &DB{
		Client: client,
		coin:   coinName,
		now:    time.Now,
	}
}

func (s *DB) key(parts ...string) string {
	return s.coin + ":" + strings.Join(parts, ":")
}

// PutBlock records a mined and validated block as pending.
func (s *DB) PutBlock(ctx context.Context, result *types.BlockResult) error {
	record := NewBlockRecord(result, s.now().Unix())

	ppl := s.TxPipeline()
	ppl.SAdd(ctx, s.key("blocks", string(Pending)), record.Hash)
	ppl.HSetNX(ctx, s.key("blocks"), record.Hash, record.String())
	ppl.HIncrBy(ctx, s.key("pool"), "validBlocks", 1)
	ppl.HIncrBy(ctx, s.key("pool"), "totalFees", int64(result.Fee))

	if _, err := ppl.Exec(ctx); err != nil {
		return errors.Wrapf(err, "recording block %s", record.Hash)
	}

	log.Info("recorded block ", record.Hash, " at height ", record.Height)
	return nil
}

// PutRejected records a block that failed validation after mining.
func (s *DB) PutRejected(ctx context.Context, blockHash string, reason error) error {
	ppl := s.TxPipeline()
	ppl.HIncrBy(ctx, s.key("pool"), "invalidBlocks", 1)
	ppl.HSet(ctx, s.key("blocks", "rejected"), blockHash, reason.Error())

	if _, err := ppl.Exec(ctx); err != nil {
		return errors.Wrapf(err, "recording rejected block %s", blockHash)
	}

	log.Warn("recorded rejected block ", blockHash, ": ", reason)
	return nil
}

// GetBlockRecords returns every recorded block, highest first.
func (s *DB) GetBlockRecords(ctx context.Context) ([]*BlockRecord, error) {
	m, err := s.HGetAll(ctx, s.key("blocks")).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*BlockRecord, 0, len(m))
	for hash, str := range m {
		record, err := NewBlockRecordFromString(hash, str)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Height != records[j].Height {
			return records[i].Height > records[j].Height
		}
		return records[i].Hash < records[j].Hash
	})

	return records, nil
}

func (s *DB) GetBlocks(ctx context.Context, category BlockCategory) ([]string, error) {
	return s.SMembers(ctx, s.key("blocks", string(category))).Result()
}

// ConfirmBlock moves one pending block to confirmed
func (s *DB) ConfirmBlock(ctx context.Context, blockHash string) (ok bool, err error) {
	return s.SMove(ctx, s.key("blocks", string(Pending)), s.key("blocks", string(Confirmed)), blockHash).Result()
}

// KickBlock moves one pending block to kicked
func (s *DB) KickBlock(ctx context.Context, blockHash string) (ok bool, err error) {
	return s.SMove(ctx, s.key("blocks", string(Pending)), s.key("blocks", string(Kicked)), blockHash).Result()
}

type PoolStats struct {
	ValidBlocks   uint64 `json:"validBlocks"`
	InvalidBlocks uint64 `json:"invalidBlocks"`
	TotalFees     uint64 `json:"totalFees"`
}

func (s *DB) GetPoolStats(ctx context.Context) (*PoolStats, error) {
	m, err := s.HGetAll(ctx, s.key("pool")).Result()
	if err != nil {
		return nil, err
	}

	stats := &PoolStats{}
	for field, dst := range map[string]*uint64{
		"validBlocks":   &stats.ValidBlocks,
		"invalidBlocks": &stats.InvalidBlocks,
		"totalFees":     &stats.TotalFees,
	} {
		v, ok := m[field]
		if !ok {
			continue
		}

		if *dst, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, errors.Wrapf(err, "pool field %s", field)
		}
	}

	return stats, nil
}
