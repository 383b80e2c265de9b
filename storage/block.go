package storage

import (
	"strconv"
	"strings"

	"github.com/mining-pool/blockminer/types"
	"github.com/pkg/errors"
)

type BlockCategory string

const (
	Pending   BlockCategory = "pending"
	Confirmed BlockCategory = "confirmed"
	Kicked    BlockCategory = "kicked"
)

// BlockRecord is a mined block as kept in the <coin>:blocks hash, keyed by block hash.
type BlockRecord struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
	Fee    uint64 `json:"fee"`
	Weight uint64 `json:"weight"`
	Nonce  uint32 `json:"nonce"`
	Time   int64  `json:"time"`
}

func NewBlockRecord(result *types.BlockResult, now int64) *BlockRecord {
	return &BlockRecord{
		Hash:   result.BlockHash,
		Height: result.Height,
		Fee:    result.Fee,
		Weight: result.Weight,
		Nonce:  result.Nonce,
		Time:   now,
	}
}

// String is the stored value, height:fee:weight:nonce:time.
func (br *BlockRecord) String() string {
	return strings.Join([]string{
		strconv.FormatInt(br.Height, 10),
		strconv.FormatUint(br.Fee, 10),
		strconv.FormatUint(br.Weight, 10),
		strconv.FormatUint(uint64(br.Nonce), 10),
		strconv.FormatInt(br.Time, 10),
	}, ":")
}

func NewBlockRecordFromString(hash, str string) (*BlockRecord, error) {
	split := strings.Split(str, ":")
	if len(split) != 5 {
		return nil, errors.Errorf("block record string %s lacks element(s)", str)
	}

	height, err := strconv.ParseInt(split[0], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "height")
	}

	fee, err := strconv.ParseUint(split[1], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "fee")
	}

	weight, err := strconv.ParseUint(split[2], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "weight")
	}

	nonce, err := strconv.ParseUint(split[3], 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, "nonce")
	}

	t, err := strconv.ParseInt(split[4], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "time")
	}

	return &BlockRecord{
		Hash:   hash,
		Height: height,
		Fee:    fee,
		Weight: weight,
		Nonce:  uint32(nonce),
		Time:   t,
	}, nil
}
