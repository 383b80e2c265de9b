package algorithm

import (
	"strings"

	"github.com/mining-pool/blockminer/utils"
	"github.com/pkg/errors"
	x11 "github.com/samli88/go-x11-hash"
	"golang.org/x/crypto/scrypt"
)

// HashFunc hashes a serialized header. The digest is in natural byte order; reverse it to
// compare against a target.
type HashFunc func(data []byte) []byte

const (
	SHA256d = "sha256d"
	Scrypt  = "scrypt"
	X11     = "x11"
)

var hashFuncs = map[string]HashFunc{
	SHA256d: DoubleSha256Hash,
	Scrypt:  ScryptHash,
	X11:     X11Hash,
}

// GetHashFunc looks the PoW hash up by name. An empty name selects sha256d.
func GetHashFunc(name string) (HashFunc, error) {
	if name == "" {
		name = SHA256d
	}

	fn, ok := hashFuncs[strings.ToLower(name)]
	if !ok {
		return nil, errors.Errorf("unsupported hash algorithm %q", name)
	}

	return fn, nil
}

// ScryptHash is the algorithm which litecoin uses as its PoW mining algorithm
func ScryptHash(data []byte) []byte {
	b, err := scrypt.Key(data, data, 1024, 1, 1, 32)
	if err != nil {
		// only reachable with invalid cost parameters, which are constant here
		panic(err)
	}

	return b
}

func X11Hash(data []byte) []byte {
	dst := make([]byte, 32)
	x11.New().Hash(data, dst)
	return dst
}

// DoubleSha256Hash is the bitcoin PoW hash.
func DoubleSha256Hash(b []byte) []byte {
	return utils.Sha256d(b)
}
