package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var (
	// ErrInvalidHash signals a stored value that is not a PHC argon2id string.
	ErrInvalidHash   = errors.New("invalid argon2id hash")
	ErrEmptyPassword = errors.New("password cannot be empty")
)

var b64 = base64.RawStdEncoding

// argonCost is the tunable part of an argon2id hash.
type argonCost struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen int
	keyLen  int
}

// weakerThan reports whether c falls short of target on any cost axis.
func (c argonCost) weakerThan(target argonCost) bool {
	return c.memory < target.memory || c.time < target.time || c.keyLen < target.keyLen
}

// Hasher produces and checks argon2id password hashes in PHC string format:
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<key>
type Hasher struct {
	cost argonCost
}

// NewHasher clamps cfg into sane bounds.
func NewHasher(cfg config.PasswordConfig) *Hasher {
	return &Hasher{cost: argonCost{
		memory:  uint32(bound(cfg.ArgonMemoryKB, 8, 512*1024)),
		time:    uint32(bound(cfg.ArgonTime, 1, 10)),
		threads: uint8(bound(cfg.ArgonParallelism, 1, 255)),
		saltLen: bound(cfg.ArgonSaltLen, 8, 64),
		keyLen:  bound(cfg.ArgonKeyLen, 16, 64),
	}}
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.cost.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := derive(password, salt, h.cost)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.cost.memory, h.cost.time, h.cost.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify checks password against encoded. stale is true when the match was
// made against weaker parameters than the hasher's and the caller should
// store a fresh hash.
func (h *Hasher) Verify(password, encoded string) (match, stale bool, err error) {
	stored, err := parsePHC(encoded)
	if err != nil {
		return false, false, err
	}
	key := derive(password, stored.salt, stored.cost)
	if subtle.ConstantTimeCompare(key, stored.key) != 1 {
		return false, false, nil
	}
	return true, stored.cost.weakerThan(h.cost), nil
}

func derive(password string, salt []byte, c argonCost) []byte {
	return argon2.IDKey([]byte(password), salt, c.time, c.memory, c.threads, uint32(c.keyLen))
}

type phcHash struct {
	cost argonCost
	salt []byte
	key  []byte
}

func parsePHC(encoded string) (phcHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return phcHash{}, ErrInvalidHash
	}
	if fields[2] != "v="+strconv.Itoa(argon2.Version) {
		return phcHash{}, ErrInvalidHash
	}

	var out phcHash
	for _, pair := range strings.Split(fields[3], ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return phcHash{}, ErrInvalidHash
		}
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || n == 0 {
			return phcHash{}, ErrInvalidHash
		}
		switch name {
		case "m":
			out.cost.memory = uint32(n)
		case "t":
			out.cost.time = uint32(n)
		case "p":
			if n > 255 {
				return phcHash{}, ErrInvalidHash
			}
			out.cost.threads = uint8(n)
		default:
			return phcHash{}, ErrInvalidHash
		}
	}
	if out.cost.memory == 0 || out.cost.time == 0 || out.cost.threads == 0 {
		return phcHash{}, ErrInvalidHash
	}

	var err error
	if out.salt, err = b64.DecodeString(fields[4]); err != nil || len(out.salt) == 0 {
		return phcHash{}, ErrInvalidHash
	}
	if out.key, err = b64.DecodeString(fields[5]); err != nil || len(out.key) == 0 {
		return phcHash{}, ErrInvalidHash
	}
	out.cost.saltLen = len(out.salt)
	out.cost.keyLen = len(out.key)
	return out, nil
}

func bound(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
