package paste

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pastedown/internal/config"
	"pastedown/internal/domain"
	models "pastedown/internal/domain/models/paste"
)

// IDGenerator turns a hash fragment into a candidate id. It is called with
// the empty fragment first, which lets a slug be tried on its own.
type IDGenerator func(fragment string) string

// keyChecker is the slice of the document store the namer needs
type keyChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// KeyNamer allocates document keys of the form ["<owner>/"]<id>.
//
// Generated ids are prefixes of a SHA-256 digest of the current time,
// probed from MinKeyLength up to MaxKeyLength characters. When every length
// collides, probing continues at MaxKeyLength with fresh digests for
// extraRounds rounds before giving up with domain.ErrKeySpaceExhausted.
//
// The existence check is not atomic with the insert that follows it; the
// insert reports a conflict and the caller asks for a new key.
type KeyNamer struct {
	docs        keyChecker
	now         func() time.Time
	minLen      int
	maxLen      int
	extraRounds int
	logger      *slog.Logger
}

// NewKeyNamer creates a key namer checking candidates against docs
func NewKeyNamer(docs keyChecker, now func() time.Time, logger *slog.Logger) *KeyNamer {
	if now == nil {
		now = time.Now
	}
	return &KeyNamer{
		docs:        docs,
		now:         now,
		minLen:      config.MinKeyLength,
		maxLen:      config.MaxKeyLength,
		extraRounds: 16,
		logger:      logger,
	}
}

// OwnerPrefix returns "" for anonymous documents, "<name>/" otherwise
func OwnerPrefix(owner *models.Person) string {
	if owner == nil {
		return ""
	}
	return owner.Name + "/"
}

// Literal builds the key for an explicitly chosen id
func (n *KeyNamer) Literal(owner *models.Person, id string) string {
	return OwnerPrefix(owner) + id
}

// Generate probes candidate ids until one is free. gen may be nil.
func (n *KeyNamer) Generate(ctx context.Context, owner *models.Person, gen IDGenerator) (string, error) {
	prefix := OwnerPrefix(owner)
	tried := make(map[string]bool)

	probe := func(id string) (string, bool, error) {
		if id == "" || tried[id] {
			return "", false, nil
		}
		tried[id] = true

		key := prefix + id
		exists, err := n.docs.Exists(ctx, key)
		if err != nil {
			return "", false, fmt.Errorf("check key %s: %w", key, err)
		}
		if exists {
			n.logger.Debug("key candidate taken", "key", key)
			return "", false, nil
		}
		return key, true, nil
	}

	if gen != nil {
		if key, ok, err := probe(gen("")); err != nil || ok {
			return key, err
		}
	}

	t := n.now()
	for round := 0; round <= n.extraRounds; round++ {
		digest := n.digest(t, round)

		start := n.minLen
		if round > 0 {
			start = n.maxLen
		}
		for length := start; length <= n.maxLen; length++ {
			id := digest[:length]
			if gen != nil {
				id = gen(id)
			}
			if key, ok, err := probe(id); err != nil || ok {
				return key, err
			}
		}
	}

	return "", fmt.Errorf("key for owner %q: %w", prefix, domain.ErrKeySpaceExhausted)
}

// digest hashes the probe time and round into a hex string of 64 characters
func (n *KeyNamer) digest(t time.Time, round int) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(t.UnixNano(), 10) + "/" + strconv.Itoa(round)))
	return hex.EncodeToString(sum[:])
}
