package secret

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oarkflow/shamir"

	"github.com/oarkflow/jwt"
)

// KeyManager holds a small ring of currently valid HMAC signing secrets
// (keyID→secret). Each rotation generates a fresh secret sized for the
// configured HS digest, splits it via Shamir so the shares can be escrowed,
// and stores both. Older keys are pruned once the ring exceeds its cache
// limit, but stay valid until their expiry so recently issued tokens keep
// verifying across a rotation.
type KeyManager struct {
	mu sync.RWMutex

	ring      map[string]keyInfo
	shares    map[string][][]byte
	bits      int
	period    time.Duration
	limit     int
	total     int
	threshold int
	gen       *Generator
	nowFn     func() time.Time
}

type keyInfo struct {
	secret    []byte
	expiresAt time.Time
}

// NewKeyManager initializes a manager whose secrets fit the given HS digest
// size (256, 384 or 512). cacheLimit bounds how many keys stay in memory.
// totalShares and threshold parameterize the Shamir split of each secret.
// When period is positive a background rotation runs on that interval;
// otherwise rotation is manual via Rotate.
func NewKeyManager(bits int, period time.Duration, cacheLimit, totalShares, threshold int) (*KeyManager, error) {
	if cacheLimit < 1 {
		return nil, errors.New("secret: cacheLimit must be >= 1")
	}
	km := &KeyManager{
		ring:      make(map[string]keyInfo),
		shares:    make(map[string][][]byte),
		bits:      bits,
		period:    period,
		limit:     cacheLimit,
		total:     totalShares,
		threshold: threshold,
		gen:       NewGenerator(),
		nowFn:     func() time.Time { return time.Now().UTC() },
	}

	// Immediately generate the first key
	if _, err := km.Rotate(); err != nil {
		return nil, err
	}

	if period > 0 {
		ticker := time.NewTicker(period)
		go func() {
			for range ticker.C {
				_, _ = km.Rotate()
			}
		}()
	}

	return km, nil
}

// Rotate generates a new signing secret, Shamir-splits it, prunes keys
// beyond the cache limit, and returns the new key ID.
func (km *KeyManager) Rotate() (string, error) {
	secret, err := km.gen.HMACKey(km.bits)
	if err != nil {
		return "", err
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	keyID := uuid.NewString()
	expiry := km.nowFn().Add(km.lifetime())
	km.ring[keyID] = keyInfo{secret: secret, expiresAt: expiry}

	shares, err := shamir.Split(secret, km.total, km.threshold)
	if err != nil {
		return "", err
	}
	// In-memory only; callers persist shares to secure storage.
	km.shares[keyID] = shares

	km.pruneLocked()
	return keyID, nil
}

// lifetime keeps a retired key verifiable for one extra rotation period.
func (km *KeyManager) lifetime() time.Duration {
	if km.period > 0 {
		return 2 * km.period
	}
	return 24 * time.Hour
}

func (km *KeyManager) pruneLocked() {
	if len(km.ring) <= km.limit {
		return
	}
	type pair struct {
		id  string
		exp time.Time
	}
	var lst []pair
	for id, info := range km.ring {
		lst = append(lst, pair{id: id, exp: info.expiresAt})
	}
	sort.Slice(lst, func(i, j int) bool {
		return lst[i].exp.Before(lst[j].exp)
	})
	for i := 0; i < len(lst)-km.limit; i++ {
		delete(km.ring, lst[i].id)
		delete(km.shares, lst[i].id)
	}
}

// CurrentKey returns (keyID, secret) for signing: the newest key in the ring.
func (km *KeyManager) CurrentKey() (string, []byte) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	var newestID string
	var newestTime time.Time
	for id, info := range km.ring {
		if info.expiresAt.After(newestTime) {
			newestTime = info.expiresAt
			newestID = id
		}
	}
	if newestID == "" {
		return "", nil
	}
	return newestID, km.ring[newestID].secret
}

// LookupKey returns the secret for a keyID if it is still in the ring and
// not expired.
func (km *KeyManager) LookupKey(keyID string) ([]byte, bool) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	info, ok := km.ring[keyID]
	if !ok {
		return nil, false
	}
	if km.nowFn().After(info.expiresAt) {
		return nil, false
	}
	return info.secret, true
}

// SharesForKey returns the stored Shamir shares for a keyID (nil if none).
func (km *KeyManager) SharesForKey(keyID string) [][]byte {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.shares[keyID]
}

// ImportFromShares reconstructs a secret from its Shamir shares and
// re-inserts it under keyID, e.g. after restoring escrowed shares.
func (km *KeyManager) ImportFromShares(keyID string, shares [][]byte, expiresAt time.Time) error {
	secret, err := shamir.Combine(shares)
	if err != nil {
		return fmt.Errorf("secret: combine shares: %w", err)
	}
	km.mu.Lock()
	defer km.mu.Unlock()
	km.ring[keyID] = keyInfo{secret: secret, expiresAt: expiresAt}
	return nil
}

// KeySet exports the live ring as a jwt.KeySet of "oct" JWKs so tokens
// stamped with a ring key ID verify through the codec's kid resolution.
func (km *KeyManager) KeySet() *jwt.KeySet {
	km.mu.RLock()
	defer km.mu.RUnlock()

	now := km.nowFn()
	ids := make([]string, 0, len(km.ring))
	for id, info := range km.ring {
		if now.After(info.expiresAt) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ks := jwt.NewKeySet()
	for _, id := range ids {
		ks.Append(jwt.JWK{
			"kty": "oct",
			"kid": id,
			"alg": fmt.Sprintf("HS%d", km.bits),
			"k":   base64.RawURLEncoding.EncodeToString(km.ring[id].secret),
		})
	}
	return ks
}
