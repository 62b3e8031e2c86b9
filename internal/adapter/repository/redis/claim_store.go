package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the claim only while this owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ClaimStore implements usecase.ClaimStore with SET NX keys. Claims are
// best-effort: they keep sweeper replicas from refunding the same freeze at
// once, while the freeze CAS stays the actual guarantee.
type ClaimStore struct {
	client redis.Cmdable
	prefix string
	owner  string
}

// NewClaimStore creates a new ClaimStore. owner identifies this process in
// the claim value, which helps when inspecting stuck keys.
func NewClaimStore(client redis.Cmdable, owner string) *ClaimStore {
	return &ClaimStore{
		client: client,
		prefix: "claim:",
		owner:  owner,
	}
}

// Claim takes key for ttl. It reports false when someone else holds it.
func (s *ClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+key, s.owner, ttl).Result()
}

// Release drops a claim early so the next pass can retry the freeze. A
// claim that expired and was taken by another owner is left alone.
func (s *ClaimStore) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, s.client, []string{s.prefix + key}, s.owner).Err()
}
