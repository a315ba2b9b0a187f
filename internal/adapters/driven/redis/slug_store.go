package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

var _ driven.SlugStore = (*SlugStore)(nil)

const slugPrefix = "docspace:slug:"

// SlugStore keeps one key per (scope, slug) whose value is the owner.
// Reservations never expire; they are removed by Release.
type SlugStore struct {
	client redis.UniversalClient
}

// NewSlugStore creates a Redis-backed SlugStore
func NewSlugStore(client redis.UniversalClient) *SlugStore {
	return &SlugStore{client: client}
}

func slugKey(scope domain.SlugScope, slug string) string {
	return slugPrefix + string(scope) + ":" + slug
}

// reserveScript claims a free key or confirms the caller already owns it
var reserveScript = redis.NewScript(`
	local current = redis.call("get", KEYS[1])
	if not current then
		redis.call("set", KEYS[1], ARGV[1])
		return 1
	end
	if current == ARGV[1] then
		return 1
	end
	return 0
`)

func (s *SlugStore) Reserve(ctx context.Context, scope domain.SlugScope, slug, owner string) (bool, error) {
	n, err := reserveScript.Run(ctx, s.client, []string{slugKey(scope, slug)}, owner).Int64()
	if err != nil {
		return false, fmt.Errorf("reserve slug %s: %w", slug, err)
	}
	return n == 1, nil
}

func (s *SlugStore) Release(ctx context.Context, scope domain.SlugScope, slug, owner string) error {
	err := compareAndDelete.Run(ctx, s.client, []string{slugKey(scope, slug)}, owner).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release slug %s: %w", slug, err)
	}
	return nil
}

func (s *SlugStore) Owner(ctx context.Context, scope domain.SlugScope, slug string) (string, error) {
	owner, err := s.client.Get(ctx, slugKey(scope, slug)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get slug owner %s: %w", slug, err)
	}
	return owner, nil
}
