package favorites

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// Store keeps each user's favorite residences as a redis set. Toggle returns
// the authoritative membership so optimistic clients can reconcile.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Toggle(ctx context.Context, userID, itemID string) ([]string, error) {
	key := favoritesKey(userID)

	isMember, err := s.client.SIsMember(ctx, key, itemID).Result()
	if err != nil {
		return nil, fmt.Errorf("redis sismember failed: %w", err)
	}

	if isMember {
		if err := s.client.SRem(ctx, key, itemID).Err(); err != nil {
			return nil, fmt.Errorf("redis srem failed: %w", err)
		}
	} else {
		if err := s.client.SAdd(ctx, key, itemID).Err(); err != nil {
			return nil, fmt.Errorf("redis sadd failed: %w", err)
		}
	}

	return s.List(ctx, userID)
}

func (s *Store) List(ctx context.Context, userID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, favoritesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers failed: %w", err)
	}
	sort.Strings(members)
	return members, nil
}

func favoritesKey(userID string) string {
	return fmt.Sprintf("rentup:favorites:%s", userID)
}
