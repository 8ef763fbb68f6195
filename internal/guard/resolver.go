package guard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-hr/meridian-hr/internal/identity"
	"github.com/meridian-hr/meridian-hr/internal/policy"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Resolver caches resolved identities so a guarded subtree suspends at most
// once per mount. Subsequent evaluations reuse the cached resolution until
// Invalidate is called (navigation, logout, or token reissue).
type Resolver struct {
	repo   identity.Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewResolver constructs a Resolver. ttl bounds staleness of the cached
// identity; the token, not the cache, decides authentication lifetime.
func NewResolver(repo identity.Repository, client *redis.Client, ttl time.Duration) *Resolver {
	return &Resolver{repo: repo, client: client, ttl: ttl}
}

type cachedSubject struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func cacheKey(id string) string {
	return "guard:identity:" + id
}

// Resolve returns the authorization subject for the identity id, serving
// from cache when possible. Concurrent resolutions of the same id share one
// repository lookup. A canceled context discards the result: the caller
// stays in the pending state and nothing already rendered is touched.
func (r *Resolver) Resolve(ctx context.Context, id string) (*policy.Subject, error) {
	if cached, err := r.fromCache(ctx, id); err == nil {
		return cached, nil
	}

	v, err, _ := r.group.Do(id, func() (any, error) {
		ident, err := r.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		sub := &policy.Subject{
			ID:    ident.ID,
			Email: shared.NormalizeEmail(ident.Email),
			Role:  policy.ParseRole(ident.Role),
		}
		r.store(ctx, sub)
		return sub, nil
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return v.(*policy.Subject), nil
}

// Invalidate drops the cached resolution for an identity. Called on logout,
// navigation away, and token reissue.
func (r *Resolver) Invalidate(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	err := r.client.Del(ctx, cacheKey(id)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (r *Resolver) fromCache(ctx context.Context, id string) (*policy.Subject, error) {
	if r.client == nil {
		return nil, redis.Nil
	}
	raw, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var stored cachedSubject
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &policy.Subject{
		ID:    stored.ID,
		Email: stored.Email,
		Role:  policy.ParseRole(stored.Role),
	}, nil
}

func (r *Resolver) store(ctx context.Context, sub *policy.Subject) {
	if r.client == nil {
		return
	}
	data, err := json.Marshal(cachedSubject{ID: sub.ID, Email: sub.Email, Role: string(sub.Role)})
	if err != nil {
		return
	}
	// Best effort: a failed cache write only costs the next resolution a
	// repository lookup.
	_ = r.client.Set(ctx, cacheKey(sub.ID), data, r.ttl).Err()
}
