package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedMembership держит недавние ответы платформы о членстве, чтобы не
// дёргать её на каждый запрос одного и того же пользователя. Кэшируются
// только успешные ответы; ошибки каждый раз уходят к платформе заново.
type cachedMembership struct {
	inner MembershipClient
	cache *expirable.LRU[string, string]
}

// NewCachedMembership оборачивает клиента членства в кэш с TTL.
func NewCachedMembership(inner MembershipClient, size int, ttl time.Duration) MembershipClient {
	return &cachedMembership{
		inner: inner,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *cachedMembership) MemberStatus(ctx context.Context, channelID, userID int64) (string, error) {
	key := fmt.Sprintf("%d:%d", channelID, userID)
	if status, ok := c.cache.Get(key); ok {
		return status, nil
	}

	status, err := c.inner.MemberStatus(ctx, channelID, userID)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, status)
	return status, nil
}
