//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"moniftar/internal/ratelimit/models"
	"moniftar/internal/ratelimit/store/bucket"
	"moniftar/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestAllowUpToLimit() {
	ctx := context.Background()
	policy := models.Policy{Limit: 2, Window: time.Minute}

	first, err := s.store.Allow(ctx, "rl:login:203.0.113.7", policy)
	s.Require().NoError(err)
	s.True(first.Allowed)
	s.Equal(1, first.Remaining)

	second, err := s.store.Allow(ctx, "rl:login:203.0.113.7", policy)
	s.Require().NoError(err)
	s.True(second.Allowed)
	s.Equal(0, second.Remaining)

	denied, err := s.store.Allow(ctx, "rl:login:203.0.113.7", policy)
	s.Require().NoError(err)
	s.False(denied.Allowed)
	s.GreaterOrEqual(denied.RetryAfter, 1)

	card, err := s.redis.Client.ZCard(ctx, "rl:login:203.0.113.7").Result()
	s.Require().NoError(err)
	s.Equal(int64(2), card, "denied requests are not recorded")

	ttl, err := s.redis.Client.PTTL(ctx, "rl:login:203.0.113.7").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisBucketStoreSuite) TestWindowExpires() {
	ctx := context.Background()
	policy := models.Policy{Limit: 1, Window: 200 * time.Millisecond}

	res, err := s.store.Allow(ctx, "rl:scan:v1", policy)
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.store.Allow(ctx, "rl:scan:v1", policy)
	s.Require().NoError(err)
	s.False(res.Allowed)

	time.Sleep(300 * time.Millisecond)
	res, err = s.store.Allow(ctx, "rl:scan:v1", policy)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *RedisBucketStoreSuite) TestReset() {
	ctx := context.Background()
	policy := models.Policy{Limit: 1, Window: time.Minute}

	_, err := s.store.Allow(ctx, "rl:scan:v2", policy)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(ctx, "rl:scan:v2"))

	res, err := s.store.Allow(ctx, "rl:scan:v2", policy)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
