//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"skillchain/internal/state"
	redisstate "skillchain/internal/state/redis"
	"skillchain/internal/state/statetest"
	id "skillchain/pkg/domain"
	"skillchain/pkg/testutil"
	"skillchain/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestBackendContract() {
	statetest.Run(s.T(), func(t *testing.T) state.Backend {
		if err := s.redis.FlushAll(context.Background()); err != nil {
			t.Fatalf("flush: %v", err)
		}
		return redisstate.New(s.redis.Client)
	})
}

func (s *RedisStoreSuite) TestPrefixIsolatesLedgers() {
	ctx := context.Background()
	first := testutil.NewLedgerBuilder(redisstate.New(s.redis.Client, redisstate.WithPrefix("net-a:"))).Build(s.T())
	second := testutil.NewLedgerBuilder(redisstate.New(s.redis.Client, redisstate.WithPrefix("net-b:"))).Build(s.T())

	first.MustMint(s.T(), "alice", "cid:a")
	first.MustMint(s.T(), "alice", "cid:b")

	next, err := second.Registry.NextCredentialID(ctx)
	s.Require().NoError(err)
	s.Equal(id.CredentialID(0), next)

	keys, err := s.redis.Client.Keys(ctx, "net-a:*").Result()
	s.Require().NoError(err)
	s.NotEmpty(keys)
}

func (s *RedisStoreSuite) TestEndorseCommitsAtomically() {
	ctx := context.Background()
	ledger := testutil.NewLedgerBuilder(redisstate.New(s.redis.Client)).
		WithBalance("carol", 150).
		WithBalance("dave", 50).
		Build(s.T())
	credentialID := ledger.MustMint(s.T(), "alice", "cid:abc")

	s.Require().NoError(ledger.Endorsements.Endorse(ctx, "carol", credentialID, 100))
	s.Require().NoError(ledger.Endorsements.Endorse(ctx, "dave", credentialID, 50))

	reopened := testutil.NewLedgerBuilder(redisstate.New(s.redis.Client)).Build(s.T())
	list, err := reopened.Endorsements.Endorsements(ctx, credentialID)
	s.Require().NoError(err)
	s.Len(list, 2)

	score, err := reopened.Endorsements.Score(ctx, credentialID)
	s.Require().NoError(err)
	s.Equal(id.Balance(150), score)
}
