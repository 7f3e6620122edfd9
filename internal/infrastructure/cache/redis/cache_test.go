package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/phreeqprep/internal/application/speciation"
	"github.com/turtacn/phreeqprep/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/phreeqprep/pkg/errors"
)

var _ speciation.OutputCache = (*OutputCache)(nil)

type OutputCacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *OutputCache
}

func (s *OutputCacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFrom(db, logging.NewNopLogger())
	s.cache = NewOutputCache(client, logging.NewNopLogger(), WithPrefix("test:"), WithTTL(time.Minute))
}

func (s *OutputCacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

func (s *OutputCacheTestSuite) TestGet_Hit() {
	s.mock.ExpectGet("test:k1").SetVal("SELECTED_OUTPUT\n")

	v, ok, err := s.cache.Get(context.Background(), "k1")
	s.NoError(err)
	s.True(ok)
	s.Equal("SELECTED_OUTPUT\n", v)
}

func (s *OutputCacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	_, ok, err := s.cache.Get(context.Background(), "k1")
	s.NoError(err)
	s.False(ok)
}

func (s *OutputCacheTestSuite) TestGet_Error() {
	s.mock.ExpectGet("test:k1").SetErr(fmt.Errorf("connection reset"))

	_, ok, err := s.cache.Get(context.Background(), "k1")
	s.False(ok)
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func (s *OutputCacheTestSuite) TestSet() {
	s.mock.ExpectSet("test:k1", "block", time.Minute).SetVal("OK")
	s.NoError(s.cache.Set(context.Background(), "k1", "block"))
}

func (s *OutputCacheTestSuite) TestSet_Error() {
	s.mock.ExpectSet("test:k1", "block", time.Minute).SetErr(fmt.Errorf("readonly"))
	err := s.cache.Set(context.Background(), "k1", "block")
	s.True(errors.IsCode(err, errors.ErrCodeCacheError))
}

func (s *OutputCacheTestSuite) TestInvalidateDatabase() {
	pattern := "test:selected_output:pitzer:*"
	s.mock.ExpectScan(0, pattern, 100).SetVal([]string{"test:selected_output:pitzer:Ca:tttttf"}, 7)
	s.mock.ExpectDel("test:selected_output:pitzer:Ca:tttttf").SetVal(1)
	s.mock.ExpectScan(7, pattern, 100).SetVal([]string{}, 0)

	n, err := s.cache.InvalidateDatabase(context.Background(), "pitzer")
	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *OutputCacheTestSuite) TestClosedClient() {
	s.NoError(s.cache.client.Close())
	_, _, err := s.cache.Get(context.Background(), "k1")
	s.ErrorIs(err, ErrClientClosed)
	s.ErrorIs(s.cache.Set(context.Background(), "k1", "v"), ErrClientClosed)
}

func TestOutputCacheSuite(t *testing.T) {
	suite.Run(t, new(OutputCacheTestSuite))
}

//Personal.AI order the ending
