package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/stretchr/testify/suite"
)

type fakeHeaders struct {
	head  int64
	time  uint64
	err   error
	calls int
}

func (f *fakeHeaders) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n := f.head
	if number != nil {
		n = number.Int64()
	}
	return &types.Header{Number: big.NewInt(n), Time: f.time}, nil
}

func (f *fakeHeaders) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(31337), nil
}

type ChainSuite struct {
	suite.Suite
	logger logging.Logger
}

func (s *ChainSuite) SetupSuite() {
	s.logger = logging.NewLoggerTag("chain-test")
}

func (s *ChainSuite) TestNormalizeAddress() {
	addr, err := NormalizeAddress(" 0x52908400098527886e0f7030069857d2e4169ee7 ")
	s.Require().NoError(err)
	s.Require().Equal("0x52908400098527886E0F7030069857D2E4169EE7", addr)

	_, err = NormalizeAddress("0x1234")
	s.Require().ErrorIs(err, ErrInvalidAddress)
	_, err = NormalizeAddress("alice")
	s.Require().ErrorIs(err, ErrInvalidAddress)
}

func (s *ChainSuite) TestClientReadsHeaders() {
	fake := &fakeHeaders{head: 100, time: 1700000000}
	c := newClient(s.logger, "fake", fake)

	b, err := c.GetLatestBlock(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(int64(100), b.BlockNumber)
	s.Require().Equal(int64(1700000000), b.Timestamp)

	b, err = c.GetBlock(context.Background(), 42)
	s.Require().NoError(err)
	s.Require().Equal(int64(42), b.BlockNumber)

	id, err := c.ChainID(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(int64(31337), id.Int64())
}

func (s *ChainSuite) TestBlockClock() {
	fake := &fakeHeaders{head: 1, time: 1700000000}
	local := clockwork.NewFakeClockAt(time.Unix(1600000000, 0))
	clock := NewBlockClock(newClient(s.logger, "fake", fake), local, time.Minute, s.logger)

	s.Require().Equal(int64(1700000000), clock.Now().Unix())
	s.Require().Equal(1, fake.calls)

	// within the refresh interval local time is added without rpc calls.
	local.Advance(10 * time.Second)
	s.Require().Equal(int64(1700000010), clock.Now().Unix())
	s.Require().Equal(1, fake.calls)

	// a lagging head does not move time backwards.
	local.Advance(time.Minute)
	s.Require().Equal(int64(1700000070), clock.Now().Unix())
	s.Require().Equal(2, fake.calls)

	// failures fall back to the local estimate.
	fake.err = errors.New("rpc down")
	local.Advance(2 * time.Minute)
	s.Require().Equal(int64(1700000190), clock.Now().Unix())

	fake.err = nil
	fake.time = 1700001000
	local.Advance(2 * time.Minute)
	s.Require().Equal(int64(1700001000), clock.Now().Unix())
}

func TestChain(t *testing.T) {
	suite.Run(t, new(ChainSuite))
}
