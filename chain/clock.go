package chain

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdexio/yield-battle-vault/common/logging"
)

// BlockClock tells time by the latest block so that yield and battle windows follow chain
// time. The head is refreshed at most once per refresh interval; between refreshes, and
// when the endpoint fails, local elapsed time is added to the last known block time.
type BlockClock struct {
	mu        sync.Mutex
	client    *Client
	local     clockwork.Clock
	logger    logging.Logger
	refresh   time.Duration
	blockTime time.Time
	fetchedAt time.Time
}

// NewBlockClock returns a clock backed by client.
func NewBlockClock(client *Client, local clockwork.Clock, refresh time.Duration,
	logger logging.Logger) *BlockClock {
	if local == nil {
		local = clockwork.NewRealClock()
	}
	return &BlockClock{client: client, local: local, refresh: refresh, logger: logger}
}

// Now returns the estimated chain time. After the first successful fetch it never goes
// backwards.
func (c *BlockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	localNow := c.local.Now()
	if c.fetchedAt.IsZero() || localNow.Sub(c.fetchedAt) >= c.refresh {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		block, err := c.client.GetLatestBlock(ctx)
		cancel()
		switch {
		case err != nil:
			c.logger.Warn("fail to refresh block time, use local estimate: %s", err)
			if !c.fetchedAt.IsZero() {
				c.blockTime, c.fetchedAt = c.estimate(localNow), localNow
			}
		default:
			head := time.Unix(block.Timestamp, 0)
			if c.fetchedAt.IsZero() || head.After(c.estimate(localNow)) {
				c.blockTime = head
			} else {
				c.blockTime = c.estimate(localNow)
			}
			c.fetchedAt = localNow
		}
	}
	if c.fetchedAt.IsZero() {
		return localNow
	}
	return c.estimate(localNow)
}

func (c *BlockClock) estimate(localNow time.Time) time.Time {
	return c.blockTime.Add(localNow.Sub(c.fetchedAt))
}
