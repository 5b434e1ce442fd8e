package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mcdexio/yield-battle-vault/common/logging"
)

// Block is the head information the vault cares about.
type Block struct {
	Timestamp   int64
	BlockNumber int64
}

// headerReader is the part of ethclient.Client the package uses.
type headerReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Client reads block headers from an ethereum json-rpc endpoint.
type Client struct {
	client  headerReader
	logger  logging.Logger
	url     string
	timeout time.Duration
}

// NewClient dials rpcURL.
func NewClient(logger logging.Logger, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpcURL is empty")
	}
	logger.Info("New client with rpcUrl=%s", rpcURL)
	c, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}
	return newClient(logger, rpcURL, c), nil
}

func newClient(logger logging.Logger, url string, reader headerReader) *Client {
	return &Client{client: reader, logger: logger, url: url, timeout: 30 * time.Second}
}

// ChainID returns the chain id of the endpoint.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	ctx30, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	id, err := c.client.ChainID(ctx30)
	if err != nil {
		return nil, fmt.Errorf("fail to get chain id err=%w", err)
	}
	return id, nil
}

// GetLatestBlock returns the head block.
func (c *Client) GetLatestBlock(ctx context.Context) (*Block, error) {
	return c.getBlock(ctx, nil)
}

// GetBlock returns the block with the given number.
func (c *Client) GetBlock(ctx context.Context, blockNumber int64) (*Block, error) {
	return c.getBlock(ctx, big.NewInt(blockNumber))
}

func (c *Client) getBlock(ctx context.Context, number *big.Int) (*Block, error) {
	ctx30, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	header, err := c.client.HeaderByNumber(ctx30, number)
	if err != nil {
		return nil, fmt.Errorf("fail to get header err=%w", err)
	}
	return &Block{
		BlockNumber: header.Number.Int64(),
		Timestamp:   int64(header.Time),
	}, nil
}
