package vault

import (
	"fmt"

	"github.com/mcdexio/yield-battle-vault/chain"
	"github.com/mcdexio/yield-battle-vault/common/config"
)

// Config of a Vault.
type Config struct {
	// Address is the ledger account holding vault funds.
	Address string
	// Admin may create and seed battles and fund rewards.
	Admin string
	// APYBps is the annual yield rate in basis points, DefaultAPYBps when zero.
	APYBps int64
	// PrizeShares are the relative prize weights of ranks 1..K.
	PrizeShares []int64
}

// ConfigFromEnv reads VAULT_ADDRESS, VAULT_ADMIN, VAULT_APY_BPS and BATTLE_PRIZE_SHARES.
func ConfigFromEnv() Config {
	return Config{
		Address:     config.GetString("VAULT_ADDRESS"),
		Admin:       config.GetString("VAULT_ADMIN"),
		APYBps:      config.GetInt64("VAULT_APY_BPS", DefaultAPYBps),
		PrizeShares: config.GetInt64List("BATTLE_PRIZE_SHARES", DefaultPrizeShares),
	}
}

func (c *Config) normalize() error {
	var err error
	if c.Address, err = chain.NormalizeAddress(c.Address); err != nil {
		return fmt.Errorf("vault address %q: %w", c.Address, err)
	}
	if c.Admin, err = chain.NormalizeAddress(c.Admin); err != nil {
		return fmt.Errorf("vault admin %q: %w", c.Admin, err)
	}
	switch {
	case c.APYBps < 0:
		return fmt.Errorf("negative apy %d", c.APYBps)
	case c.APYBps == 0:
		c.APYBps = DefaultAPYBps
	}
	if len(c.PrizeShares) == 0 {
		c.PrizeShares = DefaultPrizeShares
	}
	for _, s := range c.PrizeShares {
		if s < 0 {
			return fmt.Errorf("negative prize share in %v", c.PrizeShares)
		}
	}
	return nil
}
