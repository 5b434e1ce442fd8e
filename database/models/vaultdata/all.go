package vaultdata

import "github.com/mcdexio/yield-battle-vault/database/models"

// AllModels collects available models. Referenced tables come first.
var AllModels = []interface{}{
	&models.System{},

	&Stats{},
	&Position{},
	&Battle{},
	&Participant{},
	&Winner{},
	&LeaderboardEntry{},
	&LeaderboardBattleScore{},
	&Profile{},
	&TokenBalance{},
	&TokenAllowance{},
	&TokenTransfer{},
}
