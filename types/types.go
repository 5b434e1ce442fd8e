package types

// AppType specifies app type.
type AppType string

// Vault AppType enums.
const (
	Vault AppType = "vault"
)

// SysVar specifies the system variables.
type SysVar string

// SysVar enums.
const (
	SysVarSchemaVersion SysVar = "schema_version"
	SysVarVaultAddress  SysVar = "vault_address"
)

// TableName specifies table name.
type TableName string

// TableName enums.
const (
	Position          TableName = "vault_position"
	Battle            TableName = "battle"
	BattleParticipant TableName = "battle_participant"
	BattleWinner      TableName = "battle_winner"
	VaultStats        TableName = "vault_stats"
	LeaderboardEntry  TableName = "leaderboard_entry"
	LeaderboardBattle TableName = "leaderboard_battle_score"
	Profile           TableName = "user_profile"
	TokenBalance      TableName = "token_balance"
	TokenAllowance    TableName = "token_allowance"
	TokenTransfer     TableName = "token_transfer"
)
