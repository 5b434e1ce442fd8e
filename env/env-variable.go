package env

import "github.com/mcdexio/yield-battle-vault/common/config"

// IsCI returns true if we are in CI mode.
func IsCI() bool {
	ci := config.GetString("CI", "false")
	return ci == "true"
}

// ResetDatabase returns true if the schema should be rebuilt on startup.
func ResetDatabase() bool {
	return config.GetBool("RESET_DATABASE", false)
}

// UsePostgres returns true if vault state and balances live in postgres
// instead of process memory.
func UsePostgres() bool {
	return config.GetString("STORAGE", "memory") == "postgres"
}
