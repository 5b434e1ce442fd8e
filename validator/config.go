package validator

import "time"

type Config struct {
	RoundInterval time.Duration `arg:"--interval,env:AUDIT_INTERVAL" default:"1m" help:"time between conservation audits"`
	// Confirmations is how many consecutive drifting rounds are needed before a conflict is
	// reported. The reads of one round are not atomic with vault writes.
	Confirmations int `arg:"--confirmations,env:AUDIT_CONFIRMATIONS" default:"2" help:"drifting checks before a conflict is reported"`
}
