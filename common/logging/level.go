package logging

import (
	"cloud.google.com/go/logging"
	"github.com/mcdexio/yield-battle-vault/common/config"
)

// level of logger
type level int

// Log / Severity Levels
const (
	firstLevel level = iota
	criticalLevel
	errorLevel
	warnLevel
	noticeLevel
	infoLevel
	debugLevel
	lastLevel
)

var levelNames = [...]string{"", " CRIT", "ERROR", " WARN", " NOTE", " INFO", "DEBUG", ""}

var levelSeverities = [...]logging.Severity{
	-1,
	logging.Critical,
	logging.Error,
	logging.Warning,
	logging.Notice,
	logging.Info,
	logging.Debug,
	-1,
}

// thresholdFromConfig reads SERVER_LOGLEVEL, 1 (critical) to 6 (debug).
func thresholdFromConfig() level {
	return level(config.GetInt("SERVER_LOGLEVEL", int(debugLevel)))
}

// IsValid returns if the l is valid.
func (l level) IsValid() bool {
	return l < lastLevel && l > firstLevel
}

func (l level) String() string {
	if !l.IsValid() {
		return ""
	}
	return levelNames[l]
}

// Severity maps l onto cloud logging severities.
func (l level) Severity() logging.Severity {
	if !l.IsValid() {
		return logging.Default
	}
	return levelSeverities[l]
}
