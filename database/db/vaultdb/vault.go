package vaultdb

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"github.com/mcdexio/yield-battle-vault/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var logger = logging.NewLoggerTag("database")

// VaultDBApp is the database application of the vault.
type VaultDBApp struct {
}

// Models returns the models for a given database app.
func (e *VaultDBApp) Models() []interface{} {
	return vaultdata.AllModels
}

// IsEmpty check if a given database is empty.
func (e *VaultDBApp) IsEmpty(db *gorm.DB) bool {
	if !db.Migrator().HasTable(&vaultdata.Position{}) {
		return true
	}
	var n int64
	if err := db.Model(&vaultdata.Position{}).Count(&n).Error; err != nil {
		return false
	}
	return n == 0
}

// PreReset is executed before db is reset.
func (e *VaultDBApp) PreReset(tx *gorm.DB) error {
	return nil
}

// PostReset is executed after db is reset.
func (e *VaultDBApp) PostReset(tx *gorm.DB) error {
	if err := initSchemaVersion(tx); err != nil {
		return err
	}
	return initStats(tx)
}

func initSchemaVersion(db *gorm.DB) error {
	var result models.System
	err := db.Model(&models.System{}).Where("name = ?", types.SysVarSchemaVersion).
		Order("id").Last(&result).Error
	var v int
	if err == nil {
		if v, err = strconv.Atoi(result.Value); err != nil {
			logger.Warn("bad schema_version %q, start from 1", result.Value)
			v = 0
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("fail to read schema_version %w", err)
	}
	if err := db.Create(&models.System{
		Name:  types.SysVarSchemaVersion,
		Value: strconv.Itoa(v + 1),
	}).Error; err != nil {
		return err
	}
	logger.Info("Initialized DB Schema version to %v.", v+1)
	return nil
}

func initStats(db *gorm.DB) error {
	row := &vaultdata.Stats{
		ID:                    vaultdata.StatsRowID,
		TotalVaultValue:       decimal.Zero,
		TotalYieldDistributed: decimal.Zero,
		NextBattleID:          1,
		RewardReserve:         decimal.Zero,
		OpenPrizePools:        decimal.Zero,
		OutstandingYield:      decimal.Zero,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
		return fmt.Errorf("fail to init vault stats %w", err)
	}
	return nil
}

// BindVaultAddress records addr as the vault account of the database on first use and
// rejects a database that was bound to another account.
func BindVaultAddress(db *gorm.DB, addr string) error {
	var bound models.System
	err := db.Model(&models.System{}).Where("name = ?", types.SysVarVaultAddress).
		Order("id").Last(&bound).Error
	switch {
	case err == nil:
		if bound.Value != addr {
			return fmt.Errorf("database belongs to vault %s, configured %s", bound.Value, addr)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.Info("Binding database to vault %s", addr)
		return db.Create(&models.System{Name: types.SysVarVaultAddress, Value: addr}).Error
	default:
		return fmt.Errorf("fail to read vault_address %w", err)
	}
}
