package db_test

import (
	"testing"

	"github.com/mcdexio/yield-battle-vault/database/db"
	"github.com/mcdexio/yield-battle-vault/database/db/vaultdb"
	"github.com/mcdexio/yield-battle-vault/database/dbtest"
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/mcdexio/yield-battle-vault/database/models/vaultdata"
	"github.com/mcdexio/yield-battle-vault/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type DatabaseTestSuite struct {
	suite.Suite
	pg  *dbtest.Container
	dao db.DAO
}

func (s *DatabaseTestSuite) SetupSuite() {
	s.pg = dbtest.Start(s.T())
}

func (s *DatabaseTestSuite) SetupTest() {
	s.pg.Truncate(s.T())
}

func (s *DatabaseTestSuite) TestResetCreatesDefaults() {
	st, err := s.dao.GetStats(s.pg.DB)
	s.Require().NoError(err)
	s.Equal(uint64(1), st.NextBattleID)
	s.True(st.TotalVaultValue.IsZero())

	var sys models.System
	s.Require().NoError(s.pg.DB.Where("name = ?", types.SysVarSchemaVersion).Last(&sys).Error)
	s.NotEmpty(sys.Value)
}

func (s *DatabaseTestSuite) TestPrepareKeepsExistingSchema() {
	s.Require().NoError(s.dao.SavePosition(s.pg.DB, &vaultdata.Position{
		User:             "0x0000000000000000000000000000000000000001",
		DepositedAmount:  decimal.NewFromInt(5),
		PendingYield:     decimal.Zero,
		TotalYieldEarned: decimal.Zero,
		IsActive:         true,
	}))
	s.Require().NoError(db.Prepare(s.pg.DB, types.Vault, false))
	positions, err := s.dao.ListPositions(s.pg.DB)
	s.Require().NoError(err)
	s.Len(positions, 1)
}

func (s *DatabaseTestSuite) TestBindVaultAddress() {
	a := "0x0000000000000000000000000000000000000100"
	s.Require().NoError(vaultdb.BindVaultAddress(s.pg.DB, a))
	s.Require().NoError(vaultdb.BindVaultAddress(s.pg.DB, a))
	s.Require().Error(vaultdb.BindVaultAddress(s.pg.DB, "0x0000000000000000000000000000000000000200"))
}

func (s *DatabaseTestSuite) TestResetRefusesNonEmpty() {
	s.Require().NoError(s.dao.SavePosition(s.pg.DB, &vaultdata.Position{
		User:            "0x0000000000000000000000000000000000000001",
		DepositedAmount: decimal.NewFromInt(1),
		IsActive:        true,
	}))
	s.Error(db.Reset(s.pg.DB, types.Vault, false))
}

func (s *DatabaseTestSuite) TestPositionUpsert() {
	user := "0x0000000000000000000000000000000000000002"
	p, err := s.dao.GetPosition(s.pg.DB, user)
	s.Require().NoError(err)
	s.Nil(p)

	s.Require().NoError(s.dao.SavePosition(s.pg.DB, &vaultdata.Position{User: user, DepositedAmount: decimal.NewFromInt(5)}))
	s.Require().NoError(s.dao.SavePosition(s.pg.DB, &vaultdata.Position{User: user, DepositedAmount: decimal.NewFromInt(7)}))
	p, err = s.dao.GetPosition(s.pg.DB, user)
	s.Require().NoError(err)
	s.Equal("7", p.DepositedAmount.String())

	all, err := s.dao.ListPositions(s.pg.DB)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *DatabaseTestSuite) TestConditionalDebit() {
	owner := "0x0000000000000000000000000000000000000003"
	s.Require().NoError(s.dao.Credit(s.pg.DB, owner, decimal.NewFromInt(10)))
	s.Require().NoError(s.dao.Credit(s.pg.DB, owner, decimal.NewFromInt(5)))
	s.ErrorIs(s.dao.Debit(s.pg.DB, owner, decimal.NewFromInt(16)), db.ErrNotEnough)
	s.Require().NoError(s.dao.Debit(s.pg.DB, owner, decimal.NewFromInt(15)))
	b, err := s.dao.GetBalance(s.pg.DB, owner)
	s.Require().NoError(err)
	s.True(b.IsZero())
}

func (s *DatabaseTestSuite) TestBattleScoreSum() {
	user := "0x0000000000000000000000000000000000000004"
	s.Require().NoError(s.dao.SaveEntry(s.pg.DB, &vaultdata.LeaderboardEntry{
		User:            user,
		YieldScore:      decimal.Zero,
		BattleScore:     decimal.Zero,
		ReputationScore: decimal.Zero,
		TotalScore:      decimal.Zero,
	}))
	sum, err := s.dao.SetBattleScore(s.pg.DB, user, 1, decimal.NewFromInt(300))
	s.Require().NoError(err)
	s.Equal("300", sum.String())
	sum, err = s.dao.SetBattleScore(s.pg.DB, user, 2, decimal.NewFromInt(100))
	s.Require().NoError(err)
	s.Equal("400", sum.String())
	// same battle again replaces its score
	sum, err = s.dao.SetBattleScore(s.pg.DB, user, 1, decimal.NewFromInt(300))
	s.Require().NoError(err)
	s.Equal("400", sum.String())
}

func (s *DatabaseTestSuite) TestTransactionRollsBack() {
	owner := "0x0000000000000000000000000000000000000005"
	err := db.Transaction(s.pg.DB, func(tx *gorm.DB) error {
		if err := s.dao.Credit(tx, owner, decimal.NewFromInt(10)); err != nil {
			return err
		}
		return s.dao.Debit(tx, owner, decimal.NewFromInt(11))
	})
	s.ErrorIs(err, db.ErrNotEnough)
	b, err := s.dao.GetBalance(s.pg.DB, owner)
	s.Require().NoError(err)
	s.True(b.IsZero())
}

func TestDatabase(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}
