package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/mcdexio/yield-battle-vault/common/config"
	"github.com/mcdexio/yield-battle-vault/common/logging"
	"github.com/mcdexio/yield-battle-vault/database/db/vaultdb"
	"github.com/mcdexio/yield-battle-vault/database/models"
	"github.com/mcdexio/yield-battle-vault/env"
	"github.com/mcdexio/yield-battle-vault/types"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Host specifies the database host.
type Host string

// Host enums.
const (
	Default Host = "default"
	Replica Host = "replica"
)

var logger = logging.NewLoggerTag("database")

var dbMap map[Host]*gorm.DB
var dbMapMutex sync.Mutex

// NewDB opens a gorm postgres handle for the dsn args with the shared settings.
func NewDB(args string) (db *gorm.DB, err error) {
	db, err = gorm.Open(postgres.Open(args),
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			},
			Logger: glogger.Default.LogMode(glogger.Silent),
		},
	)
	if err != nil {
		logger.Warn("failed to open gorm db err=%v", err)
		return
	}
	var sqlDB *sql.DB
	sqlDB, err = db.DB()
	if err != nil {
		logger.Warn("failed to get sql.DB from gorm db err=%v", err)
		return
	}
	sqlDB.SetMaxIdleConns(config.GetInt("DB_MAX_IDLE_CONNS", 4))
	sqlDB.SetMaxOpenConns(config.GetInt("DB_MAX_OPEN_CONNS", 16))
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return
}

// Initialize dials the configured hosts. It doesn't reset or migrate anything. In CI the
// default host is switched to a fresh database named by DBNAME or a random name.
func Initialize(extraHosts ...Host) {
	dbMapMutex.Lock()
	defer dbMapMutex.Unlock()

	dbMap = make(map[Host]*gorm.DB)
	for _, host := range append(extraHosts, Default) {
		if _, e := dbMap[host]; !e {
			logger.Info("Initializing %s database ...", host)
			dbMap[host] = dialDB(host)
		}
	}

	if env.IsCI() {
		name := config.GetString("DBNAME", fmt.Sprintf("test_%v", time.Now().UnixNano()))
		if err := dbMap[Default].Exec("CREATE DATABASE " + name).Error; err != nil {
			logger.Warn("create database: %v", err)
		}
		closeDB(dbMap[Default])

		req, err := url.Parse(config.GetString("DB_ARGS"))
		if err != nil {
			panic(err)
		}
		req.Path = "/" + name
		logger.Info("Dial to %s", req.Redacted())
		db, err := NewDB(req.String())
		if err != nil {
			logger.Critical(err.Error())
		}
		dbMap[Default] = db
	}
	logger.Info("Initialize DONE")
}

// Finalize closes every handle.
func Finalize() {
	dbMapMutex.Lock()
	defer dbMapMutex.Unlock()
	for key, db := range dbMap {
		closeDB(db)
		delete(dbMap, key)
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to get db, err=%v", err)
		return
	}
	if err = sqlDB.Close(); err != nil {
		logger.Warn("failed to close db, err=%v", err)
	}
}

// GetDB returns the database handle.
func GetDB(host ...Host) *gorm.DB {
	if len(host) > 1 {
		panic("invalid usage of GetDB")
	}
	target := Default
	if len(host) == 1 {
		target = host[0]
	}

	dbMapMutex.Lock()
	ret := dbMap[target]
	dbMapMutex.Unlock()
	if ret != nil {
		return ret
	}

	Initialize(target)
	dbMapMutex.Lock()
	ret = dbMap[target]
	dbMapMutex.Unlock()
	if ret == nil {
		panic("gets nil db: " + target)
	}
	return ret
}

func dialDB(host Host) *gorm.DB {
	args := config.GetString("DB_ARGS")
	if host == Replica {
		args = config.GetString("REPLICA_DB_ARGS")
	}
	db, err := NewDB(args)
	if err != nil {
		logger.Critical(err.Error())
	}
	return db
}

// Return DBApp given an app type.
func dbAppFromType(appType types.AppType) DBApp {
	switch appType {
	case types.Vault:
		return &vaultdb.VaultDBApp{}
	default:
		panic("undefined application environment")
	}
}

// Reset drops every table of the app and recreates the schema with its indices, foreign
// keys and default records. Without force it refuses to touch a database holding data.
func Reset(db *gorm.DB, appType types.AppType, force bool) error {
	dbApp := dbAppFromType(appType)
	if !force && !dbApp.IsEmpty(db) {
		return fmt.Errorf("vault database exists, reset aborted")
	}

	logger.Info("Resetting database ...")
	if err := dropAllTables(db, dbApp); err != nil {
		return err
	}

	logger.Info("Creating models ...")
	err := Transaction(db, func(tx *gorm.DB) error {
		for _, model := range dbApp.Models() {
			if e := tx.AutoMigrate(model); e != nil {
				return fmt.Errorf("fail to migrate %T: %w", model, e)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return Transaction(db, func(tx *gorm.DB) error {
		logger.Info("Creating indices and constraints ...")
		stmt := &gorm.Statement{DB: db}
		for _, model := range dbApp.Models() {
			if err := stmt.Parse(model); err != nil {
				return fmt.Errorf("fail to parse model %T: %w", model, err)
			}
			tableName := stmt.Schema.Table
			if e := CreateCustomIndices(tx, model, tableName); e != nil {
				return e
			}
			if e := CreateForeignKeyConstraintsSelf(tx, model, tableName); e != nil {
				return e
			}
		}
		logger.Info("Running post reset hook ...")
		return dbApp.PostReset(tx)
	})
}

// Prepare makes sure the schema of the app exists. A database missing tables is built
// from scratch if it holds no data. With reset the schema is rebuilt unconditionally.
func Prepare(db *gorm.DB, appType types.AppType, reset bool) error {
	if reset {
		return Reset(db, appType, true)
	}
	dbApp := dbAppFromType(appType)
	for _, model := range dbApp.Models() {
		if !db.Migrator().HasTable(model) {
			logger.Info("Table of %T is missing", model)
			return Reset(db, appType, false)
		}
	}
	return nil
}

// DeleteAllData empties every table of the app and reruns the post reset hook. Tests use
// it between cases.
func DeleteAllData(db *gorm.DB, appType types.AppType) error {
	dbApp := dbAppFromType(appType)
	if err := dbApp.PreReset(db); err != nil {
		return err
	}
	return Transaction(db, func(tx *gorm.DB) error {
		stmt := &gorm.Statement{DB: db}
		all := dbApp.Models()
		// children before parents because of foreign keys.
		for i := len(all) - 1; i >= 0; i-- {
			if err := stmt.Parse(all[i]); err != nil {
				return err
			}
			if err := tx.Exec(fmt.Sprintf("DELETE FROM \"%v\"", stmt.Schema.Table)).Error; err != nil {
				return err
			}
		}
		return dbApp.PostReset(tx)
	})
}

// Transaction wraps the database transaction and to proper error handling.
func Transaction(db *gorm.DB, body func(*gorm.DB) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		logger.Error("Transaction: Cannot open transaction %s", tx.Error.Error())
		return tx.Error
	}

	// Error checking and panic safenet.
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("Transaction: rollback due to panic: %v\n%s",
				recovered, string(debug.Stack()))
			if rbErr := tx.Rollback().Error; rbErr != nil {
				logger.Error("Transaction: rollback failed: %v", rbErr)
			}
			panic(recovered)
		}
		if err != nil {
			logger.Debug("Transaction: rollback due to error: %v", err)
			if rbErr := tx.Rollback().Error; rbErr != nil {
				logger.Error("Transaction: rollback failed: %v", rbErr)
			}
		}
	}()

	if err = body(tx); err != nil {
		return err
	}
	return tx.Commit().Error
}

// CreateCustomIndices creates custom indices if model implements models.CustomIndexer.
func CreateCustomIndices(tx *gorm.DB, model interface{}, tableName string) error {
	m, ok := model.(models.CustomIndexer)
	if !ok {
		return nil
	}
	for _, idx := range m.Indexes() {
		unique := ""
		extension := ""
		if idx.Unique {
			unique = "UNIQUE"
		}
		if len(idx.Type) != 0 {
			extension = "USING " + idx.Type
		}
		stmt := fmt.Sprintf(`CREATE %s INDEX IF NOT EXISTS %s_%s ON "%s" %s(%s) %s`,
			unique, tableName, idx.Name, tableName, extension, strings.Join(idx.Fields, ","), idx.Condition)
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("fail to create index %s_%s: %w", tableName, idx.Name, err)
		}
	}
	return nil
}

var foreignKeyNameRe = regexp.MustCompile("(_*[^a-zA-Z]+_*|_+)")

// CreateForeignKeyConstraintsSelf creates foreign key constraint if model implements
// models.ForeignKeyConstrainer.
func CreateForeignKeyConstraintsSelf(tx *gorm.DB, model interface{}, tableName string) error {
	m, ok := model.(models.ForeignKeyConstrainer)
	if !ok {
		return nil
	}
	for _, c := range m.ForeignKeyConstraints() {
		keyName := foreignKeyNameRe.ReplaceAllString(
			fmt.Sprintf("%s_%s_%s_foreign", tableName, c.Field, c.Dest), "_")
		err := tx.Exec(fmt.Sprintf("ALTER TABLE IF EXISTS \"%s\" ADD CONSTRAINT "+
			"%s FOREIGN KEY (%s) REFERENCES %s ON DELETE %s ON UPDATE %s",
			tableName, keyName, c.Field, c.Dest, c.OnDelete, c.OnUpdate)).Error
		if err != nil {
			return fmt.Errorf("fail to create foreign key %s: %w", keyName, err)
		}
	}
	return nil
}

func dropAllTables(db *gorm.DB, dbApp DBApp) error {
	logger.Info("Dropping old tables ...")
	return Transaction(db, func(tx *gorm.DB) error {
		stmt := &gorm.Statement{DB: db}
		for _, model := range dbApp.Models() {
			if err := stmt.Parse(model); err != nil {
				return err
			}
			sql := fmt.Sprintf("DROP TABLE IF EXISTS \"%s\" CASCADE", stmt.Schema.Table)
			if err := tx.Exec(sql).Error; err != nil {
				return fmt.Errorf("exec '%s' failed: %w", sql, err)
			}
		}
		return nil
	})
}
