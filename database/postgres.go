package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warbler/domain"
)

const (
	DialectPostgres = "postgres"
	DialectSqlite   = "sqlite"
)

// DB provides the database connection.
type DB struct {
	// Object-relational mapping.
	Gorm *gorm.DB
	// Dialect is either DialectPostgres or DialectSqlite.
	Dialect string
	// Connection info string containing database name, user, port etc.
	// For sqlite, this is the path of the database file.
	ConnectionInfo string
}

// NewDB returns a new instance of DB.
func NewDB(dialect, connectionInfo string) *DB {
	return &DB{
		Dialect:        dialect,
		ConnectionInfo: connectionInfo,
	}
}

// Open opens a new database connection. It also configures logging
// based on whether we're in development or in production.
func Open(db *DB, isProd bool) (err error) {
	if db.ConnectionInfo == "" {
		return fmt.Errorf("connectionInfo required")
	}
	logMode := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	if !isProd {
		logMode.Logger = logger.Default.LogMode(logger.Info)
	}
	var dialector gorm.Dialector
	switch db.Dialect {
	case DialectPostgres, "":
		dialector = postgres.Open(db.ConnectionInfo)
	case DialectSqlite:
		dialector = sqlite.Open(db.ConnectionInfo)
	default:
		return fmt.Errorf("unsupported database dialect %q", db.Dialect)
	}
	db.Gorm, err = gorm.Open(dialector, logMode)
	if err != nil {
		return fmt.Errorf("err opening gorm %s connection: %w", db.Dialect, err)
	}
	return nil
}

// models lists every table of the app, in dependency order.
func models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Message{},
		&domain.Follow{},
		&domain.Like{},
	}
}

// AutoMigrate runs database migrations for all tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models()...)
}

// DestructiveReset drops all tables and rebuilds them.
func DestructiveReset(db *gorm.DB) error {
	tables := models()
	// Drop dependents first so foreign keys don't block the drop.
	for i := len(tables) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(tables[i]); err != nil {
			return err
		}
	}
	return AutoMigrate(db)
}

// Close closes the database connection.
func Close(db *DB) error {
	sqlDb, err := db.Gorm.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}
