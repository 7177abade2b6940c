package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotConnected is returned by DB before Open or after Close.
var ErrNotConnected = errors.New("database connection is not open")

// NewDialector picks the GORM dialector for driver. For SQLite the dsn is a
// file path or ":memory:".
func NewDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgresdriver.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Connection owns the database handle. It is created explicitly and passed
// to whoever needs it; there is no package-level instance.
type Connection struct {
	dialector gorm.Dialector
	logLevel  logger.LogLevel

	mu sync.Mutex
	db *gorm.DB
}

// NewConnection creates a closed handle. Open connects.
func NewConnection(dialector gorm.Dialector) *Connection {
	return &Connection{
		dialector: dialector,
		logLevel:  logger.Warn,
	}
}

// Open connects and pings the database. Calling it again while connected
// returns the existing handle.
func (c *Connection) Open(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	db, err := gorm.Open(c.dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(c.logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", c.dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if c.dialector.Name() == DriverSQLite {
		// SQLite allows one writer; a single connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", c.dialector.Name(), err)
	}

	c.db = db
	return db, nil
}

// DB returns the open handle or ErrNotConnected.
func (c *Connection) DB() (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil, ErrNotConnected
	}
	return c.db, nil
}

// Close releases the pool. Closing a connection that is not open does nothing.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	c.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
