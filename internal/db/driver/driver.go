// Package driver opens a db.Store by driver name.
package driver

import (
	"fmt"

	"github.com/kailas-cloud/moviemaster/internal/db"
	dbBadger "github.com/kailas-cloud/moviemaster/internal/db/badger"
	dbBolt "github.com/kailas-cloud/moviemaster/internal/db/bolt"
	dbRedis "github.com/kailas-cloud/moviemaster/internal/db/redis"
)

// Config selects and parameterizes a driver.
// Addrs/Password apply to redis and valkey, Path to badger and bolt.
type Config struct {
	Driver   string
	Addrs    []string
	Password string
	Path     string
}

// Open creates the store for cfg.Driver.
func Open(cfg Config) (db.Store, error) {
	switch cfg.Driver {
	case db.DriverRedis, db.DriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Password:   cfg.Password,
			ClientName: "moviemaster",
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		return s, nil
	case db.DriverBadger:
		s, err := dbBadger.NewStore(dbBadger.Config{Path: cfg.Path})
		if err != nil {
			return nil, fmt.Errorf("create badger store: %w", err)
		}
		return s, nil
	case db.DriverBolt:
		s, err := dbBolt.NewStore(dbBolt.Config{Path: cfg.Path})
		if err != nil {
			return nil, fmt.Errorf("create bolt store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
