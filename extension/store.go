package extension

import (
	"fmt"
	"strings"

	"github.com/xraph/grove"

	"github.com/lawclick/tenantguard/store"
	"github.com/lawclick/tenantguard/store/mongo"
	"github.com/lawclick/tenantguard/store/postgres"
	"github.com/lawclick/tenantguard/store/sqlite"
)

// Store drivers accepted by Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// NewStore builds the grove-backed store for driver on db.
func NewStore(driver string, db *grove.DB) (store.Store, error) {
	if db == nil {
		return nil, fmt.Errorf("tenantguard: driver %q needs a grove database", driver)
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverPostgres, "pg", "postgresql":
		return postgres.New(db), nil
	case DriverMongo, "mongodb":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("tenantguard: unknown store driver %q", driver)
	}
}
