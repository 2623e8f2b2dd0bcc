// Package testdb provides isolated SurrealDB environments for integration
// tests.
//
// Tests run only when TEST_DB_HOST is set; otherwise they are skipped so the
// unit suite never needs a live database.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    user := tdb.CreateUser(t, "member", "free")
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/questline/internal/database"
)

// schema is the subset of the user table the repositories rely on
const schema = `
DEFINE TABLE user SCHEMALESS;
DEFINE FIELD email ON user TYPE string;
DEFINE FIELD role ON user TYPE string DEFAULT 'member';
DEFINE FIELD subscription_tier ON user TYPE string DEFAULT 'free';
DEFINE FIELD onboarding_completed ON user TYPE bool DEFAULT false;
DEFINE FIELD created_on ON user TYPE datetime DEFAULT time::now();
DEFINE FIELD updated_on ON user TYPE datetime DEFAULT time::now();
DEFINE INDEX user_email ON user FIELDS email UNIQUE;
DEFINE INDEX user_display_name ON user FIELDS display_name UNIQUE;
`

// TestDB is a database connection scoped to a unique namespace
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
}

var (
	counterMu sync.Mutex
	counter   int64
)

// getTestConfig returns database config from the environment, or false
// when no test database is configured
func getTestConfig() (database.Config, bool) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return database.Config{}, false
	}
	return database.Config{
		Host:     host,
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
	}, true
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// uniqueNamespace generates a unique namespace for test isolation
func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// New connects to the test database, applies the schema in a fresh
// namespace and removes the namespace when the test ends
func New(t *testing.T) *TestDB {
	t.Helper()

	cfg, ok := getTestConfig()
	if !ok {
		t.Skip("TEST_DB_HOST not set; skipping database integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Fatalf("testdb: failed to connect: %v", err)
	}

	tdb := &TestDB{DB: db, Namespace: cfg.Namespace, Database: cfg.Database}
	t.Cleanup(tdb.close)

	if err := db.Execute(ctx, schema, nil); err != nil {
		t.Fatalf("testdb: schema failed: %v", err)
	}
	return tdb
}

func (tdb *TestDB) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
}

// Ctx returns a context with a timeout suited to a single test operation
func (tdb *TestDB) Ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CreateUser inserts a user with the given role and tier and a unique
// display name, and returns its id
func (tdb *TestDB) CreateUser(t *testing.T, role, tier string) string {
	t.Helper()

	suffix := uniqueNamespace()
	result, err := tdb.DB.QueryOne(tdb.Ctx(t),
		`CREATE user CONTENT { email: $email, display_name: $name, role: $role, subscription_tier: $tier }`,
		map[string]any{
			"email": fmt.Sprintf("%s@questline.test", suffix),
			"name":  "adventurer_" + suffix,
			"role":  role,
			"tier":  tier,
		})
	if err != nil {
		t.Fatalf("testdb: create user: %v", err)
	}

	record, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("testdb: unexpected create result %T", result)
	}
	var id string
	switch rid := record["id"].(type) {
	case models.RecordID:
		id = fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	case *models.RecordID:
		id = fmt.Sprintf("%s:%v", rid.Table, rid.ID)
	case string:
		id = rid
	}
	if id == "" {
		t.Fatal("testdb: created user has no id")
	}
	return id
}
