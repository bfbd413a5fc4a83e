package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fitcoach/intake-bot/internal/config"
	"github.com/fitcoach/intake-bot/internal/domain"
	"github.com/fitcoach/intake-bot/internal/repository"
	repoPostgres "github.com/fitcoach/intake-bot/internal/repository/postgres"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB creates a new PostgreSQL testcontainer and returns a connection
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_intake_bot"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&domain.User{},
		&domain.AttributionEvent{},
		&domain.Submission{},
		&domain.PromoCode{},
		&domain.PromoRedemption{},
		&domain.ReferralLink{},
		&domain.ReferralClick{},
	)
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	testDB := &TestDB{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}

	t.Cleanup(func() {
		testDB.Cleanup()
	})

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		ctx := context.Background()
		tdb.Container.Terminate(ctx)
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	tables := []string{
		"referral_clicks",
		"referral_links",
		"promo_redemptions",
		"promo_codes",
		"submissions",
		"attribution_events",
		"users",
	}

	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// NewTestRepositories builds the repository set on the test database.
func NewTestRepositories(t *testing.T) (*TestDB, *repository.Repositories) {
	t.Helper()

	testDB := NewTestDB(t)
	return testDB, repoPostgres.NewRepositories(testDB.DB)
}

// TestAdminPassword is the admin password baked into TestConfig.
const TestAdminPassword = "admin-test-password"

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	hash, _ := bcrypt.GenerateFromPassword([]byte(TestAdminPassword), bcrypt.MinCost)

	return &config.Config{
		Port:               "0", // Random port
		Environment:        "test",
		JWTSecret:          "test-jwt-secret-key-for-testing-only",
		JWTExpirationHours: 1,
		AdminPasswordHash:  string(hash),
		OperatorChatIDs:    []int64{100, 200},
		DigestHour:         20,
		DigestMinute:       0,
		ContactPhone:       "+1 555 0100",
		ContactWebsite:     "https://example.com",
	}
}
