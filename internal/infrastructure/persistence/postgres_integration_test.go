//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/anchala/pos/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a throwaway PostgreSQL container and applies the
// migrations with the same migrator the server uses
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pos_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.New(conn, migration.Config{MigrationsPath: findMigrationsPath(t)}, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	status, err := m.Status()
	require.NoError(t, err)
	require.Empty(t, status.Pending)
	require.False(t, status.Dirty)
	_ = m.Close()

	gormConfig := &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), gormConfig)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func findMigrationsPath(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)

	dir := filepath.Dir(filename)
	for i := 0; i < 6; i++ {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	t.Fatal("migrations directory not found")
	return ""
}

func TestPostgres_SaleAndLedger(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	sales := NewGormSaleRepository(db)
	ledger := NewGormLedgerRepository(db)

	n, err := sales.NextBillNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, sales.CreateWithLines(ctx, sareeSale(t, "1")))
	err = sales.CreateWithLines(ctx, sareeSale(t, "1"))
	assert.True(t, shared.IsPersistence(err), "duplicate bill number must be rejected")

	n, err = sales.NextBillNo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := sales.FindByBillNo(ctx, "1")
	require.NoError(t, err)
	assert.True(t, dec("1600").Equal(got.Amount))
	assert.True(t, dec("600").Equal(got.Balance))
	require.Len(t, got.Lines, 1)

	rec, err := trade.NewReturnRecord("1", "A1", 1, dec("800"), "torn", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	after, err := ledger.RecordReturn(ctx, rec, 2)
	require.NoError(t, err)
	assert.True(t, dec("1800").Equal(after.Paid))
	assert.True(t, after.Balance.IsZero())

	qty, err := returnedQuantity(db, "1", "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
}

func TestPostgres_ConcurrentReturnsStayWithinSoldQuantity(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	sales := NewGormSaleRepository(db)
	ledger := NewGormLedgerRepository(db)
	require.NoError(t, sales.CreateWithLines(ctx, sareeSale(t, "1")))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := trade.NewReturnRecord("1", "A1", 1, dec("0"), "", time.Now())
			if !assert.NoError(t, err) {
				return
			}
			if _, err := ledger.RecordReturn(ctx, rec, 2); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, accepted)
	qty, err := returnedQuantity(db, "1", "A1")
	require.NoError(t, err)
	assert.Equal(t, 2, qty)
}

func TestPostgres_ConcurrentPaymentsClampAtZero(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	sales := NewGormSaleRepository(db)
	ledger := NewGormLedgerRepository(db)
	require.NoError(t, sales.CreateWithLines(ctx, sareeSale(t, "1")))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := trade.NewBalancePayment("1", "Meena", dec("200"), "", time.Now())
			if assert.NoError(t, err) {
				_, err = ledger.RecordBalancePayment(ctx, p)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := sales.FindByBillNo(ctx, "1")
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero(), "balance %s", got.Balance)
	assert.True(t, dec("1800").Equal(got.Paid), "paid %s", got.Paid)

	payments, err := ledger.FindBalancePayments(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, payments, 4)
}

func TestPostgres_CatalogSource(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(`INSERT INTO purchase_audit (product_code, product_name, cost, price) VALUES
		('A1', 'Saree', 500, 800),
		('B7', 'Dupatta', 120, 250)`).Error)

	entries, err := NewGormCatalogSource(db, "").LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "A1", entries[0].ProductCode)
	assert.True(t, dec("800").Equal(entries[0].Price))
}
