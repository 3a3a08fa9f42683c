package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStockLotRepository creates a GormStockLotRepository with a mocked
// SQL connection so the generated SQL can be asserted against.
func newMockStockLotRepository(t *testing.T) (*GormStockLotRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockLotRepository(gormDB), mock, mockDB
}

func TestGormStockLotRepository_FindOpenByItem_Locking(t *testing.T) {
	t.Run("locks rows when forUpdate is set", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLotRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()
		lotID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "item_id", "received_date", "received_qty", "available_qty", "unit_cost", "total_cost"}).
			AddRow(lotID, itemID, time.Now(), decimal.NewFromInt(10), decimal.NewFromInt(10), decimal.NewFromInt(5), decimal.NewFromInt(50))

		mock.ExpectQuery(`SELECT \* FROM "stock_lots" WHERE item_id = \$1 AND available_qty > 0 ORDER BY received_date ASC, created_at ASC FOR UPDATE`).
			WithArgs(itemID).
			WillReturnRows(rows)

		lots, err := repo.FindOpenByItem(context.Background(), itemID, true)

		assert.NoError(t, err)
		require.Len(t, lots, 1)
		assert.Equal(t, lotID, lots[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reads without lock when forUpdate is not set", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLotRepository(t)
		defer mockDB.Close()

		itemID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_lots" WHERE item_id = \$1 AND available_qty > 0 ORDER BY received_date ASC, created_at ASC$`).
			WithArgs(itemID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "item_id"}))

		lots, err := repo.FindOpenByItem(context.Background(), itemID, false)

		assert.NoError(t, err)
		assert.Empty(t, lots)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
