package mysql

import (
	"context"
	"regexp"
	"testing"

	"storefront-service/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRepo_CreateOmitsRatingColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db, quietLogger())

	mock.ExpectExec("^" + regexp.QuoteMeta(
		"INSERT INTO `products` (`artisan_id`,`name`,`category`,`price`,`stock`,`created_at`,`updated_at`) VALUES (?,?,?,?,?,?,?)",
	) + "$").WillReturnResult(sqlmock.NewResult(7, 1))

	p := &domain.Product{
		ArtisanID:   10,
		Name:        "Clay Vase",
		Category:    "pottery",
		Price:       decimal.NewFromInt(100),
		Stock:       5,
		Rating:      4.9,
		ReviewCount: 12,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.Equal(t, uint64(7), p.ID)
	assert.Zero(t, p.Rating)
	assert.Zero(t, p.ReviewCount)
}

func TestProductRepo_DecrementStock(t *testing.T) {
	decrement := "^" + regexp.QuoteMeta("UPDATE `products` SET `stock`=stock - ?,`updated_at`=? WHERE ") +
		`\(?` + regexp.QuoteMeta("id = ? AND stock >= ?") + `\)?$`

	tests := []struct {
		name       string
		qty        int64
		setupMocks func(sqlmock.Sqlmock)
		wantOK     bool
		wantErr    error
	}{
		{
			name: "row updated",
			qty:  2,
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectExec(decrement).
					WithArgs(int64(2), sqlmock.AnyArg(), 1, int64(2)).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantOK: true,
		},
		{
			name: "predicate rejects the update",
			qty:  9,
			setupMocks: func(m sqlmock.Sqlmock) {
				m.ExpectExec(decrement).
					WithArgs(int64(9), sqlmock.AnyArg(), 1, int64(9)).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantOK: false,
		},
		{
			name:       "non-positive quantity never reaches the database",
			qty:        -3,
			setupMocks: func(sqlmock.Sqlmock) {},
			wantErr:    domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setupMocks(mock)
			repo := NewProductRepository(db, quietLogger())

			ok, err := repo.DecrementStock(context.Background(), 1, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestProductRepo_LockByID(t *testing.T) {
	selectProduct := regexp.QuoteMeta("SELECT * FROM `products` WHERE `products`.`id` = ? ORDER BY `products`.`id` LIMIT ")

	t.Run("inside a transaction the row is locked", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db, quietLogger())

		mock.ExpectBegin()
		mock.ExpectQuery("^" + selectProduct + `.+ FOR UPDATE$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "artisan_id", "name", "price", "stock"}).
				AddRow(1, 10, "Clay Vase", "100.00", 3))
		mock.ExpectCommit()

		err := NewTransactor(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
			p, err := repo.LockByID(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.Equal(t, int64(3), p.Stock)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("outside a transaction it is a plain read", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewProductRepository(db, quietLogger())

		mock.ExpectQuery("^" + selectProduct + `\S+$`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "artisan_id", "name", "price", "stock"}))

		p, err := repo.LockByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestProductRepo_SetRatingSummaryWritesOnlyRatingColumns(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db, quietLogger())

	mock.ExpectExec("^"+regexp.QuoteMeta("UPDATE `products` SET `rating`=?,`review_count`=? WHERE id = ?")+"$").
		WithArgs(4.5, int64(2), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetRatingSummary(context.Background(), 1, domain.RatingSummary{Rating: 4.5, ReviewCount: 2}))
}

func TestProductRepo_UpdatePriceMissingProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db, quietLogger())

	mock.ExpectExec("^" + regexp.QuoteMeta("UPDATE `products` SET `price`=?,`updated_at`=? WHERE id = ?") + "$").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePrice(context.Background(), 42, decimal.NewFromInt(5))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
