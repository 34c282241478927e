package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// catalogRepository реализует CatalogStore и InventoryLedger поверх PostgreSQL.
// Резервирование остатка выполняется одним условным UPDATE, поэтому
// инвариант stock_quantity >= 0 держится без внешних блокировок.
type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию каталога и склада.
func NewCatalogRepository(store *Store) *catalogRepository {
	return &catalogRepository{db: store.DB()}
}

func (r *catalogRepository) FindBookByID(id string) (domain.Book, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var book domain.Book
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, price, stock_quantity, created_at, updated_at
		FROM books
		WHERE id = $1
	`, id).Scan(
		&book.ID, &book.Title, &book.Price, &book.StockQuantity,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, domain.ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("select book: %w", err)
	}

	return book, nil
}

func (r *catalogRepository) FindUserByID(id string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var user domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, full_name
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.FullName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// Reserve атомарно списывает qty со склада и возвращает текущую цену книги.
// Условие stock_quantity >= qty в самом UPDATE исключает уход остатка в минус
// при конкурентных заказах на последние экземпляры.
func (r *catalogRepository) Reserve(bookID string, qty int32) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, domain.ErrItemQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var price decimal.Decimal
	err := r.db.QueryRowContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity - $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND stock_quantity >= $2
		RETURNING price
	`, bookID, qty).Scan(&price)
	if err == nil {
		return price, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("reserve stock: %w", err)
	}

	// UPDATE никого не затронул: различаем отсутствующую книгу и нехватку остатка.
	exists, err := r.bookExists(ctx, bookID)
	if err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, domain.ErrBookNotFound
	}
	return decimal.Zero, domain.ErrInsufficientStock
}

// Release возвращает qty на склад.
func (r *catalogRepository) Release(bookID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrItemQtyInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET stock_quantity = stock_quantity + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, bookID, qty)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

func (r *catalogRepository) bookExists(ctx context.Context, bookID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1`, bookID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check book exists: %w", err)
}

var (
	_ domain.CatalogStore    = (*catalogRepository)(nil)
	_ domain.InventoryLedger = (*catalogRepository)(nil)
)
