package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// catalogRepositoryInMemory хранит книги и пользователей и реализует сразу
// два порта: CatalogStore (чтение) и InventoryLedger (остатки).
// Проверка и списание остатка выполняются под одним мьютексом, поэтому
// два конкурентных резерва последнего экземпляра не пройдут оба.
type catalogRepositoryInMemory struct {
	mu    sync.RWMutex
	books map[string]domain.Book
	users map[string]domain.User
}

// NewCatalogRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewCatalogRepository() *catalogRepositoryInMemory {
	return &catalogRepositoryInMemory{
		books: make(map[string]domain.Book),
		users: make(map[string]domain.User),
	}
}

// PutBook добавляет или обновляет книгу в каталоге (seed для dev/тестов).
func (r *catalogRepositoryInMemory) PutBook(book domain.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}
	book.UpdatedAt = time.Now().UTC()
	r.books[book.ID] = book
}

// PutUser добавляет или обновляет пользователя (seed для dev/тестов).
func (r *catalogRepositoryInMemory) PutUser(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

// FindBookByID возвращает книгу или ErrBookNotFound.
func (r *catalogRepositoryInMemory) FindBookByID(id string) (domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound
	}
	return book, nil
}

// FindUserByID возвращает пользователя или ErrUserNotFound.
func (r *catalogRepositoryInMemory) FindUserByID(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// Reserve атомарно списывает qty со склада и возвращает цену на момент списания.
func (r *catalogRepositoryInMemory) Reserve(bookID string, qty int32) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, domain.ErrItemQtyInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[bookID]
	if !ok {
		return decimal.Zero, domain.ErrBookNotFound
	}
	if book.StockQuantity < qty {
		return decimal.Zero, fmt.Errorf("%w: book %s has %d, requested %d",
			domain.ErrInsufficientStock, bookID, book.StockQuantity, qty)
	}

	book.StockQuantity -= qty
	book.UpdatedAt = time.Now().UTC()
	r.books[bookID] = book

	return book.Price, nil
}

// Release возвращает qty на склад; ошибка только если книги больше нет.
func (r *catalogRepositoryInMemory) Release(bookID string, qty int32) error {
	if qty <= 0 {
		return domain.ErrItemQtyInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[bookID]
	if !ok {
		return domain.ErrBookNotFound
	}

	book.StockQuantity += qty
	book.UpdatedAt = time.Now().UTC()
	r.books[bookID] = book
	return nil
}

var (
	_ domain.CatalogStore    = (*catalogRepositoryInMemory)(nil)
	_ domain.InventoryLedger = (*catalogRepositoryInMemory)(nil)
)
