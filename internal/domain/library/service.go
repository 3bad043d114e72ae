package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"

	"github.com/shopspring/decimal"
)

// Service orchestrates the catalog, the member ledger and the loan book.
// Every returned item, user or loan is a detached copy.
type Service interface {
	Load(ctx context.Context) (LoadReport, error)

	AddBook(ctx context.Context, title, author, isbn string) (*catalog.Item, error)

	AddCD(ctx context.Context, title, artist, id string) (*catalog.Item, error)

	Book(ctx context.Context, isbn string) (*catalog.Item, error)

	CD(ctx context.Context, id string) (*catalog.Item, error)

	Books(ctx context.Context) []*catalog.Item

	CDs(ctx context.Context) []*catalog.Item

	SearchBooks(ctx context.Context, keyword string) []*catalog.Item

	SearchCDs(ctx context.Context, keyword string) []*catalog.Item

	RegisterUser(ctx context.Context, name, email string) (*member.User, error)

	User(ctx context.Context, name string) (*member.User, error)

	Users(ctx context.Context) []*member.User

	PayFine(ctx context.Context, name string, amount decimal.Decimal) (*member.User, error)

	UnregisterUser(ctx context.Context, name string) error

	BorrowBook(ctx context.Context, userName, isbn string) (*loan.Loan, error)

	BorrowCD(ctx context.Context, userName, cdID string) (*loan.Loan, error)

	ReturnBook(ctx context.Context, userName, isbn string) (*Receipt, error)

	ReturnCD(ctx context.Context, userName, cdID string) (*Receipt, error)

	OverdueLoans(ctx context.Context) []*loan.Loan

	OverdueCDLoans(ctx context.Context) []*loan.Loan

	AllOverdueLoans(ctx context.Context) []*loan.Loan

	LoansFor(ctx context.Context, userName string) ([]*loan.Loan, error)

	OverdueCount(ctx context.Context, userName string) (int, error)
}

// Repositories are the backing stores the service loads from and writes to.
type Repositories struct {
	Books     catalog.Repository
	CDs       catalog.Repository
	Users     member.Repository
	BookLoans loan.Repository
	CDLoans   loan.Repository
}

// Receipt describes a completed return.
type Receipt struct {
	Loan        *loan.Loan
	OverdueDays int
	Fine        decimal.Decimal
}

type Option func(*service)

// WithClock replaces the source of the current date.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	mu     sync.Mutex
	repos  Repositories
	logger *slog.Logger
	now    func() time.Time

	books *shelf
	cds   *shelf
	users *roster
	loans map[catalog.Kind][]*loan.Loan
}

func NewService(repos Repositories, logger *slog.Logger, opts ...Option) Service {
	if logger == nil {
		panic("logger cannot be nil")
	}
	s := &service{
		repos:  repos,
		logger: logger.With("component", "libraryService"),
		now:    time.Now,
		books:  newShelf(catalog.KindBook),
		cds:    newShelf(catalog.KindCD),
		users:  newRoster(),
		loans:  make(map[catalog.Kind][]*loan.Loan),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) shelfFor(kind catalog.Kind) *shelf {
	if kind == catalog.KindCD {
		return s.cds
	}
	return s.books
}

func (s *service) catalogRepo(kind catalog.Kind) catalog.Repository {
	if kind == catalog.KindCD {
		return s.repos.CDs
	}
	return s.repos.Books
}

func (s *service) loanRepo(kind catalog.Kind) loan.Repository {
	if kind == catalog.KindCD {
		return s.repos.CDLoans
	}
	return s.repos.BookLoans
}

func cloneItems(items []*catalog.Item) []*catalog.Item {
	out := make([]*catalog.Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func cloneLoans(loans []*loan.Loan) []*loan.Loan {
	out := make([]*loan.Loan, len(loans))
	for i, l := range loans {
		out[i] = l.Clone()
	}
	return out
}
