package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/library"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockService struct {
	mock.Mock
}

var _ library.Service = (*MockService)(nil)

func (m *MockService) Load(ctx context.Context) (library.LoadReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(library.LoadReport), args.Error(1)
}

func (m *MockService) AddBook(ctx context.Context, title, author, isbn string) (*catalog.Item, error) {
	args := m.Called(ctx, title, author, isbn)
	item, _ := args.Get(0).(*catalog.Item)
	return item, args.Error(1)
}

func (m *MockService) AddCD(ctx context.Context, title, artist, id string) (*catalog.Item, error) {
	args := m.Called(ctx, title, artist, id)
	item, _ := args.Get(0).(*catalog.Item)
	return item, args.Error(1)
}

func (m *MockService) Book(ctx context.Context, isbn string) (*catalog.Item, error) {
	args := m.Called(ctx, isbn)
	item, _ := args.Get(0).(*catalog.Item)
	return item, args.Error(1)
}

func (m *MockService) CD(ctx context.Context, id string) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*catalog.Item)
	return item, args.Error(1)
}

func (m *MockService) Books(ctx context.Context) []*catalog.Item {
	items, _ := m.Called(ctx).Get(0).([]*catalog.Item)
	return items
}

func (m *MockService) CDs(ctx context.Context) []*catalog.Item {
	items, _ := m.Called(ctx).Get(0).([]*catalog.Item)
	return items
}

func (m *MockService) SearchBooks(ctx context.Context, keyword string) []*catalog.Item {
	items, _ := m.Called(ctx, keyword).Get(0).([]*catalog.Item)
	return items
}

func (m *MockService) SearchCDs(ctx context.Context, keyword string) []*catalog.Item {
	items, _ := m.Called(ctx, keyword).Get(0).([]*catalog.Item)
	return items
}

func (m *MockService) RegisterUser(ctx context.Context, name, email string) (*member.User, error) {
	args := m.Called(ctx, name, email)
	u, _ := args.Get(0).(*member.User)
	return u, args.Error(1)
}

func (m *MockService) User(ctx context.Context, name string) (*member.User, error) {
	args := m.Called(ctx, name)
	u, _ := args.Get(0).(*member.User)
	return u, args.Error(1)
}

func (m *MockService) Users(ctx context.Context) []*member.User {
	users, _ := m.Called(ctx).Get(0).([]*member.User)
	return users
}

func (m *MockService) PayFine(ctx context.Context, name string, amount decimal.Decimal) (*member.User, error) {
	args := m.Called(ctx, name, amount)
	u, _ := args.Get(0).(*member.User)
	return u, args.Error(1)
}

func (m *MockService) UnregisterUser(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockService) BorrowBook(ctx context.Context, userName, isbn string) (*loan.Loan, error) {
	args := m.Called(ctx, userName, isbn)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockService) BorrowCD(ctx context.Context, userName, cdID string) (*loan.Loan, error) {
	args := m.Called(ctx, userName, cdID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockService) ReturnBook(ctx context.Context, userName, isbn string) (*library.Receipt, error) {
	args := m.Called(ctx, userName, isbn)
	r, _ := args.Get(0).(*library.Receipt)
	return r, args.Error(1)
}

func (m *MockService) ReturnCD(ctx context.Context, userName, cdID string) (*library.Receipt, error) {
	args := m.Called(ctx, userName, cdID)
	r, _ := args.Get(0).(*library.Receipt)
	return r, args.Error(1)
}

func (m *MockService) OverdueLoans(ctx context.Context) []*loan.Loan {
	loans, _ := m.Called(ctx).Get(0).([]*loan.Loan)
	return loans
}

func (m *MockService) OverdueCDLoans(ctx context.Context) []*loan.Loan {
	loans, _ := m.Called(ctx).Get(0).([]*loan.Loan)
	return loans
}

func (m *MockService) AllOverdueLoans(ctx context.Context) []*loan.Loan {
	loans, _ := m.Called(ctx).Get(0).([]*loan.Loan)
	return loans
}

func (m *MockService) LoansFor(ctx context.Context, userName string) ([]*loan.Loan, error) {
	args := m.Called(ctx, userName)
	loans, _ := args.Get(0).([]*loan.Loan)
	return loans, args.Error(1)
}

func (m *MockService) OverdueCount(ctx context.Context, userName string) (int, error) {
	args := m.Called(ctx, userName)
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRequest builds a request with chi URL params already resolved.
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if len(params) == 0 {
		return req
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
