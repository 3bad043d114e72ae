package flatfile

import (
	"context"
	"log/slog"
	"os"

	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"
	"library-engine/internal/domain/staff"
	"library-engine/internal/infrastructure/monitoring"
)

// decodeAll runs parse over every line, dropping skipped ones. Blank lines are
// ignored silently; every other skipped line is logged and counted.
func decodeAll[T any](ctx context.Context, file *File, logger *slog.Logger, parse func(string) ParseResult[T]) ([]T, int, error) {
	lines, err := file.ReadLines(ctx)
	if err != nil {
		return nil, 0, err
	}

	records := make([]T, 0, len(lines))
	skipped := 0
	for n, line := range lines {
		if isBlank(line) {
			continue
		}
		res := parse(line)
		if res.Skipped {
			skipped++
			logger.WarnContext(ctx, "Skipping malformed line", "line", n+1, "reason", res.Reason)
			continue
		}
		records = append(records, res.Record)
	}

	monitoring.RecordSkippedLines(file.Name(), skipped)
	return records, skipped, nil
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}

func defaultLogger(logger *slog.Logger, who string) *slog.Logger {
	if logger != nil {
		return logger
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger.Warn("Warning: No logger provided to " + who + ", using default stderr handler")
	return logger
}

type ItemRepository struct {
	kind   catalog.Kind
	file   *File
	logger *slog.Logger
}

var _ catalog.Repository = (*ItemRepository)(nil)

func NewItemRepository(kind catalog.Kind, dir, name string, logger *slog.Logger) *ItemRepository {
	logger = defaultLogger(logger, "NewItemRepository")
	return &ItemRepository{
		kind:   kind,
		file:   NewFile(dir, name, logger),
		logger: logger.With("component", "ItemRepository", "kind", kind.String()),
	}
}

func (r *ItemRepository) Kind() catalog.Kind { return r.kind }

func (r *ItemRepository) Load(ctx context.Context) ([]*catalog.Item, int, error) {
	return decodeAll(ctx, r.file, r.logger, func(line string) ParseResult[*catalog.Item] {
		return ParseItem(r.kind, line)
	})
}

func (r *ItemRepository) SaveAll(ctx context.Context, items []*catalog.Item) error {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, FormatItem(item))
	}
	return r.file.WriteLines(ctx, lines)
}

type UserRepository struct {
	file   *File
	logger *slog.Logger
}

var _ member.Repository = (*UserRepository)(nil)

func NewUserRepository(dir, name string, logger *slog.Logger) *UserRepository {
	logger = defaultLogger(logger, "NewUserRepository")
	return &UserRepository{
		file:   NewFile(dir, name, logger),
		logger: logger.With("component", "UserRepository"),
	}
}

func (r *UserRepository) Load(ctx context.Context) ([]*member.User, int, error) {
	return decodeAll(ctx, r.file, r.logger, ParseUser)
}

func (r *UserRepository) SaveAll(ctx context.Context, users []*member.User) error {
	lines := make([]string, 0, len(users))
	for _, u := range users {
		lines = append(lines, FormatUser(u))
	}
	return r.file.WriteLines(ctx, lines)
}

// LoanRepository stores either book loans, which are appended and carry no
// active flag, or CD loans, which are rewritten whole with their flag.
type LoanRepository struct {
	kind   catalog.Kind
	file   *File
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(kind catalog.Kind, dir, name string, logger *slog.Logger) *LoanRepository {
	logger = defaultLogger(logger, "NewLoanRepository")
	return &LoanRepository{
		kind:   kind,
		file:   NewFile(dir, name, logger),
		logger: logger.With("component", "LoanRepository", "kind", kind.String()),
	}
}

func (r *LoanRepository) Load(ctx context.Context) ([]loan.Record, int, error) {
	parse := ParseBookLoan
	if r.kind == catalog.KindCD {
		parse = ParseCDLoan
	}
	return decodeAll(ctx, r.file, r.logger, parse)
}

func (r *LoanRepository) SaveAll(ctx context.Context, loans []*loan.Loan) error {
	lines := make([]string, 0, len(loans))
	for _, l := range loans {
		lines = append(lines, r.format(loan.NewRecord(l)))
	}
	return r.file.WriteLines(ctx, lines)
}

func (r *LoanRepository) Append(ctx context.Context, l *loan.Loan) error {
	return r.file.AppendLine(ctx, r.format(loan.NewRecord(l)))
}

func (r *LoanRepository) format(rec loan.Record) string {
	if r.kind == catalog.KindCD {
		return FormatCDLoan(rec)
	}
	return FormatBookLoan(rec)
}

// AccountRepository reads staff credentials. Accounts are never written back.
type AccountRepository struct {
	role   staff.Role
	file   *File
	logger *slog.Logger
}

var _ staff.Repository = (*AccountRepository)(nil)

func NewAccountRepository(role staff.Role, dir, name string, logger *slog.Logger) *AccountRepository {
	logger = defaultLogger(logger, "NewAccountRepository")
	return &AccountRepository{
		role:   role,
		file:   NewFile(dir, name, logger),
		logger: logger.With("component", "AccountRepository", "role", string(role)),
	}
}

func (r *AccountRepository) Role() staff.Role { return r.role }

func (r *AccountRepository) Load(ctx context.Context) ([]*staff.Account, int, error) {
	accounts, skipped, err := decodeAll(ctx, r.file, r.logger, ParseAccount)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range accounts {
		a.Role = r.role
	}
	return accounts, skipped, nil
}
