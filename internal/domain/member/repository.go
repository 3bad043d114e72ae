package member

import "context"

type Repository interface {
	// Load returns every well-formed user and the number of skipped lines.
	Load(ctx context.Context) ([]*User, int, error)

	SaveAll(ctx context.Context, users []*User) error
}
