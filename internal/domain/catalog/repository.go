package catalog

import "context"

type Repository interface {
	// Kind is the item kind this repository stores.
	Kind() Kind

	// Load returns every well-formed item and the number of skipped lines.
	Load(ctx context.Context) ([]*Item, int, error)

	SaveAll(ctx context.Context, items []*Item) error
}
