package history

import "context"

type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByApplication(ctx context.Context, applicationID string) ([]Entry, error)
}
