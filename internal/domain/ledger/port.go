package ledger

import "context"

// Repository port for persisting and querying ledger entries
type Repository interface {
	Save(ctx context.Context, e *Entry) error
	Paginate(ctx context.Context, userID string, page, pageSize int) ([]*Entry, error)
}

// ReportArchive stores the JSON body of a successful analysis and returns a link to it.
type ReportArchive interface {
	PutReport(ctx context.Context, key string, body []byte) (string, error)
}
