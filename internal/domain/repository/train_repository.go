package repository

import (
	"context"

	"github.com/oksasatya/trainboard/internal/domain/entity"
)

// TrainRepository defines persistence for trains.
type TrainRepository interface {
	TrainSearcher

	Create(ctx context.Context, t *entity.Train) error
	List(ctx context.Context) ([]*entity.Train, error)
	GetByID(ctx context.Context, id int64) (*entity.Train, error)
	ListByUserID(ctx context.Context, userID int64) ([]*entity.Train, error)

	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Train, error)
	Update(ctx context.Context, t *entity.Train) error
	Delete(ctx context.Context, id int64) error

	// WithinTx runs fn against a repository bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo TrainRepository) error) error
}

// TrainSearcher answers paginated substring queries.
type TrainSearcher interface {
	Search(ctx context.Context, q entity.TrainSearch) ([]*entity.Train, error)
}

// TrainIndexer mirrors trains into a secondary search index.
type TrainIndexer interface {
	TrainSearcher
	Index(ctx context.Context, t *entity.Train) error
	Remove(ctx context.Context, id int64) error
}
