package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/internal/domain/entity"
	"github.com/oksasatya/trainboard/internal/domain/repository"
)

const trainColumns = `id, name, departure, arrival, origin, destination, user_id, created_at, updated_at`

type TrainRepository struct {
	db DBTX
}

func NewTrainRepository(db DBTX) *TrainRepository {
	return &TrainRepository{db: db}
}

func scanTrain(row pgx.Row) (*entity.Train, error) {
	t := &entity.Train{}
	err := row.Scan(&t.ID, &t.Name, &t.Departure, &t.Arrival, &t.Origin, &t.Destination,
		&t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TrainRepository) Create(ctx context.Context, t *entity.Train) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO trains (name, departure, arrival, origin, destination, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, t.Name, t.Departure, t.Arrival, t.Origin, t.Destination, t.UserID)

	if err := row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		err = translate(err)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("owner %d: %w", t.UserID, err)
		}
		return fmt.Errorf("insert train: %w", err)
	}
	return nil
}

func (r *TrainRepository) List(ctx context.Context) ([]*entity.Train, error) {
	return r.list(ctx, `SELECT `+trainColumns+` FROM trains ORDER BY id`)
}

func (r *TrainRepository) ListByUserID(ctx context.Context, userID int64) ([]*entity.Train, error) {
	return r.list(ctx, `SELECT `+trainColumns+` FROM trains WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *TrainRepository) GetByID(ctx context.Context, id int64) (*entity.Train, error) {
	return r.getOne(ctx, `SELECT `+trainColumns+` FROM trains WHERE id = $1`, id)
}

func (r *TrainRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Train, error) {
	return r.getOne(ctx, `SELECT `+trainColumns+` FROM trains WHERE id = $1 FOR UPDATE`, id)
}

func (r *TrainRepository) Update(ctx context.Context, t *entity.Train) error {
	err := r.db.QueryRow(ctx, `
		UPDATE trains
		SET name = $1, departure = $2, arrival = $3, origin = $4, destination = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, t.Name, t.Departure, t.Arrival, t.Origin, t.Destination, t.ID).Scan(&t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update train %d: %w", t.ID, translate(err))
	}
	return nil
}

func (r *TrainRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Exec(ctx, `DELETE FROM trains WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete train %d: %w", id, err)
	}
	if res.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Search matches q case-insensitively against name, origin and destination.
// LIKE wildcards in q are matched literally.
func (r *TrainRepository) Search(ctx context.Context, q entity.TrainSearch) ([]*entity.Train, error) {
	var sb strings.Builder
	args := []any{"%" + escapeLike(q.Query) + "%"}

	sb.WriteString(`SELECT ` + trainColumns + ` FROM trains
		WHERE (name ILIKE $1 OR origin ILIKE $1 OR destination ILIKE $1)`)
	if q.OwnerID != nil {
		args = append(args, *q.OwnerID)
		sb.WriteString(` AND user_id = $` + strconv.Itoa(len(args)))
	}
	args = append(args, q.Limit, q.Offset)
	sb.WriteString(` ORDER BY id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args)))

	return r.list(ctx, sb.String(), args...)
}

// WithinTx runs fn with a repository bound to one transaction.
func (r *TrainRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo repository.TrainRepository) error) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, NewTrainRepository(tx))
	})
}

func (r *TrainRepository) getOne(ctx context.Context, query string, id int64) (*entity.Train, error) {
	t, err := scanTrain(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err := translate(err); errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("select train %d: %w", id, err)
	}
	return t, nil
}

func (r *TrainRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Train, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trains: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Train, 0)
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan train: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trains: %w", err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var _ repository.TrainRepository = (*TrainRepository)(nil)
