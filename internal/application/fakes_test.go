package application

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/internal/domain/entity"
	repo "github.com/oksasatya/trainboard/internal/domain/repository"
)

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]entity.User
}

func newMemUsers() *memUsers { return &memUsers{rows: map[int64]entity.User{}} }

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	m.rows[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memTrains struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]entity.Train
	txs    int
	failOn string
}

func newMemTrains() *memTrains { return &memTrains{rows: map[int64]entity.Train{}} }

var errStoreDown = errors.New("store down")

func (m *memTrains) Create(_ context.Context, t *entity.Train) error {
	if m.failOn == "create" {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt, t.UpdatedAt = time.Now(), time.Now()
	m.rows[t.ID] = *t
	return nil
}

func (m *memTrains) sorted(keep func(entity.Train) bool) []*entity.Train {
	out := []*entity.Train{}
	for _, t := range m.rows {
		if keep(t) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memTrains) List(_ context.Context) ([]*entity.Train, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(entity.Train) bool { return true }), nil
}

func (m *memTrains) GetByID(_ context.Context, id int64) (*entity.Train, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *memTrains) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Train, error) {
	return m.GetByID(ctx, id)
}

func (m *memTrains) ListByUserID(_ context.Context, userID int64) ([]*entity.Train, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(t entity.Train) bool { return t.UserID == userID }), nil
}

func (m *memTrains) Update(_ context.Context, t *entity.Train) error {
	if m.failOn == "update" {
		return errStoreDown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return domain.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	m.rows[t.ID] = *t
	return nil
}

func (m *memTrains) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTrains) Search(_ context.Context, q entity.TrainSearch) ([]*entity.Train, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	needle := strings.ToLower(q.Query)
	all := m.sorted(func(t entity.Train) bool {
		if q.OwnerID != nil && t.UserID != *q.OwnerID {
			return false
		}
		return strings.Contains(strings.ToLower(t.Name), needle) ||
			strings.Contains(strings.ToLower(t.Origin), needle) ||
			strings.Contains(strings.ToLower(t.Destination), needle)
	})
	if q.Offset >= len(all) {
		return []*entity.Train{}, nil
	}
	end := min(q.Offset+q.Limit, len(all))
	return all[q.Offset:end], nil
}

func (m *memTrains) WithinTx(ctx context.Context, fn func(ctx context.Context, r repo.TrainRepository) error) error {
	m.mu.Lock()
	m.txs++
	m.mu.Unlock()
	return fn(ctx, m)
}

// recIndex records index calls and can answer searches with a fixed result.
type recIndex struct {
	indexed   []int64
	removed   []int64
	searched  []entity.TrainSearch
	result    []*entity.Train
	err       error
	searchErr error
}

func (r *recIndex) Index(_ context.Context, t *entity.Train) error {
	r.indexed = append(r.indexed, t.ID)
	return r.err
}

func (r *recIndex) Remove(_ context.Context, id int64) error {
	r.removed = append(r.removed, id)
	return r.err
}

func (r *recIndex) Search(_ context.Context, q entity.TrainSearch) ([]*entity.Train, error) {
	r.searched = append(r.searched, q)
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.result, nil
}

type recPublisher struct {
	jobs []any
	err  error
}

func (p *recPublisher) PublishJSON(_ context.Context, body any) error {
	p.jobs = append(p.jobs, body)
	return p.err
}
