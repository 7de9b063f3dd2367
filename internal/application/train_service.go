package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/trainboard/internal/domain"
	"github.com/oksasatya/trainboard/internal/domain/entity"
	repo "github.com/oksasatya/trainboard/internal/domain/repository"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

// TrainService owns train CRUD, search and the ownership rule: only the
// owning user may update or delete a train.
type TrainService struct {
	Trains repo.TrainRepository
	Users  repo.UserRepository
	Logger *logrus.Logger

	// Index is optional. When set, writes are mirrored into it and Search
	// is answered from it instead of the database.
	Index repo.TrainIndexer

	// set once a mirror write fails; Search then goes to the database
	// until the process restarts and reindexes
	indexStale atomic.Bool
}

func NewTrainService(trains repo.TrainRepository, users repo.UserRepository, logger *logrus.Logger, index repo.TrainIndexer) *TrainService {
	return &TrainService{Trains: trains, Users: users, Logger: logger, Index: index}
}

type CreateTrainInput struct {
	Name        string
	Departure   time.Time
	Arrival     time.Time
	Origin      string
	Destination string
}

func validateTrain(t *entity.Train) error {
	var missing []string
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if t.Origin == "" {
		missing = append(missing, "origin")
	}
	if t.Destination == "" {
		missing = append(missing, "destination")
	}
	if t.Departure.IsZero() {
		missing = append(missing, "departure")
	}
	if t.Arrival.IsZero() {
		missing = append(missing, "arrival")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrInvalidArgument, strings.Join(missing, ", "))
	}
	if t.Departure.After(t.Arrival) {
		return fmt.Errorf("%w: departure must not be after arrival", domain.ErrInvalidArgument)
	}
	return nil
}

// Create persists a new train owned by ownerID.
func (s *TrainService) Create(ctx context.Context, in CreateTrainInput, ownerID int64) (*entity.Train, error) {
	t := &entity.Train{
		Name:        strings.TrimSpace(in.Name),
		Departure:   in.Departure,
		Arrival:     in.Arrival,
		Origin:      strings.TrimSpace(in.Origin),
		Destination: strings.TrimSpace(in.Destination),
		UserID:      ownerID,
	}
	if err := validateTrain(t); err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: owner %d does not exist", domain.ErrNotFound, ownerID)
		}
		return nil, err
	}
	if err := s.Trains.Create(ctx, t); err != nil {
		s.Logger.WithError(err).WithField("user_id", ownerID).Error("create train failed")
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"train_id": t.ID, "user_id": ownerID}).Info("train created")
	s.mirror(ctx, t)
	return t, nil
}

// FindAll returns every train; no pagination.
func (s *TrainService) FindAll(ctx context.Context) ([]*entity.Train, error) {
	return s.Trains.List(ctx)
}

func (s *TrainService) FindOne(ctx context.Context, id int64) (*entity.Train, error) {
	t, err := s.Trains.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.Logger.WithField("train_id", id).Warn("train not found")
			return nil, fmt.Errorf("%w: train %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return t, nil
}

func (s *TrainService) FindByUserID(ctx context.Context, ownerID int64) ([]*entity.Train, error) {
	return s.Trains.ListByUserID(ctx, ownerID)
}

// Update applies patch to train id. The row is read, checked against
// callerID and written inside one transaction.
func (s *TrainService) Update(ctx context.Context, id int64, patch entity.TrainPatch, callerID int64) (*entity.Train, error) {
	var updated *entity.Train
	err := s.Trains.WithinTx(ctx, func(ctx context.Context, trains repo.TrainRepository) error {
		t, err := s.ownedForUpdate(ctx, trains, id, callerID)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = t
			return nil
		}
		patch.Apply(t)
		if err := validateTrain(t); err != nil {
			return err
		}
		if err := trains.Update(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		s.logWriteFailure(err, "update", id, callerID)
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"train_id": id, "user_id": callerID}).Info("train updated")
	s.mirror(ctx, updated)
	return updated, nil
}

// Remove deletes train id and returns the deleted record. Only the owner may delete.
func (s *TrainService) Remove(ctx context.Context, id int64, callerID int64) (*entity.Train, error) {
	var removed *entity.Train
	err := s.Trains.WithinTx(ctx, func(ctx context.Context, trains repo.TrainRepository) error {
		t, err := s.ownedForUpdate(ctx, trains, id, callerID)
		if err != nil {
			return err
		}
		if err := trains.Delete(ctx, id); err != nil {
			return err
		}
		removed = t
		return nil
	})
	if err != nil {
		s.logWriteFailure(err, "delete", id, callerID)
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"train_id": id, "user_id": callerID}).Info("train deleted")
	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			s.indexStale.Store(true)
			s.Logger.WithError(err).WithField("train_id", id).Warn("search index delete failed")
		}
	}
	return removed, nil
}

// Search pages through trains whose name, origin or destination contains
// query, ignoring case. A nil ownerID searches every owner. page < 1 is
// treated as 1; limit defaults to DefaultSearchLimit and is capped at MaxSearchLimit.
// A page whose offset does not fit in an int is rejected.
func (s *TrainService) Search(ctx context.Context, query string, ownerID *int64, page, limit int) ([]*entity.Train, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query parameter is required", domain.ErrInvalidArgument)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	if page-1 > math.MaxInt/limit {
		return nil, fmt.Errorf("%w: page %d is out of range", domain.ErrInvalidArgument, page)
	}
	q := entity.TrainSearch{Query: query, OwnerID: ownerID, Offset: (page - 1) * limit, Limit: limit}

	if s.Index != nil && !s.indexStale.Load() {
		out, err := s.Index.Search(ctx, q)
		if err == nil {
			return out, nil
		}
		s.Logger.WithError(err).WithField("query", query).Warn("search index failed, using database")
	}
	out, err := s.Trains.Search(ctx, q)
	if err != nil {
		s.Logger.WithError(err).WithField("query", query).Error("search trains failed")
		return nil, err
	}
	return out, nil
}

func (s *TrainService) ownedForUpdate(ctx context.Context, trains repo.TrainRepository, id, callerID int64) (*entity.Train, error) {
	t, err := trains.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: train %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	if t.UserID != callerID {
		return nil, fmt.Errorf("%w: you are not the owner of this train", domain.ErrForbidden)
	}
	return t, nil
}

func (s *TrainService) logWriteFailure(err error, op string, id, callerID int64) {
	entry := s.Logger.WithError(err).WithFields(logrus.Fields{"train_id": id, "user_id": callerID, "op": op})
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrInvalidArgument):
		entry.Warn("train write rejected")
	default:
		entry.Error("train write failed")
	}
}

func (s *TrainService) mirror(ctx context.Context, t *entity.Train) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, t); err != nil {
		s.indexStale.Store(true)
		s.Logger.WithError(err).WithField("train_id", t.ID).Warn("search index update failed")
	}
}
