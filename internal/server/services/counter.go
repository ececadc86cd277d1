package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studyshelf/internal/common"
	"github.com/dmitrijs2005/studyshelf/internal/server/config"
	"github.com/dmitrijs2005/studyshelf/internal/server/models"
	"github.com/dmitrijs2005/studyshelf/internal/server/repositories/documents"
)

// CounterStrategy performs the Incrementing step of a download and returns
// the stored count afterwards.
type CounterStrategy interface {
	Name() string
	Increment(ctx context.Context, repo documents.Repository, id string) (int64, error)
}

// ReadModifyWrite reads the count and writes it back plus one. Two
// concurrent downloads can both read N and both write N+1.
type ReadModifyWrite struct{}

func (ReadModifyWrite) Name() string { return config.CounterReadModifyWrite }

func (ReadModifyWrite) Increment(ctx context.Context, repo documents.Repository, id string) (int64, error) {
	doc, err := repo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	next := doc.DownloadCount + 1
	if err := repo.SetDownloadCount(ctx, id, next); err != nil {
		return 0, err
	}
	return next, nil
}

// AtomicIncrement lets the store add one in a single statement.
type AtomicIncrement struct{}

func (AtomicIncrement) Name() string { return config.CounterAtomic }

func (AtomicIncrement) Increment(ctx context.Context, repo documents.Repository, id string) (int64, error) {
	return repo.IncrementDownloadCount(ctx, id)
}

// CompareAndSwap reads the count and writes count+1 only if nobody changed
// it meanwhile, retrying up to Retries times after a conflict.
type CompareAndSwap struct {
	Retries int
}

func (CompareAndSwap) Name() string { return config.CounterCompareAndSwap }

func (c CompareAndSwap) Increment(ctx context.Context, repo documents.Repository, id string) (int64, error) {
	for attempt := 0; ; attempt++ {
		doc, err := repo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		next := doc.DownloadCount + 1
		err = repo.CompareAndSwapDownloadCount(ctx, id, doc.DownloadCount, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, common.ErrVersionConflict) {
			return 0, err
		}
		counterConflictsTotal.Inc()
		if attempt >= c.Retries {
			return 0, fmt.Errorf("gave up after %d attempts: %w", attempt+1, err)
		}
	}
}

// NewCounterStrategy maps a config.Counter* name to its strategy.
func NewCounterStrategy(name string, retries int) (CounterStrategy, error) {
	switch name {
	case config.CounterReadModifyWrite:
		return ReadModifyWrite{}, nil
	case config.CounterAtomic, "":
		return AtomicIncrement{}, nil
	case config.CounterCompareAndSwap:
		return CompareAndSwap{Retries: retries}, nil
	default:
		return nil, fmt.Errorf("unknown counter strategy %q", name)
	}
}

// timedDocuments bounds each counter call with its own timeout.
type timedDocuments struct {
	documents.Repository
	timeout time.Duration
}

func (t timedDocuments) GetByID(ctx context.Context, id string) (*models.Document, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) (*models.Document, error) {
		return t.Repository.GetByID(ctx, id)
	})
}

func (t timedDocuments) SetDownloadCount(ctx context.Context, id string, count int64) error {
	return execWithTimeout(ctx, t.timeout, func(ctx context.Context) error {
		return t.Repository.SetDownloadCount(ctx, id, count)
	})
}

func (t timedDocuments) IncrementDownloadCount(ctx context.Context, id string) (int64, error) {
	return callWithTimeout(ctx, t.timeout, func(ctx context.Context) (int64, error) {
		return t.Repository.IncrementDownloadCount(ctx, id)
	})
}

func (t timedDocuments) CompareAndSwapDownloadCount(ctx context.Context, id string, expected, next int64) error {
	return execWithTimeout(ctx, t.timeout, func(ctx context.Context) error {
		return t.Repository.CompareAndSwapDownloadCount(ctx, id, expected, next)
	})
}
