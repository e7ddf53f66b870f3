package stats

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"k8s.io/utils/clock"

	"github.com/armadaproject/htapbench/internal/common/logging"
	"github.com/armadaproject/htapbench/internal/htap/dbexec"
)

const snapshotKey = "db"

// DBSnapshot describes the database under test at a point in time.
type DBSnapshot struct {
	SizeBytes   int64
	Columnstore []dbexec.ColumnstoreStat
	Timestamp   time.Time
}

type SnapshotQuerier interface {
	DatabaseSize(ctx context.Context) (int64, error)
	ColumnstoreStats(ctx context.Context) ([]dbexec.ColumnstoreStat, error)
}

// SnapshotSource refreshes the database snapshot at most once per interval.
type SnapshotSource struct {
	querier  SnapshotQuerier
	cache    *cache.Cache
	interval time.Duration
	previous DBSnapshot
	timeout  time.Duration
	clock    clock.PassiveClock
	log      *logging.Logger
}

// NewSnapshotSource creates a source that gives up on a refresh after timeout.
func NewSnapshotSource(querier SnapshotQuerier, interval, timeout time.Duration, c clock.PassiveClock, log *logging.Logger) *SnapshotSource {
	return &SnapshotSource{
		querier:  querier,
		cache:    cache.New(interval, 2*interval),
		interval: interval,
		timeout:  timeout,
		clock:    c,
		log:      log,
	}
}

// Get returns the cached snapshot, refreshing it if it has expired. A failed refresh keeps the
// previous snapshot.
func (s *SnapshotSource) Get(ctx context.Context) DBSnapshot {
	if cached, found := s.cache.Get(snapshotKey); found {
		return cached.(DBSnapshot)
	}
	snapshot, err := s.refresh(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to refresh database statistics")
		s.cache.Set(snapshotKey, s.previous, s.interval)
		return s.previous
	}
	s.previous = snapshot
	s.cache.Set(snapshotKey, snapshot, s.interval)
	return snapshot
}

func (s *SnapshotSource) refresh(ctx context.Context) (DBSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	size, err := s.querier.DatabaseSize(ctx)
	if err != nil {
		return DBSnapshot{}, err
	}
	columnstore, err := s.querier.ColumnstoreStats(ctx)
	if err != nil {
		return DBSnapshot{}, err
	}
	return DBSnapshot{SizeBytes: size, Columnstore: columnstore, Timestamp: s.clock.Now()}, nil
}
