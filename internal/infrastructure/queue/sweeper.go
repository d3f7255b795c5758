package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/taskhub/task-api/internal/api/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// OwnerTaskDeleter removes every task of an owner.
type OwnerTaskDeleter interface {
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

// Sweeper removes tasks left behind by deleted accounts. Owner ids are routed
// to a fixed set of workers using consistent hashing, so sweeps for the same
// owner never run concurrently.
type Sweeper struct {
	workers []chan string
	tasks   OwnerTaskDeleter
	log     zerolog.Logger
}

// NewSweeper creates a Sweeper with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewSweeper(numWorkers int, tasks OwnerTaskDeleter, log zerolog.Logger) *Sweeper {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	s := &Sweeper{
		workers: make([]chan string, numWorkers),
		tasks:   tasks,
		log:     log,
	}
	for i := range s.workers {
		s.workers[i] = make(chan string, channelBuffer)
	}
	return s
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	for i, ch := range s.workers {
		go s.runWorker(ctx, i, ch)
	}
}

// Enqueue schedules a sweep for ownerID. When the worker's buffer is full
// the sweep is dropped and logged rather than blocking the caller.
func (s *Sweeper) Enqueue(ownerID string) {
	idx := s.shardIndex(ownerID)
	select {
	case s.workers[idx] <- ownerID:
		metrics.OrphanSweepQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(s.workers[idx])))
	default:
		metrics.OrphanSweepsTotal.WithLabelValues("dropped").Inc()
		s.log.Warn().Str("owner", ownerID).Int("worker_id", idx).Msg("orphan sweep queue full, sweep dropped")
	}
}

// shardIndex maps an owner id deterministically to a worker index.
func (s *Sweeper) shardIndex(ownerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ownerID))
	return int(h.Sum32() % uint32(len(s.workers)))
}

func (s *Sweeper) runWorker(ctx context.Context, id int, ch <-chan string) {
	depth := metrics.OrphanSweepQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case owner, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			s.sweep(ctx, id, owner)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, workerID int, owner string) {
	removed, err := s.tasks.DeleteByOwner(ctx, owner)
	if err != nil {
		metrics.OrphanSweepsTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).
			Str("owner", owner).
			Int("worker_id", workerID).
			Msg("orphan sweep failed")
		return
	}

	metrics.OrphanSweepsTotal.WithLabelValues("ok").Inc()
	if removed > 0 {
		metrics.TasksDeletedTotal.WithLabelValues("sweep").Add(float64(removed))
		s.log.Warn().
			Str("owner", owner).
			Int64("removed", removed).
			Msg("removed orphaned tasks")
	}
}
