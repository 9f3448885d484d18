/*
recalc.go - Background scenario recalculation

PURPOSE:
  Recomputes scenarios off the request path. Saving a scenario queues a
  job; a fixed pool of workers runs the same pure calculation the
  synchronous endpoint uses and stores the result for that revision.

DESIGN:
  - Jobs carry the revision they were queued for
  - A worker skips a job whose revision is no longer current, both before
    calculating and again before storing
  - Discarding a superseded result is the only cancellation there is;
    a calculation in progress always runs to completion
  - The queue is bounded; Submit fails fast when it is full

USAGE:
  rc := NewRecalculator(store, c, 4)
  rc.Start()
  defer rc.Stop()
  rc.Submit(id, revision)

SEE ALSO:
  - handlers.go: SaveScenario and RecalculateScenario submit jobs
  - engine/store.go: revisions and per-revision results
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/feasly/feasibility-engine/cache"
	"github.com/feasly/feasibility-engine/engine"
	"github.com/feasly/feasibility-engine/factory"
	"github.com/feasly/feasibility-engine/scenario"
)

// ErrQueueFull is returned by Submit when no more jobs can be buffered.
var ErrQueueFull = errors.New("recalculation queue is full")

// DefaultQueueSize bounds the number of pending jobs.
const DefaultQueueSize = 256

type recalcJob struct {
	ScenarioID engine.ScenarioID
	Revision   int
}

// RecalcStats counts processed jobs.
type RecalcStats struct {
	Completed int64 `json:"completed"`
	Discarded int64 `json:"discarded"`
	Failed    int64 `json:"failed"`
}

// Recalculator runs scenario calculations on a worker pool.
type Recalculator struct {
	Store   engine.ScenarioStore
	Cache   cache.Cache
	Factory *factory.ScenarioFactory
	Workers int

	jobs chan recalcJob
	stop chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex

	running   bool
	completed atomic.Int64
	discarded atomic.Int64
	failed    atomic.Int64
}

// NewRecalculator creates a recalculator; workers below 1 means 1.
func NewRecalculator(store engine.ScenarioStore, c cache.Cache, workers int) *Recalculator {
	if workers < 1 {
		workers = 1
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &Recalculator{
		Store:   store,
		Cache:   c,
		Factory: factory.NewScenarioFactory(),
		Workers: workers,
		jobs:    make(chan recalcJob, DefaultQueueSize),
	}
}

// Start launches the workers.
func (rc *Recalculator) Start() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.running {
		return
	}
	rc.stop = make(chan struct{})
	rc.running = true
	for i := 0; i < rc.Workers; i++ {
		rc.wg.Add(1)
		go rc.run()
	}

	log.Printf("[Recalc] Started %d workers", rc.Workers)
}

// Stop waits for in-flight jobs to finish. Queued jobs stay queued and run
// on the next Start.
func (rc *Recalculator) Stop() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.running {
		return
	}
	close(rc.stop)
	rc.wg.Wait()
	rc.running = false
	log.Printf("[Recalc] Stopped (%d queued)", len(rc.jobs))
}

// Submit queues a recalculation of id at revision.
func (rc *Recalculator) Submit(id engine.ScenarioID, revision int) error {
	select {
	case rc.jobs <- recalcJob{ScenarioID: id, Revision: revision}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stats returns job counters.
func (rc *Recalculator) Stats() RecalcStats {
	return RecalcStats{
		Completed: rc.completed.Load(),
		Discarded: rc.discarded.Load(),
		Failed:    rc.failed.Load(),
	}
}

func (rc *Recalculator) run() {
	defer rc.wg.Done()

	for {
		select {
		case <-rc.stop:
			return
		case job := <-rc.jobs:
			rc.safeProcess(context.Background(), job)
		}
	}
}

// safeProcess runs process and turns a panic into a failed job so one bad
// scenario cannot take the worker down.
func (rc *Recalculator) safeProcess(ctx context.Context, job recalcJob) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rc.fail(job, fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()
	return rc.process(ctx, job)
}

// process computes one job. It returns false when the job was discarded or
// failed.
func (rc *Recalculator) process(ctx context.Context, job recalcJob) bool {
	rec, err := rc.Store.GetScenario(ctx, job.ScenarioID)
	if errors.Is(err, engine.ErrScenarioNotFound) {
		rc.discarded.Add(1)
		return false
	}
	if err != nil {
		rc.fail(job, err)
		return false
	}
	if rec.Revision != job.Revision {
		rc.discarded.Add(1)
		return false
	}

	dto, payload, err := calculateRecord(rc.Factory, rec)
	if err != nil {
		rc.fail(job, err)
		return false
	}
	if err := rc.Cache.Set(ctx, cache.Key([]byte(rec.Document)), string(payload)); err != nil {
		log.Printf("[Recalc] Cache write failed for %s: %v", job.ScenarioID, err)
	}

	// The scenario may have been edited while we were calculating.
	current, err := rc.Store.GetScenario(ctx, job.ScenarioID)
	if err != nil || current.Revision != job.Revision {
		rc.discarded.Add(1)
		return false
	}

	stored, err := json.Marshal(withRevision(dto, job.Revision))
	if err != nil {
		rc.fail(job, err)
		return false
	}
	err = rc.Store.SaveResult(ctx, engine.ResultRecord{
		ScenarioID: job.ScenarioID,
		Revision:   job.Revision,
		ResultJSON: string(stored),
		ComputedAt: time.Now().UTC(),
	})
	if err != nil {
		rc.fail(job, err)
		return false
	}

	rc.completed.Add(1)
	return true
}

func (rc *Recalculator) fail(job recalcJob, err error) {
	rc.failed.Add(1)
	log.Printf("[Recalc] %s@%d failed: %v", job.ScenarioID, job.Revision, err)
}

// =============================================================================
// SHARED CALCULATION
// =============================================================================

// calculateRecord parses a stored document and calculates it. The payload
// is the JSON encoding of the DTO without revision, suitable for the cache.
func calculateRecord(f *factory.ScenarioFactory, rec *engine.ScenarioRecord) (ResultDTO, []byte, error) {
	s, _, err := f.ParseScenario([]byte(rec.Document))
	if err != nil {
		return ResultDTO{}, nil, fmt.Errorf("stored scenario %s: %w", rec.ID, err)
	}
	res, err := scenario.Calculate(*s)
	if err != nil {
		return ResultDTO{}, nil, err
	}
	dto := toResultDTO(res)
	payload, err := json.Marshal(dto)
	if err != nil {
		return ResultDTO{}, nil, err
	}
	return dto, payload, nil
}

func withRevision(dto ResultDTO, revision int) ResultDTO {
	now := time.Now().UTC()
	dto.Revision = revision
	dto.ComputedAt = &now
	return dto
}
