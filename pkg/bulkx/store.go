package bulkx

import (
	"sync"
	"time"
)

// Store is the in-memory job table plus the bounded history list. It is
// constructed once at process start and injected wherever job state is
// needed — there is no package-level registry.
//
// Mutations to one job are serialized on that job's own lock, so two
// mutators never interleave on the same record while unrelated jobs
// proceed independently. The store survives only as long as the process;
// durability is explicitly out of scope.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobEntry

	historyMu  sync.RWMutex
	history    []HistoryEntry
	historyCap int
}

type jobEntry struct {
	mu  sync.Mutex
	job Job
}

// DefaultHistoryCap bounds the history list when no cap is configured.
const DefaultHistoryCap = 1000

// NewStore creates an empty store with the given history cap.
func NewStore(historyCap int) *Store {
	if historyCap < 1 {
		historyCap = DefaultHistoryCap
	}
	return &Store{
		jobs:       make(map[string]*jobEntry),
		historyCap: historyCap,
	}
}

// Create registers a new job in the started state.
func (s *Store) Create(id, subject string, totalRecipients int) Job {
	job := Job{
		ID:              id,
		Status:          JobStatusStarted,
		Subject:         subject,
		TotalRecipients: totalRecipients,
		StartTime:       time.Now(),
	}

	s.mu.Lock()
	s.jobs[id] = &jobEntry{job: job}
	s.mu.Unlock()

	return job
}

// Get returns a copy of the job, safe to read while the engine keeps
// mutating the original.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return Job{}, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneJob(entry.job), true
}

// Update applies mutate to the job record atomically. Returns false when
// the job does not exist.
func (s *Store) Update(id string, mutate func(*Job)) bool {
	s.mu.RLock()
	entry, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	mutate(&entry.job)
	return true
}

// AppendHistory prepends a terminal-job summary, evicting the oldest
// entry once the cap is reached. Newest first.
func (s *Store) AppendHistory(e HistoryEntry) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]HistoryEntry{e}, s.history...)
	if len(s.history) > s.historyCap {
		s.history = s.history[:s.historyCap]
	}
}

// History returns one page of history entries, newest first, and the
// total history length.
func (s *Store) History(limit, offset int) ([]HistoryEntry, int) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	total := len(s.history)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	page := make([]HistoryEntry, end-offset)
	copy(page, s.history[offset:end])
	return page, total
}

// SweepTerminal evicts terminal jobs whose end time is older than the
// retention window and returns how many were removed. Live jobs are
// never touched; history is unaffected.
func (s *Store) SweepTerminal(retention time.Duration) int {
	if retention <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.jobs {
		entry.mu.Lock()
		expired := entry.job.Status.Terminal() &&
			entry.job.EndTime != nil &&
			entry.job.EndTime.Before(cutoff)
		entry.mu.Unlock()

		if expired {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live job records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func cloneJob(j Job) Job {
	out := j
	if j.Errors != nil {
		out.Errors = make([]JobError, len(j.Errors))
		copy(out.Errors, j.Errors)
	}
	if j.EndTime != nil {
		t := *j.EndTime
		out.EndTime = &t
	}
	return out
}
