package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/client"
	"github.com/deanwaring-hub/voicecraft/internal/model"
	"github.com/deanwaring-hub/voicecraft/internal/session"
)

// State of the current-job machine.
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateSettled State = "settled"
)

// Outcome of a settled job.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeNotFound  Outcome = "not_found"
)

const defaultFailureMessage = "Narration failed. Try submitting again."

// Observer receives state transitions. Callbacks run on the polling goroutine;
// implementations must not block.
type Observer interface {
	JobStatus(jobID string, status model.JobStatus)
	JobCompleted(jobID, outputKey, downloadURL string)
	JobFailed(jobID, message string)
	JobNotFound(jobID string)
}

// Snapshot is a point-in-time copy of the machine, rendered by the
// current-job view.
type Snapshot struct {
	State        State           `json:"state"`
	JobID        string          `json:"jobId,omitempty"`
	Status       model.JobStatus `json:"status,omitempty"`
	Outcome      Outcome         `json:"outcome,omitempty"`
	OutputKey    string          `json:"outputKey,omitempty"`
	DownloadURL  string          `json:"downloadUrl,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// Poller owns the lifecycle of observing one current job from submission to a
// terminal state. The timer is owned here and reachable only through Start and
// Stop; exactly one polling goroutine runs per poller, and each cycle awaits
// its response before the next one can fire, so poll requests never overlap.
type Poller struct {
	api      client.JobsAPI
	store    *session.Store
	interval time.Duration

	mu        sync.Mutex
	state     State
	jobID     string
	status    model.JobStatus
	outcome   Outcome
	outputKey string
	download  string
	errMsg    string
	cancel    context.CancelFunc
	gen       int
	observers []Observer
}

func New(api client.JobsAPI, store *session.Store, interval time.Duration) *Poller {
	return &Poller{
		api:      api,
		store:    store,
		interval: interval,
		state:    StateIdle,
	}
}

// Subscribe registers an observer for state transitions.
func (p *Poller) Subscribe(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// Resume starts polling for a current job persisted in the session, if any.
// Called once at startup so a job submitted before a restart is picked up
// without waiting for a new submission.
func (p *Poller) Resume() {
	if cur := p.store.CurrentJob(); cur != nil {
		p.Start(cur.JobID)
	}
}

// Start begins polling the given job. Any previous run is stopped first. The
// first check fires immediately, not after the first interval.
func (p *Poller) Start(jobID string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	gen := p.gen
	p.state = StatePolling
	p.jobID = jobID
	p.status = ""
	p.outcome = ""
	p.outputKey = ""
	p.download = ""
	p.errMsg = ""

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(ctx, gen, jobID)
}

// Stop cancels any active polling run and returns the machine to Idle.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.state = StateIdle
	p.jobID = ""
}

// Snapshot returns a copy of the current machine state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		State:        p.state,
		JobID:        p.jobID,
		Status:       p.status,
		Outcome:      p.outcome,
		OutputKey:    p.outputKey,
		DownloadURL:  p.download,
		ErrorMessage: p.errMsg,
	}
}

// run is the polling loop: one immediate check, then one check per interval.
// Each iteration completes (response received and handled) before the next
// tick is considered, and the loop exits on the first terminal transition.
func (p *Poller) run(ctx context.Context, gen int, jobID string) {
	if p.pollOnce(ctx, gen, jobID) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.pollOnce(ctx, gen, jobID) {
				return
			}
		}
	}
}

// pollOnce performs one poll cycle. It returns true when a terminal transition
// occurred and the loop must stop. Transient failures — network errors,
// non-2xx non-404 responses, malformed bodies — are logged and leave the
// machine untouched; only a well-formed response carrying a status advances it.
func (p *Poller) pollOnce(ctx context.Context, gen int, jobID string) bool {
	token, ok := p.store.BearerToken()
	if !ok {
		log.Printf("[Poller] job %s: no bearer token available, skipping cycle", jobID)
		return false
	}

	job, err := p.api.GetJob(ctx, token, jobID)
	if err != nil {
		if errors.Is(err, client.ErrJobNotFound) {
			return p.settleNotFound(gen, jobID)
		}
		if ctx.Err() != nil {
			return true
		}
		log.Printf("[Poller] job %s: poll failed, will retry: %v", jobID, err)
		return false
	}

	switch job.Status {
	case model.JobStatusPending, model.JobStatusProcessing:
		p.mu.Lock()
		current := p.gen == gen && p.state == StatePolling
		if current {
			p.status = job.Status
		}
		observers := p.snapshotObservers()
		p.mu.Unlock()
		if current {
			for _, o := range observers {
				o.JobStatus(jobID, job.Status)
			}
		}
		return false

	case model.JobStatusComplete:
		return p.settleCompleted(ctx, gen, token, job)

	case model.JobStatusFailed:
		message := defaultFailureMessage
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			message = *job.ErrorMessage
		}
		return p.settleFailed(gen, jobID, message)

	default:
		log.Printf("[Poller] job %s: unknown status %q, will retry", jobID, job.Status)
		return false
	}
}

// settleCompleted performs the Completed terminal transition: resolve the
// download link for the output key exactly once (skipped when absent), stop
// the timer and notify observers.
func (p *Poller) settleCompleted(ctx context.Context, gen int, token string, job *model.Job) bool {
	if !p.stillPolling(gen) {
		return true
	}

	outputKey := ""
	if job.OutputKey != nil {
		outputKey = *job.OutputKey
	}

	downloadURL := ""
	if outputKey != "" {
		url, err := p.api.GetDownloadURL(ctx, token, outputKey)
		if err != nil {
			// The job is still complete; the list view can mint a link later.
			log.Printf("[Poller] job %s: failed to resolve download link: %v", job.JobID, err)
		} else {
			downloadURL = url
		}
	}

	observers, ok := p.settle(gen, job.JobID, OutcomeCompleted, func() {
		p.status = model.JobStatusComplete
		p.outputKey = outputKey
		p.download = downloadURL
	})
	if !ok {
		return true
	}
	for _, o := range observers {
		o.JobCompleted(job.JobID, outputKey, downloadURL)
	}
	return true
}

func (p *Poller) settleFailed(gen int, jobID, message string) bool {
	observers, ok := p.settle(gen, jobID, OutcomeFailed, func() {
		p.status = model.JobStatusFailed
		p.errMsg = message
	})
	if !ok {
		return true
	}
	for _, o := range observers {
		o.JobFailed(jobID, message)
	}
	return true
}

// settleNotFound handles a 404: the job was deleted or never existed. This is
// a silent reset, not an error — the current-job reference is cleared and the
// in-progress section disappears.
func (p *Poller) settleNotFound(gen int, jobID string) bool {
	observers, ok := p.settle(gen, jobID, OutcomeNotFound, nil)
	if !ok {
		return true
	}
	for _, o := range observers {
		o.JobNotFound(jobID)
	}
	return true
}

// settle performs the one allowed terminal transition for a run. It returns
// ok=false when this run was superseded or already settled, in which case no
// side effects may fire again.
func (p *Poller) settle(gen int, jobID string, outcome Outcome, apply func()) ([]Observer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen || p.state != StatePolling {
		return nil, false
	}

	p.state = StateSettled
	p.outcome = outcome
	if apply != nil {
		apply()
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	// The current-job reference is an at-most-once signal, cleared by the
	// first code path that observes a terminal or not-found outcome.
	p.store.ClearCurrentJob()

	return p.snapshotObservers(), true
}

func (p *Poller) stillPolling(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen && p.state == StatePolling
}

// snapshotObservers must be called with the mutex held.
func (p *Poller) snapshotObservers() []Observer {
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	return observers
}
