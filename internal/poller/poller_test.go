package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/client"
	"github.com/deanwaring-hub/voicecraft/internal/model"
	"github.com/deanwaring-hub/voicecraft/internal/session"
)

const testInterval = 10 * time.Millisecond

// fakeJobsAPI scripts poll responses and records download-link requests.
type fakeJobsAPI struct {
	mu            sync.Mutex
	responses     []pollResponse
	calls         int
	downloadCalls []string
}

type pollResponse struct {
	job *model.Job
	err error
}

func (f *fakeJobsAPI) GetJob(ctx context.Context, token, jobID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1 // repeat the last scripted response
	}
	r := f.responses[idx]
	return r.job, r.err
}

func (f *fakeJobsAPI) ListJobs(ctx context.Context, token, userID string) ([]model.Job, error) {
	return nil, nil
}

func (f *fakeJobsAPI) DeleteJob(ctx context.Context, token, jobID string) error {
	return nil
}

func (f *fakeJobsAPI) GetDownloadURL(ctx context.Context, token, outputKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloadCalls = append(f.downloadCalls, outputKey)
	return "https://signed.example/" + outputKey, nil
}

func (f *fakeJobsAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeJobsAPI) downloadRequests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.downloadCalls))
	copy(out, f.downloadCalls)
	return out
}

// recorder counts observer callbacks and signals terminal transitions.
type recorder struct {
	mu        sync.Mutex
	statuses  []model.JobStatus
	completed int
	failed    int
	notFound  int
	lastErr   string
	lastURL   string
	settled   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{settled: make(chan struct{}, 16)}
}

func (r *recorder) JobStatus(jobID string, status model.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recorder) JobCompleted(jobID, outputKey, downloadURL string) {
	r.mu.Lock()
	r.completed++
	r.lastURL = downloadURL
	r.mu.Unlock()
	r.settled <- struct{}{}
}

func (r *recorder) JobFailed(jobID, message string) {
	r.mu.Lock()
	r.failed++
	r.lastErr = message
	r.mu.Unlock()
	r.settled <- struct{}{}
}

func (r *recorder) JobNotFound(jobID string) {
	r.mu.Lock()
	r.notFound++
	r.mu.Unlock()
	r.settled <- struct{}{}
}

func (r *recorder) terminalCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed + r.failed + r.notFound
}

func waitSettled(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.settled:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never reached a terminal state")
	}
}

func newTestStore(jobID string) *session.Store {
	store := session.NewStore()
	store.SetIdentity(session.Identity{UserID: "u1", Email: "u1@example.com"})
	store.SetBearerToken("token", time.Time{})
	if jobID != "" {
		store.SetCurrentJob(model.CurrentJob{JobID: jobID, Voice: model.VoiceClara, Category: model.CategoryPodcast, Audio: model.AudioBedNone})
	}
	return store
}

func jobWithStatus(id string, status model.JobStatus) *model.Job {
	return &model.Job{JobID: id, UserID: "u1", Status: status}
}

func TestPoller_NonTerminalKeepsPollingAndSession(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{
		{job: jobWithStatus("j1", model.JobStatusPending)},
		{job: jobWithStatus("j1", model.JobStatusProcessing)},
	}}
	store := newTestStore("j1")
	rec := newRecorder()

	p := New(api, store, testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	defer p.Stop()

	// Let several cycles run.
	deadline := time.Now().Add(time.Second)
	for api.callCount() < 4 && time.Now().Before(deadline) {
		time.Sleep(testInterval)
	}
	if api.callCount() < 4 {
		t.Fatalf("expected at least 4 poll cycles, got %d", api.callCount())
	}

	if got := p.Snapshot().State; got != StatePolling {
		t.Errorf("expected state %q, got %q", StatePolling, got)
	}
	if store.CurrentJob() == nil {
		t.Error("non-terminal polling must not mutate the persisted current job")
	}
	if rec.terminalCount() != 0 {
		t.Errorf("expected no terminal transitions, got %d", rec.terminalCount())
	}
}

func TestPoller_FirstCheckFiresImmediately(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{
		{job: jobWithStatus("j1", model.JobStatusPending)},
	}}
	p := New(api, newTestStore("j1"), time.Hour) // interval long enough to never tick
	p.Start("j1")
	defer p.Stop()

	deadline := time.Now().Add(time.Second)
	for api.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if api.callCount() == 0 {
		t.Fatal("expected an immediate poll before the first interval")
	}
}

func TestPoller_ExactlyOneTerminalTransition(t *testing.T) {
	key := "out/j1.mp3"
	complete := &model.Job{JobID: "j1", UserID: "u1", Status: model.JobStatusComplete, OutputKey: &key}
	api := &fakeJobsAPI{responses: []pollResponse{
		{job: jobWithStatus("j1", model.JobStatusProcessing)},
		{job: complete},
		{job: complete}, // repeated terminal responses must not re-fire
	}}
	store := newTestStore("j1")
	rec := newRecorder()

	p := New(api, store, testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	waitSettled(t, rec)

	// Give any stray timer tick a chance to misbehave.
	time.Sleep(5 * testInterval)

	if rec.terminalCount() != 1 {
		t.Fatalf("expected exactly one terminal transition, got %d", rec.terminalCount())
	}
	calls := api.callCount()
	time.Sleep(5 * testInterval)
	if api.callCount() != calls {
		t.Error("timer fired again after the terminal state")
	}
	if got := p.Snapshot().Outcome; got != OutcomeCompleted {
		t.Errorf("expected outcome %q, got %q", OutcomeCompleted, got)
	}
}

func TestPoller_CompleteResolvesDownloadLinkOnce(t *testing.T) {
	key := "k1"
	complete := &model.Job{JobID: "j1", UserID: "u1", Status: model.JobStatusComplete, OutputKey: &key}
	api := &fakeJobsAPI{responses: []pollResponse{{job: complete}}}
	rec := newRecorder()

	p := New(api, newTestStore("j1"), testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	waitSettled(t, rec)
	time.Sleep(5 * testInterval)

	downloads := api.downloadRequests()
	if len(downloads) != 1 || downloads[0] != "k1" {
		t.Fatalf("expected exactly one download-link request for k1, got %v", downloads)
	}
	if rec.lastURL != "https://signed.example/k1" {
		t.Errorf("unexpected download URL %q", rec.lastURL)
	}
}

func TestPoller_CompleteWithoutOutputKeySkipsDownloadLink(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{
		{job: jobWithStatus("j1", model.JobStatusComplete)},
	}}
	rec := newRecorder()

	p := New(api, newTestStore("j1"), testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	waitSettled(t, rec)

	if len(api.downloadRequests()) != 0 {
		t.Fatalf("no download link may be requested without an output key, got %v", api.downloadRequests())
	}
}

func TestPoller_NotFoundClearsCurrentJob(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{
		{job: jobWithStatus("j1", model.JobStatusProcessing)},
		{err: client.ErrJobNotFound},
	}}
	store := newTestStore("j1")
	rec := newRecorder()

	p := New(api, store, testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	waitSettled(t, rec)

	if rec.notFound != 1 {
		t.Fatalf("expected one not-found transition, got %d", rec.notFound)
	}
	if store.CurrentJob() != nil {
		t.Error("a 404 must clear the persisted current-job reference")
	}
	if got := p.Snapshot().Outcome; got != OutcomeNotFound {
		t.Errorf("expected outcome %q, got %q", OutcomeNotFound, got)
	}
}

func TestPoller_TransientErrorsKeepPolling(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{
		{err: &client.APIError{StatusCode: 500, Body: "boom"}},
		{err: &client.APIError{StatusCode: 503, Body: "unavailable"}},
		{job: jobWithStatus("j1", model.JobStatusFailed)},
	}}
	store := newTestStore("j1")
	rec := newRecorder()

	p := New(api, store, testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	waitSettled(t, rec)

	if rec.failed != 1 {
		t.Fatalf("expected the poller to survive transient errors and settle failed, got %d failed", rec.failed)
	}
	if rec.lastErr != defaultFailureMessage {
		t.Errorf("expected default failure message, got %q", rec.lastErr)
	}
}

func TestPoller_FailedUsesBackendMessage(t *testing.T) {
	msg := "voice model rejected the input"
	failed := &model.Job{JobID: "j1", UserID: "u1", Status: model.JobStatusFailed, ErrorMessage: &msg}
	api := &fakeJobsAPI{responses: []pollResponse{{job: failed}}}
	rec := newRecorder()

	p := New(api, newTestStore("j1"), testInterval)
	p.Subscribe(rec)
	p.Start("j1")
	waitSettled(t, rec)

	if rec.lastErr != msg {
		t.Errorf("expected backend error message %q, got %q", msg, rec.lastErr)
	}
}

func TestPoller_ResumePicksUpPersistedJob(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{
		{job: jobWithStatus("j9", model.JobStatusPending)},
	}}
	store := newTestStore("j9")

	p := New(api, store, testInterval)
	p.Resume()
	defer p.Stop()

	deadline := time.Now().Add(time.Second)
	for api.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if api.callCount() == 0 {
		t.Fatal("expected Resume to start polling the persisted job")
	}
	snap := p.Snapshot()
	if snap.State != StatePolling || snap.JobID != "j9" {
		t.Errorf("expected polling j9, got %+v", snap)
	}
}

func TestPoller_ResumeWithEmptySessionStaysIdle(t *testing.T) {
	api := &fakeJobsAPI{responses: []pollResponse{{job: jobWithStatus("j1", model.JobStatusPending)}}}
	p := New(api, newTestStore(""), testInterval)
	p.Resume()

	time.Sleep(3 * testInterval)
	if api.callCount() != 0 {
		t.Error("no polling may start without a persisted current job")
	}
	if got := p.Snapshot().State; got != StateIdle {
		t.Errorf("expected %q, got %q", StateIdle, got)
	}
}
