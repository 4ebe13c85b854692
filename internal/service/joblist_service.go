package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/client"
	"github.com/deanwaring-hub/voicecraft/internal/model"
	"github.com/deanwaring-hub/voicecraft/internal/session"
)

// JobListService renders the historical job list: fetch, sort, per-job delete
// and on-demand download links. It keeps the last fetched jobs so deletes can
// update the rendered list without another round trip.
type JobListService struct {
	api   client.JobsAPI
	store *session.Store

	mu       sync.Mutex
	jobs     []model.Job
	deleting map[string]bool
}

func NewJobListService(api client.JobsAPI, store *session.Store) *JobListService {
	return &JobListService{
		api:      api,
		store:    store,
		deleting: make(map[string]bool),
	}
}

// SortJobs orders jobs by creation time, most recent first. Jobs with no
// createdAt sort as earliest.
func SortJobs(jobs []model.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		ti, tj := jobs[i].CreatedAt, jobs[j].CreatedAt
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
}

// Refresh fetches the user's jobs from the backend and replaces the cached
// list.
func (s *JobListService) Refresh(ctx context.Context) (*model.JobListView, error) {
	ident := s.store.Identity()
	token, ok := s.store.BearerToken()
	if ident == nil || !ok {
		return nil, fmt.Errorf("no active session")
	}

	jobs, err := s.api.ListJobs(ctx, token, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}
	SortJobs(jobs)

	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()

	return s.View(), nil
}

// View renders the cached jobs into the display model, marking in-flight
// deletes. An empty list becomes an explicit empty-state, never an empty
// container.
func (s *JobListService) View() *model.JobListView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.jobs) == 0 {
		return &model.JobListView{Empty: true}
	}

	views := make([]model.JobView, 0, len(s.jobs))
	for _, job := range s.jobs {
		v := model.NewJobView(job)
		v.Deleting = s.deleting[job.JobID]
		views = append(views, v)
	}
	return &model.JobListView{Jobs: views}
}

// Delete removes a job, optimistic-pending style: the card is marked as
// deleting immediately, dropped from the list on success and restored with the
// error on failure.
func (s *JobListService) Delete(ctx context.Context, jobID string) error {
	token, ok := s.store.BearerToken()
	if !ok {
		return fmt.Errorf("no active session")
	}

	s.mu.Lock()
	s.deleting[jobID] = true
	s.mu.Unlock()

	err := s.api.DeleteJob(ctx, token, jobID)

	s.mu.Lock()
	delete(s.deleting, jobID)
	if err == nil {
		kept := s.jobs[:0]
		for _, job := range s.jobs {
			if job.JobID != jobID {
				kept = append(kept, job)
			}
		}
		s.jobs = kept
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// DownloadLink mints a time-limited download URL for a finished artifact.
// Links are requested at the moment of use because they expire quickly.
func (s *JobListService) DownloadLink(ctx context.Context, outputKey string) (string, error) {
	token, ok := s.store.BearerToken()
	if !ok {
		return "", fmt.Errorf("no active session")
	}
	url, err := s.api.GetDownloadURL(ctx, token, outputKey)
	if err != nil {
		return "", fmt.Errorf("failed to mint download link: %w", err)
	}
	return url, nil
}

// OutputKeyFor looks up the output key of a cached job. Used by the download
// endpoint so callers address jobs by id, not by raw storage keys.
func (s *JobListService) OutputKeyFor(jobID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if job.JobID == jobID {
			if job.Status == model.JobStatusComplete && job.OutputKey != nil && *job.OutputKey != "" {
				return *job.OutputKey, true
			}
			return "", false
		}
	}
	return "", false
}

// WaitForRefresh re-fetches with a short timeout, used after terminal poll
// transitions where the caller has no request context of its own.
func (s *JobListService) WaitForRefresh(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, _ = s.Refresh(ctx)
}
