package web

import (
	"time"

	"github.com/deanwaring-hub/voicecraft/internal/model"
	"github.com/deanwaring-hub/voicecraft/internal/service"
)

const refreshTimeout = 10 * time.Second

// ListRefresher is a poller observer that reloads the job list when the
// current job settles, so the historical view picks up the new terminal row.
// A not-found outcome is a silent reset and triggers no reload.
type ListRefresher struct {
	list *service.JobListService
}

func NewListRefresher(list *service.JobListService) *ListRefresher {
	return &ListRefresher{list: list}
}

func (r *ListRefresher) JobStatus(jobID string, status model.JobStatus) {}

func (r *ListRefresher) JobCompleted(jobID, outputKey, downloadURL string) {
	go r.list.WaitForRefresh(refreshTimeout)
}

func (r *ListRefresher) JobFailed(jobID, message string) {
	go r.list.WaitForRefresh(refreshTimeout)
}

func (r *ListRefresher) JobNotFound(jobID string) {}
