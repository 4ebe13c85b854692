package model

import "time"

// JobView is the display model for one job card. It is a pure projection of a
// Job — no markup, no event wiring — so list rendering stays unit-testable.
type JobView struct {
	JobID            string   `json:"jobId"`
	StatusLabel      string   `json:"statusLabel"`
	Voice            Voice    `json:"voice,omitempty"`
	Category         Category `json:"category,omitempty"`
	Audio            AudioBed `json:"audio,omitempty"`
	CreatedAtDisplay string   `json:"createdAtDisplay,omitempty"`
	ShowDownload     bool     `json:"showDownload"`
	OutputKey        string   `json:"outputKey,omitempty"`
	ErrorExcerpt     string   `json:"errorExcerpt,omitempty"`
	Deleting         bool     `json:"deleting"`
}

// JobListView is the rendered jobs page: either a list of cards or an explicit
// empty-state placeholder, never an empty but visible list container.
type JobListView struct {
	Jobs  []JobView `json:"jobs"`
	Empty bool      `json:"empty"`
}

var statusLabels = map[JobStatus]string{
	JobStatusPending:    "Queued",
	JobStatusProcessing: "Generating narration…",
	JobStatusComplete:   "Ready",
	JobStatusFailed:     "Failed",
}

const errorExcerptLimit = 140

// NewJobView projects a Job into its display model.
func NewJobView(job Job) JobView {
	v := JobView{
		JobID:    job.JobID,
		Voice:    job.Voice,
		Category: job.Category,
		Audio:    job.Audio,
	}

	if label, ok := statusLabels[job.Status]; ok {
		v.StatusLabel = label
	} else {
		v.StatusLabel = string(job.Status)
	}

	if job.CreatedAt != nil {
		v.CreatedAtDisplay = job.CreatedAt.Format(time.RFC1123)
	}

	// Download affordance only for completed jobs that actually have output.
	if job.Status == JobStatusComplete && job.OutputKey != nil && *job.OutputKey != "" {
		v.ShowDownload = true
		v.OutputKey = *job.OutputKey
	}

	if job.Status == JobStatusFailed {
		excerpt := "Narration failed"
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			excerpt = *job.ErrorMessage
		}
		if len(excerpt) > errorExcerptLimit {
			excerpt = excerpt[:errorExcerptLimit]
		}
		v.ErrorExcerpt = excerpt
	}

	return v
}
