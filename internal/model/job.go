package model

import "time"

// Job represents one narration job tracked by the backend. The client never
// writes Status — it only observes transitions the processing pipeline makes.
type Job struct {
	JobID        string     `json:"jobId"`
	UserID       string     `json:"userId"`
	Status       JobStatus  `json:"status"`
	OutputKey    *string    `json:"outputKey,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	Voice        Voice      `json:"voice,omitempty"`
	Category     Category   `json:"category,omitempty"`
	Audio        AudioBed   `json:"audio,omitempty"`
}

// CurrentJob is the session snapshot of the most recently submitted job,
// persisted between the upload view and the jobs view.
type CurrentJob struct {
	JobID    string   `json:"jobId"`
	Voice    Voice    `json:"voice"`
	Category Category `json:"category"`
	Audio    AudioBed `json:"audio"`
}
