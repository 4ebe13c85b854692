package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deanwaring-hub/voicecraft/internal/poller"
	"github.com/deanwaring-hub/voicecraft/internal/service"
	"github.com/deanwaring-hub/voicecraft/internal/session"
	"github.com/deanwaring-hub/voicecraft/pkg/response"
)

// JobsHandler serves the jobs view: the historical list, the current-job
// progress snapshot, deletes and download links.
type JobsHandler struct {
	list      *service.JobListService
	jobPoller *poller.Poller
	store     *session.Store
}

func NewJobsHandler(list *service.JobListService, jobPoller *poller.Poller, store *session.Store) *JobsHandler {
	return &JobsHandler{
		list:      list,
		jobPoller: jobPoller,
		store:     store,
	}
}

// List handles GET /api/jobs
func (h *JobsHandler) List(c *fiber.Ctx) error {
	view, err := h.list.Refresh(c.Context())
	if err != nil {
		return response.UpstreamError(c, "Could not load your jobs. Try again.")
	}
	return response.OK(c, view)
}

// Current handles GET /api/jobs/current. The in-progress section renders from
// this snapshot; an Idle state with no current job hides the section.
func (h *JobsHandler) Current(c *fiber.Ctx) error {
	snapshot := h.jobPoller.Snapshot()
	return response.OK(c, fiber.Map{
		"poll":       snapshot,
		"currentJob": h.store.CurrentJob(),
	})
}

// Delete handles DELETE /api/jobs/:jobId
func (h *JobsHandler) Delete(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	if err := h.list.Delete(c.Context(), jobID); err != nil {
		return response.UpstreamError(c, "Could not delete the job. Try again.")
	}
	return response.NoContent(c)
}

// Download handles GET /api/jobs/:jobId/download. The link is minted on
// demand because it expires minutes after creation.
func (h *JobsHandler) Download(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	outputKey, ok := h.list.OutputKeyFor(jobID)
	if !ok {
		return response.NotFound(c, "No downloadable output for this job")
	}

	url, err := h.list.DownloadLink(c.Context(), outputKey)
	if err != nil {
		return response.UpstreamError(c, "Could not mint a download link. Try again.")
	}
	return response.OK(c, fiber.Map{"url": url})
}
