package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/deanwaring-hub/voicecraft/internal/model"
	"github.com/deanwaring-hub/voicecraft/internal/poller"
	"github.com/deanwaring-hub/voicecraft/internal/service"
	"github.com/deanwaring-hub/voicecraft/pkg/response"
)

// UploadHandler accepts the narration submission form.
type UploadHandler struct {
	submitter *service.SubmitService
	jobPoller *poller.Poller
}

func NewUploadHandler(submitter *service.SubmitService, jobPoller *poller.Poller) *UploadHandler {
	return &UploadHandler{
		submitter: submitter,
		jobPoller: jobPoller,
	}
}

// Submit handles POST /api/upload. All three selections are mandatory; a
// missing one comes back as part of a single combined validation message.
func (h *UploadHandler) Submit(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "choose a file to upload", nil)
	}

	req := &service.SubmitRequest{
		Filename: file.Filename,
		FileSize: file.Size,
		Voice:    model.Voice(c.FormValue("voice")),
		Category: model.Category(c.FormValue("category")),
		Audio:    model.AudioBed(c.FormValue("audio")),
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	jobID, err := h.submitter.Submit(c.Context(), req, f)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			return response.ValidationError(c, ve.Message, nil)
		}
		// Credential or upload failure: report and leave the form intact.
		return response.UpstreamError(c, err.Error())
	}

	// Hand the new job to the poller so the jobs view shows progress
	// immediately after the redirect.
	h.jobPoller.Start(jobID)

	return response.Created(c, fiber.Map{"jobId": jobID})
}
