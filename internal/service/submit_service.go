package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/deanwaring-hub/voicecraft/internal/client"
	"github.com/deanwaring-hub/voicecraft/internal/config"
	"github.com/deanwaring-hub/voicecraft/internal/identity"
	"github.com/deanwaring-hub/voicecraft/internal/model"
	"github.com/deanwaring-hub/voicecraft/internal/session"
)

// ValidationError is a synchronous submission failure. Nothing was sent to the
// network and no state was persisted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SubmitRequest carries the form fields of one narration submission.
type SubmitRequest struct {
	Filename string         `validate:"required"`
	FileSize int64          `validate:"gte=0"`
	Voice    model.Voice    `validate:"required"`
	Category model.Category `validate:"required"`
	Audio    model.AudioBed `validate:"required"`
}

// StorageFactory builds a storage client around one set of scoped upload
// credentials. Injected so tests can substitute a fake store.
type StorageFactory func(creds *identity.StorageCredentials) (client.StorageClient, error)

// SubmitService validates a narration submission and writes the input file to
// object storage. The backend materializes the Job record from the object key;
// there is no separate create-job call.
type SubmitService struct {
	provider   identity.Provider
	newStorage StorageFactory
	store      *session.Store
	uploadCfg  config.UploadConfig
	validate   *validator.Validate
}

func NewSubmitService(provider identity.Provider, newStorage StorageFactory, store *session.Store, uploadCfg config.UploadConfig, v *validator.Validate) *SubmitService {
	return &SubmitService{
		provider:   provider,
		newStorage: newStorage,
		store:      store,
		uploadCfg:  uploadCfg,
		validate:   v,
	}
}

// BuildObjectKey constructs the storage key the backend parses to populate Job
// metadata. The field order is a contract with the consuming service and must
// not change without coordinating it.
func BuildObjectKey(userID, jobID string, voice model.Voice, category model.Category, audio model.AudioBed, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", userID, jobID, voice, category, audio, filename)
}

// Validate checks the submission synchronously. All problems are combined into
// a single human-readable error rather than surfaced one field at a time.
func (s *SubmitService) Validate(req *SubmitRequest) error {
	var problems []string

	if err := s.validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range errs {
				switch fe.Field() {
				case "Filename":
					problems = append(problems, "choose a file to upload")
				case "Voice":
					problems = append(problems, "select a voice")
				case "Category":
					problems = append(problems, "select a category")
				case "Audio":
					problems = append(problems, "select a background audio")
				}
			}
		} else {
			return err
		}
	}

	if req.Filename != "" {
		ext := strings.ToLower(filepath.Ext(req.Filename))
		if ext != s.uploadCfg.AllowedExtension {
			problems = append(problems, fmt.Sprintf("only %s files are supported", s.uploadCfg.AllowedExtension))
		}
	}
	if req.FileSize > s.uploadCfg.MaxBytes {
		problems = append(problems, fmt.Sprintf("file is larger than the %d MB limit", s.uploadCfg.MaxBytes/(1024*1024)))
	}
	if req.Voice != "" && !containsEnum(model.ValidVoices, req.Voice) {
		problems = append(problems, "select a valid voice")
	}
	if req.Category != "" && !containsEnum(model.ValidCategories, req.Category) {
		problems = append(problems, "select a valid category")
	}
	if req.Audio != "" && !containsEnum(model.ValidAudioBeds, req.Audio) {
		problems = append(problems, "select a valid background audio")
	}

	if len(problems) > 0 {
		return &ValidationError{Message: strings.Join(problems, "; ")}
	}
	return nil
}

// Submit validates the request, uploads the file and records the new current
// job in the session. On any failure nothing is persisted, so the form can be
// retried as-is.
func (s *SubmitService) Submit(ctx context.Context, req *SubmitRequest, file io.Reader) (string, error) {
	if err := s.Validate(req); err != nil {
		return "", err
	}

	ident := s.store.Identity()
	token, ok := s.store.BearerToken()
	if ident == nil || !ok {
		return "", fmt.Errorf("no active session")
	}

	jobID := uuid.New().String()

	creds, err := s.provider.ExchangeForStorageCredentials(ctx, token)
	if err != nil {
		return "", fmt.Errorf("failed to obtain upload credentials: %w", err)
	}

	storage, err := s.newStorage(creds)
	if err != nil {
		return "", fmt.Errorf("failed to create storage client: %w", err)
	}

	key := BuildObjectKey(ident.UserID, jobID, req.Voice, req.Category, req.Audio, req.Filename)
	if err := storage.Upload(ctx, key, file, "text/plain"); err != nil {
		return "", fmt.Errorf("failed to upload narration input: %w", err)
	}

	// Persist only after the upload succeeded.
	s.store.SetCurrentJob(model.CurrentJob{
		JobID:    jobID,
		Voice:    req.Voice,
		Category: req.Category,
		Audio:    req.Audio,
	})

	return jobID, nil
}

func containsEnum[T ~string](valid []T, v T) bool {
	for _, x := range valid {
		if x == v {
			return true
		}
	}
	return false
}
