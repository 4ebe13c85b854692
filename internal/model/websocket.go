package model

// WebSocket message types
const (
	WSMessageTypeStatus   = "status"
	WSMessageTypeComplete = "complete"
	WSMessageTypeFailed   = "failed"
	WSMessageTypeReset    = "reset"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusMessage is pushed on every non-terminal poll cycle.
type WSStatusMessage struct {
	Type   string    `json:"type"`
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}

// WSCompleteMessage is pushed once when the current job finishes.
type WSCompleteMessage struct {
	Type        string `json:"type"`
	JobID       string `json:"jobId"`
	OutputKey   string `json:"outputKey,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// WSFailedMessage is pushed once when the current job fails.
type WSFailedMessage struct {
	Type         string `json:"type"`
	JobID        string `json:"jobId"`
	ErrorMessage string `json:"errorMessage"`
}

// WSResetMessage is pushed when the current job disappeared server-side and
// the in-progress section should be hidden without an error.
type WSResetMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
}
