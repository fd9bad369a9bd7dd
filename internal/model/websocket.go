package model

// WebSocket message types
const (
	WSMessageTypeScenes   = "scenes"
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSScenesMessage carries a scene board snapshot
type WSScenesMessage struct {
	Type  string      `json:"type"`
	Board *SceneBoard `json:"board"`
}

// WSProgressMessage represents a batch progress update
type WSProgressMessage struct {
	Type        string    `json:"type"`
	BatchID     string    `json:"batchId"`
	Progress    int       `json:"progress"`
	Status      JobStatus `json:"status"`
	CurrentStep string    `json:"currentStep,omitempty"`
}

// WSCompleteMessage represents batch completion
type WSCompleteMessage struct {
	Type    string      `json:"type"`
	BatchID string      `json:"batchId"`
	Result  interface{} `json:"result"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type    string  `json:"type"`
	BatchID string  `json:"batchId"`
	Error   WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
