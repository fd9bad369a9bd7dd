package model

import "time"

// Batch represents one generate-all run tracked as a background job
type Batch struct {
	ID          string         `json:"batchId"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	ActiveIndex int            `json:"activeIndex"`
	CurrentStep string         `json:"currentStep,omitempty"`
	Outcomes    []SceneOutcome `json:"outcomes,omitempty"`
	Error       *string        `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

// SceneOutcome records how a scene settled during a batch
type SceneOutcome struct {
	SceneID  int           `json:"sceneId"`
	Title    string        `json:"title"`
	Status   OutcomeStatus `json:"status"`
	ImageURL string        `json:"imageUrl,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// BatchReport summarises a finished batch
type BatchReport struct {
	Outcomes    []SceneOutcome `json:"outcomes"`
	Completed   int            `json:"completed"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt time.Time      `json:"completedAt"`
}

// BatchStartResponse is returned when a batch has been accepted
type BatchStartResponse struct {
	BatchID   string    `json:"batchId"`
	Status    JobStatus `json:"status"`
	Scenes    int       `json:"scenes"`
	CreatedAt time.Time `json:"createdAt"`
}

// BatchJobPayload is the asynq task payload for a batch
type BatchJobPayload struct {
	BatchID string `json:"batchId"`
}
