package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskScoringRun = "scoring.run"

type ScoringRunPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
	Reason      string    `json:"reason"`
}

func NewScoringRunTask(payload ScoringRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoringRun, data), nil
}

func ParseScoringRunPayload(task *asynq.Task) (ScoringRunPayload, error) {
	var payload ScoringRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoringRunPayload{}, err
	}
	return payload, nil
}
