package api

import "time"

// MsgType is a message type for published plan messages
type MsgType string

// Published message type constants
const (
	StartPlanMsg MsgType = "plan_start"
	FeedbackMsg  MsgType = "plan_feedback"
)

// Run output size constraints for published messages
const (
	MaxRunOutputHeight = 40
	MaxRunOutputWidth  = 80
)

// Header is the common header for all published messages
type Header struct {
	PlanID  string  `json:"plan_id"`
	MsgType MsgType `json:"msg_type"`
}

// StartPlan message sent before a plan is dispatched
type StartPlan struct {
	Header
	Job         string `json:"job"`
	Directives  int    `json:"directives"`
	StartedTime string `json:"started_time"`
}

// Helper function to create a header
func NewHeader(planID string, msgType MsgType) Header {
	return Header{
		PlanID:  planID,
		MsgType: msgType,
	}
}

func NewStartPlan(planID string, job string, directives int) StartPlan {
	return StartPlan{
		Header:      NewHeader(planID, StartPlanMsg),
		Job:         job,
		Directives:  directives,
		StartedTime: time.Now().Format(time.RFC3339),
	}
}
