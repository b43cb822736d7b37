package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelog/internal/models"
)

const (
	EventFaceKnown   = "face_known"
	EventFaceUnknown = "face_unknown"
)

type FaceLogResponse struct {
	ID              int64   `json:"id,omitempty"`
	CreationTime    string  `json:"creation_time"`
	CameraName      string  `json:"camera_name"`
	ZoneName        string  `json:"zone_name"`
	Score           float64 `json:"score"`
	CalibratedScore float64 `json:"calibrated_score"`
	Known           bool    `json:"known"`
	PersonID        *int64  `json:"person_id,omitempty"`
	UnknownPersonID int64   `json:"unknown_person_id,omitempty"`
	Age             *int    `json:"age,omitempty"`
	Gender          *string `json:"gender,omitempty"`
	OutTime         string  `json:"out_time,omitempty"`
}

type FaceLogListResponse struct {
	FaceLogs []FaceLogResponse `json:"face_logs"`
	Total    int               `json:"total"`
}

// FaceLogQuery binds the query string of GET /v1/face-logs.
type FaceLogQuery struct {
	Limit int    `form:"limit"`
	Known *bool  `form:"known"`
	Zone  string `form:"zone"`
}

// FaceLogEvent is published to NATS and relayed to WebSocket clients.
type FaceLogEvent struct {
	EventID uuid.UUID       `json:"event_id"`
	Type    string          `json:"type"` // face_known, face_unknown
	Zone    string          `json:"zone"`
	FaceLog FaceLogResponse `json:"face_log"`
}

func FaceLogFromModel(fl *models.FaceLog) FaceLogResponse {
	r := FaceLogResponse{
		ID:              fl.ID,
		CreationTime:    fl.CreationTime.Format(time.RFC3339),
		CameraName:      fl.CameraName,
		ZoneName:        fl.ZoneName,
		Score:           fl.Score,
		CalibratedScore: fl.CalibratedScore,
		Known:           fl.Known(),
		PersonID:        fl.PersonID,
		Age:             fl.Age,
		Gender:          fl.Gender,
	}
	if !r.Known {
		r.UnknownPersonID = fl.UnknownPersonID
	}
	if fl.OutTime != nil {
		r.OutTime = fl.OutTime.Format(time.RFC3339)
	}
	return r
}

func NewFaceLogEvent(fl *models.FaceLog) FaceLogEvent {
	evt := FaceLogEvent{
		EventID: uuid.New(),
		Type:    EventFaceUnknown,
		Zone:    fl.ZoneName,
		FaceLog: FaceLogFromModel(fl),
	}
	if fl.Known() {
		evt.Type = EventFaceKnown
	}
	return evt
}
