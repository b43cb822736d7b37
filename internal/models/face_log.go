package models

import "time"

// PlaceholderBlob fills the data and image columns of generated rows.
const PlaceholderBlob = "x"

const (
	PlaceholderScore           = 0.5
	PlaceholderCalibratedScore = 0
)

// Attribution says who a detection is attributed to. Exactly one field
// carries a real id: a known detection has UnknownPersonID 0 and a non-nil
// PersonID, an unknown one has a nil PersonID.
type Attribution struct {
	UnknownPersonID int64
	PersonID        *int64
}

func KnownAttribution(personID int64) Attribution {
	return Attribution{PersonID: &personID}
}

func UnknownAttribution(unknownPersonID int64) Attribution {
	return Attribution{UnknownPersonID: unknownPersonID}
}

func (a Attribution) Known() bool {
	return a.PersonID != nil
}

// FaceLog is a row of the face_logs table.
type FaceLog struct {
	ID              int64      `json:"id" db:"id"`
	CreationTime    time.Time  `json:"creation_time" db:"creation_time"`
	Age             *int       `json:"age" db:"age"`
	CalibratedScore float64    `json:"calibratedScore" db:"calibratedScore"`
	CameraName      string     `json:"camera_name" db:"camera_name"`
	Data            string     `json:"data" db:"data"`
	Gender          *string    `json:"gender" db:"gender"`
	Image           string     `json:"image" db:"image"`
	OutTime         *time.Time `json:"out_time" db:"out_time"`
	Score           float64    `json:"score" db:"score"`
	UnknownPersonID int64      `json:"unknown_person_id" db:"unknown_person_id"`
	ZoneName        string     `json:"zone_name" db:"zone_name"`
	PersonID        *int64     `json:"person" db:"person"`
}

// NewFaceLog builds a synthetic detection with the fixed placeholder fields.
func NewFaceLog(createdAt time.Time, cam Camera, who Attribution) *FaceLog {
	return &FaceLog{
		CreationTime:    createdAt,
		CalibratedScore: PlaceholderCalibratedScore,
		CameraName:      cam.Name,
		Data:            PlaceholderBlob,
		Image:           PlaceholderBlob,
		Score:           PlaceholderScore,
		UnknownPersonID: who.UnknownPersonID,
		ZoneName:        cam.ZoneName,
		PersonID:        who.PersonID,
	}
}

func (f *FaceLog) Known() bool {
	return f.PersonID != nil
}
