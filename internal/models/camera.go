package models

// Camera is a row of the cameras table. It is only ever read.
type Camera struct {
	Name     string `json:"name" db:"name"`
	ZoneName string `json:"zone_name" db:"zone_name"`
}

// Person is a row of the persons table. The row with the highest id doubles
// as the portrait source for unknown detections.
type Person struct {
	ID int64 `json:"id" db:"id"`
}
