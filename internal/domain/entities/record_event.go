package entities

import "time"

// RecordEventType is the kind of change made to a patient record
type RecordEventType string

const (
	RecordEventUpserted RecordEventType = "upserted"
	RecordEventDeleted  RecordEventType = "deleted"
)

// RecordEvent announces a change to one patient's stored record
type RecordEvent struct {
	ID         string          `json:"id"`
	PatientUID string          `json:"patient_uid"`
	EventType  RecordEventType `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
}
