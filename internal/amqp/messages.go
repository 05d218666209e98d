package amqp

import (
	"encoding/json"
	"time"
)

// ExportJobMessage asks the report worker to render an export. It carries
// only identifiers; the worker reads everything else from the database.
type ExportJobMessage struct {
	JobID     string    `json:"job_id"`
	FamilyID  int64     `json:"family_id"`
	Format    string    `json:"format"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// DigestMessage asks the report worker to email a monthly summary to all
// members of a family.
type DigestMessage struct {
	FamilyID  int64     `json:"family_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportJobMessage builds an export request for the given job.
func NewExportJobMessage(jobID string, familyID int64, format string, year, month int) *ExportJobMessage {
	return &ExportJobMessage{
		JobID:     jobID,
		FamilyID:  familyID,
		Format:    format,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

// NewDigestMessage builds a digest request for a family and month.
func NewDigestMessage(familyID int64, year, month int) *DigestMessage {
	return &DigestMessage{
		FamilyID:  familyID,
		Year:      year,
		Month:     month,
		Timestamp: time.Now(),
	}
}

func (m *ExportJobMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func (m *DigestMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

// ExportJobMessageFromJSON decodes an export request.
func ExportJobMessageFromJSON(data []byte) (*ExportJobMessage, error) {
	var msg ExportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DigestMessageFromJSON decodes a digest request.
func DigestMessageFromJSON(data []byte) (*DigestMessage, error) {
	var msg DigestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
