package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Record is an append-only audit log entry. Payment failures, fraud
// alerts and compliance findings are all journaled here with a checksum
// over the payload so after-the-fact edits are detectable.
type Record struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Action    string    `json:"action" gorm:"not null;index"`
	Resource  string    `json:"resource"`
	Payload   string    `json:"payload" gorm:"type:text"`
	Checksum  string    `json:"checksum"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name
func (Record) TableName() string {
	return "audit_records"
}

// NewRecord builds a record for the given action, serializing payload
// as JSON and stamping its SHA-256 checksum.
func NewRecord(userID uint, action, resource string, payload any) (*Record, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(body)
	return &Record{
		UserID:   userID,
		Action:   action,
		Resource: resource,
		Payload:  string(body),
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// Verify recomputes the checksum against the stored payload.
func (r *Record) Verify() bool {
	sum := sha256.Sum256([]byte(r.Payload))
	return hex.EncodeToString(sum[:]) == r.Checksum
}

// AuditRepository defines the contract for audit log persistence
type AuditRepository interface {
	Create(record *Record) error
	FindByAction(action string, limit, offset int) ([]Record, error)
	FindByUserID(userID uint, limit, offset int) ([]Record, error)
}
