package models

import "time"

const (
	SubmissionSucceeded = "succeeded"
	SubmissionFailed    = "failed"
)

type WizardSubmission struct {
	ID        string              `json:"id"`
	ClientID  string              `json:"client_id"`
	SessionID string              `json:"session_id"`
	Mode      string              `json:"mode"`
	Params    map[string][]string `json:"params"`
	Status    string              `json:"status"`
	Error     *string             `json:"error"`
	CreatedAt time.Time           `json:"created_at"`
}

type ClientSnapshotRecord struct {
	ClientID    string             `json:"client_id"`
	Membership  string             `json:"membership"`
	Snapshot    MembershipSnapshot `json:"snapshot"`
	RefreshedAt time.Time          `json:"refreshed_at"`
}
