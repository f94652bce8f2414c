package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yamenzk/ptrainer/internal/models"
)

type WizardSubmissionRepository struct {
	db DBTX
}

func NewWizardSubmissionRepository(db DBTX) *WizardSubmissionRepository {
	return &WizardSubmissionRepository{db: db}
}

func (r *WizardSubmissionRepository) Create(ctx context.Context, submission *models.WizardSubmission) error {
	params, err := json.Marshal(submission.Params)
	if err != nil {
		return fmt.Errorf("encode submission params: %w", err)
	}

	query := `
		INSERT INTO wizard_submissions (id, client_id, session_id, mode, params, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.Exec(ctx, query,
		submission.ID,
		submission.ClientID,
		submission.SessionID,
		submission.Mode,
		params,
		submission.Status,
		submission.Error,
		submission.CreatedAt,
	)
	return err
}

// ListByClient returns the client's most recent submissions, newest first.
func (r *WizardSubmissionRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]models.WizardSubmission, error) {
	query := `
		SELECT id, client_id, session_id, mode, params, status, error, created_at
		FROM wizard_submissions
		WHERE client_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]models.WizardSubmission, 0)
	for rows.Next() {
		var submission models.WizardSubmission
		var params []byte
		if err := rows.Scan(
			&submission.ID,
			&submission.ClientID,
			&submission.SessionID,
			&submission.Mode,
			&params,
			&submission.Status,
			&submission.Error,
			&submission.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(params, &submission.Params); err != nil {
			return nil, fmt.Errorf("decode params for submission %s: %w", submission.ID, err)
		}
		submissions = append(submissions, submission)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return submissions, nil
}
