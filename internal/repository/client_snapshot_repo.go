package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yamenzk/ptrainer/internal/models"
)

type ClientSnapshotRepository struct {
	db DBTX
}

func NewClientSnapshotRepository(db DBTX) *ClientSnapshotRepository {
	return &ClientSnapshotRepository{db: db}
}

// Upsert stores the latest snapshot for a client. Whatever was there before is
// replaced.
func (r *ClientSnapshotRepository) Upsert(ctx context.Context, record models.ClientSnapshotRecord) error {
	payload, err := json.Marshal(record.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO client_snapshots (client_id, membership, snapshot, refreshed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE
		SET membership = EXCLUDED.membership,
			snapshot = EXCLUDED.snapshot,
			refreshed_at = EXCLUDED.refreshed_at
	`
	_, err = r.db.Exec(ctx, query, record.ClientID, record.Membership, payload, record.RefreshedAt)
	return err
}

func (r *ClientSnapshotRepository) GetByClientID(ctx context.Context, clientID string) (*models.ClientSnapshotRecord, error) {
	query := `
		SELECT client_id, membership, snapshot, refreshed_at
		FROM client_snapshots
		WHERE client_id = $1
	`
	var record models.ClientSnapshotRecord
	var payload []byte
	err := r.db.QueryRow(ctx, query, clientID).
		Scan(&record.ClientID, &record.Membership, &payload, &record.RefreshedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &record.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", clientID, err)
	}
	return &record, nil
}

func (r *ClientSnapshotRepository) List(ctx context.Context) ([]models.ClientSnapshotRecord, error) {
	query := `
		SELECT client_id, membership, snapshot, refreshed_at
		FROM client_snapshots
		ORDER BY client_id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.ClientSnapshotRecord, 0)
	for rows.Next() {
		var record models.ClientSnapshotRecord
		var payload []byte
		if err := rows.Scan(&record.ClientID, &record.Membership, &payload, &record.RefreshedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &record.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot for %s: %w", record.ClientID, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
