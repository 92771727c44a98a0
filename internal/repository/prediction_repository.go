package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/heart-disease-api/internal/model"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

const createPredictionsTable = `CREATE TABLE IF NOT EXISTS predictions (
	id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	prediction_id CHAR(36) NOT NULL UNIQUE,
	probability DOUBLE NOT NULL,
	prediction TINYINT NOT NULL,
	risk_level VARCHAR(16) NOT NULL,
	model_version VARCHAR(128) NOT NULL,
	features_json JSON NOT NULL,
	created_at DATETIME(3) NOT NULL,
	INDEX idx_predictions_created_at (created_at)
)`

// PredictionRepo stores one row per served prediction. A nil *PredictionRepo
// is valid and reports ErrNotConfigured.
type PredictionRepo struct{ DB *sql.DB }

func NewPredictionRepo(db *sql.DB) *PredictionRepo { return &PredictionRepo{DB: db} }

func (r *PredictionRepo) ready() error {
	if r == nil || r.DB == nil {
		return ErrNotConfigured
	}
	return nil
}

// EnsureSchema creates the predictions table when it does not exist.
func (r *PredictionRepo) EnsureSchema(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, createPredictionsTable)
	return err
}

// Insert appends an audit entry and returns its row id.
func (r *PredictionRepo) Insert(ctx context.Context, e model.PredictionEntry) (uint64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO predictions (prediction_id, probability, prediction, risk_level, model_version, features_json, created_at) VALUES (?,?,?,?,?,?,?)",
		e.PredictionID, e.Probability, e.Label, e.RiskLevel, e.ModelVersion, string(e.Features), e.CreatedAt.UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListRecent returns the newest entries first. limit is clamped to
// [1,100]; zero or negative selects the default of 20.
func (r *PredictionRepo) ListRecent(ctx context.Context, limit int) ([]model.PredictionEntry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, prediction_id, probability, prediction, risk_level, model_version, features_json, created_at FROM predictions ORDER BY created_at DESC, id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.PredictionEntry, 0, limit)
	for rows.Next() {
		var (
			e        model.PredictionEntry
			features []byte
		)
		if err := rows.Scan(&e.ID, &e.PredictionID, &e.Probability, &e.Label, &e.RiskLevel, &e.ModelVersion, &features, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Features = features
		out = append(out, e)
	}
	return out, rows.Err()
}
