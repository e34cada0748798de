package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/featureflag/pkg/feature"
)

const (
	selectPercentage = `SELECT percentage FROM feature_flag WHERE feature_id = $1`
	upsertPercentage = `INSERT INTO feature_flag (feature_id, percentage) VALUES ($1, $2)
ON CONFLICT (feature_id) DO UPDATE SET percentage = EXCLUDED.percentage`
	deletePercentage = `DELETE FROM feature_flag WHERE feature_id = $1`
)

// DB is the subset of *pgxpool.Pool the lookup uses. *pgx.Conn and pgx.Tx
// satisfy it too.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Lookup reads and writes the feature_flag table.
type Lookup struct {
	db DB
}

func NewLookup(db DB) (*Lookup, error) {
	if db == nil {
		return nil, errors.Join(feature.ErrMissingConfiguration, ErrNilDB)
	}
	return &Lookup{db: db}, nil
}

func (l *Lookup) LookupPercentage(ctx context.Context, featureID string) (float64, bool, error) {
	var p *float64
	err := l.db.QueryRow(ctx, selectPercentage, featureID).Scan(&p)
	switch {
	case IsNotFoundError(err):
		return 0, false, nil
	case err != nil:
		return 0, false, feature.Unavailable(err)
	case p == nil:
		return 0, false, errors.Join(feature.ErrInvalidRecord, errors.New("percentage is NULL"))
	}
	return *p, true, nil
}

func (l *Lookup) SetPercentage(ctx context.Context, featureID string, percentage float64) (bool, error) {
	if err := feature.ValidatePercentage(percentage); err != nil {
		return false, err
	}
	tag, err := l.db.Exec(ctx, upsertPercentage, featureID, percentage)
	if err != nil {
		return false, feature.Unavailable(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (l *Lookup) DeletePercentage(ctx context.Context, featureID string) error {
	if _, err := l.db.Exec(ctx, deletePercentage, featureID); err != nil {
		return feature.Unavailable(err)
	}
	return nil
}
