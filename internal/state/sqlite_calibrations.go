package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

const calibrationColumns = `id, name, intercept, slope, r2, points, created_at`

// SaveCalibration stores c, assigning an ID and creation time when unset.
func (s *SQLiteStore) SaveCalibration(ctx context.Context, c *Calibration) error {
	if s.db == nil {
		return errNotOpened
	}
	if c.ID == "" {
		c.ID = generateID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	points := c.Fit.Points
	if points == nil {
		points = []spectro.Point{}
	}
	pointsJSON, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("failed to encode calibration points: %w", err)
	}

	s.logger.Debug("saving calibration",
		slog.String("id", c.ID),
		slog.String("name", c.Name),
		slog.Int("points", len(points)))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO calibrations (`+calibrationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Fit.Intercept, c.Fit.Slope, c.Fit.R2, string(pointsJSON), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save calibration: %w", err)
	}
	return nil
}

// GetCalibration finds a calibration by full ID or unique ID prefix.
func (s *SQLiteStore) GetCalibration(ctx context.Context, id string) (*Calibration, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+calibrationColumns+` FROM calibrations WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY rowid DESC LIMIT 2`,
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get calibration: %w", err)
	}
	defer func() { _ = rows.Close() }()

	found, err := scanCalibrations(rows)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	}
	for _, c := range found {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
}

// LatestCalibration returns the most recently saved calibration.
func (s *SQLiteStore) LatestCalibration(ctx context.Context) (*Calibration, error) {
	list, err := s.ListCalibrations(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// ListCalibrations returns up to limit calibrations, newest first.
func (s *SQLiteStore) ListCalibrations(ctx context.Context, limit int) ([]*Calibration, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+calibrationColumns+` FROM calibrations ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list calibrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCalibrations(rows)
}

// DeleteCalibration removes a calibration by full ID or unique prefix.
func (s *SQLiteStore) DeleteCalibration(ctx context.Context, id string) error {
	c, err := s.GetCalibration(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM calibrations WHERE id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to delete calibration: %w", err)
	}
	s.logger.Debug("deleted calibration", slog.String("id", c.ID))
	return nil
}

func scanCalibrations(rows *sql.Rows) ([]*Calibration, error) {
	var out []*Calibration
	for rows.Next() {
		c := &Calibration{}
		var points string
		if err := rows.Scan(&c.ID, &c.Name, &c.Fit.Intercept, &c.Fit.Slope, &c.Fit.R2, &points, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan calibration: %w", err)
		}
		if points != "" {
			if err := json.Unmarshal([]byte(points), &c.Fit.Points); err != nil {
				return nil, fmt.Errorf("calibration %s: failed to decode points: %w", c.ID, err)
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calibrations: %w", err)
	}
	return out, nil
}

// escapeLike makes LIKE wildcards in a user-supplied prefix match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ Store = (*SQLiteStore)(nil)

// IsNotFound reports whether err means no calibration matched.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
