// Package state persists fitted calibration lines between uvcalc invocations
// using SQLite.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/leapstack-labs/uvcalc/pkg/spectro"
)

var (
	// ErrNotFound is returned when no calibration matches.
	ErrNotFound = errors.New("calibration not found")

	// ErrAmbiguousID is returned when an ID prefix matches several calibrations.
	ErrAmbiguousID = errors.New("ambiguous calibration id")

	errNotOpened = errors.New("database not opened")
)

// Calibration is a saved calibration line.
type Calibration struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name,omitempty" yaml:"name,omitempty"`
	Fit       spectro.Calibration `json:"fit" yaml:"fit"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
}

// ShortID returns the first eight characters of the ID.
func (c *Calibration) ShortID() string {
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}

// Store is the persistence contract for calibrations.
type Store interface {
	// SaveCalibration assigns ID and CreatedAt when empty and stores c.
	SaveCalibration(ctx context.Context, c *Calibration) error
	// GetCalibration finds a calibration by full ID or unique ID prefix.
	GetCalibration(ctx context.Context, id string) (*Calibration, error)
	// LatestCalibration returns the most recently saved calibration.
	LatestCalibration(ctx context.Context) (*Calibration, error)
	// ListCalibrations returns up to limit calibrations, newest first. limit <= 0 means all.
	ListCalibrations(ctx context.Context, limit int) ([]*Calibration, error)
	// DeleteCalibration removes a calibration by full ID or unique prefix.
	DeleteCalibration(ctx context.Context, id string) error
	Close() error
}
