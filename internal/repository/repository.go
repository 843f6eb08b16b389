package repository

import (
	"context"
	"errors"

	"chipforge/internal/domain"
)

// ErrNotFound is returned when a design or report does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when creating a design whose id is taken
var ErrConflict = errors.New("already exists")

// Repository defines the interface for design and ERC report storage
type Repository interface {
	// Design operations
	CreateDesign(ctx context.Context, design *domain.Design) error
	GetDesign(ctx context.Context, id string) (*domain.Design, error)
	ListDesigns(ctx context.Context) ([]*domain.Design, error)
	UpdateDesign(ctx context.Context, design *domain.Design) error
	DeleteDesign(ctx context.Context, id string) error

	// Report operations; reports are deleted with their design
	SaveReport(ctx context.Context, report *domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	ListReports(ctx context.Context, designID string, limit int) ([]*domain.Report, error)

	// Close releases resources
	Close() error
}
