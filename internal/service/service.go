package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chipforge/internal/codec"
	"chipforge/internal/domain"
	"chipforge/internal/erc"
	"chipforge/internal/loader"
	"chipforge/internal/repository"
)

// ErrInvalidDesign marks designs rejected before they reach storage
var ErrInvalidDesign = errors.New("invalid design")

// DesignService provides business logic for designs and their ERC runs
type DesignService struct {
	repo     repository.Repository
	eventBus *EventBus
	engine   *erc.Engine
	workers  int
}

// NewDesignService creates a new design service.
// workers bounds ValidateAll concurrency; values below one mean one.
func NewDesignService(repo repository.Repository, eventBus *EventBus, opts erc.Options, workers int) *DesignService {
	if workers < 1 {
		workers = 1
	}
	return &DesignService{
		repo:     repo,
		eventBus: eventBus,
		engine:   erc.New(opts),
		workers:  workers,
	}
}

// Options returns the engine options used when a caller does not override them
func (s *DesignService) Options() erc.Options {
	return s.engine.Options()
}

// ListDesigns returns all stored designs
func (s *DesignService) ListDesigns(ctx context.Context) ([]*domain.Design, error) {
	return s.repo.ListDesigns(ctx)
}

// GetDesign retrieves a single design by ID
func (s *DesignService) GetDesign(ctx context.Context, id string) (*domain.Design, error) {
	return s.repo.GetDesign(ctx, id)
}

// CreateDesign validates and stores a new design
func (s *DesignService) CreateDesign(ctx context.Context, design *domain.Design) error {
	if err := s.validateDesign(design); err != nil {
		return err
	}

	if err := s.repo.CreateDesign(ctx, design); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:     EventDesignCreated,
		DesignID: design.ID,
		Payload:  map[string]string{"name": design.Name},
	})

	return nil
}

// UpdateDesign replaces the design stored under id
func (s *DesignService) UpdateDesign(ctx context.Context, id string, design *domain.Design) error {
	if design.ID == "" {
		design.ID = id
	}
	if design.ID != id {
		return fmt.Errorf("%w: body id %s does not match %s", ErrInvalidDesign, design.ID, id)
	}
	if err := s.validateDesign(design); err != nil {
		return err
	}

	if err := s.repo.UpdateDesign(ctx, design); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:     EventDesignUpdated,
		DesignID: id,
	})

	return nil
}

// DeleteDesign removes a design and its reports
func (s *DesignService) DeleteDesign(ctx context.Context, id string) error {
	if err := s.repo.DeleteDesign(ctx, id); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:     EventDesignDeleted,
		DesignID: id,
	})

	return nil
}

// ValidateDesign runs the ERC on a design without storing anything
func (s *DesignService) ValidateDesign(design *domain.Design) domain.ERCResult {
	return s.engine.Validate(design)
}

// ValidateDesignWithOptions runs the ERC on a design with explicit options, storing nothing
func (s *DesignService) ValidateDesignWithOptions(design *domain.Design, opts erc.Options) domain.ERCResult {
	return erc.New(opts).Validate(design)
}

// Validate runs the ERC on a stored design with the service's options and records a report
func (s *DesignService) Validate(ctx context.Context, id string) (*domain.Report, error) {
	return s.ValidateWithOptions(ctx, id, s.engine.Options())
}

// ValidateWithOptions runs the ERC on a stored design and records a report
func (s *DesignService) ValidateWithOptions(ctx context.Context, id string, opts erc.Options) (*domain.Report, error) {
	design, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		ID:         uuid.NewString(),
		DesignID:   design.ID,
		DesignName: design.Name,
		Strict:     opts.Strict,
		Result:     erc.New(opts).Validate(design),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.SaveReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	s.eventBus.Publish(Event{
		Type:     EventERCCompleted,
		DesignID: report.DesignID,
		Payload: map[string]interface{}{
			"report_id": report.ID,
			"errors":    len(report.Result.Errors),
			"warnings":  len(report.Result.Warnings),
		},
	})

	return report, nil
}

// ValidateAll validates every stored design concurrently, returning reports in design order.
// The first failure cancels the remaining runs.
func (s *DesignService) ValidateAll(ctx context.Context) ([]*domain.Report, error) {
	designs, err := s.repo.ListDesigns(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*domain.Report, len(designs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, d := range designs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := s.Validate(gctx, d.ID)
			if err != nil {
				return fmt.Errorf("validate %s: %w", d.ID, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// ListReports returns a design's reports, newest first
func (s *DesignService) ListReports(ctx context.Context, designID string, limit int) ([]*domain.Report, error) {
	if _, err := s.repo.GetDesign(ctx, designID); err != nil {
		return nil, err
	}
	return s.repo.ListReports(ctx, designID, limit)
}

// GetReport retrieves a single report by ID
func (s *DesignService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	return s.repo.GetReport(ctx, id)
}

// View derives the schematic view of a stored design
func (s *DesignService) View(ctx context.Context, id string) (*domain.SchematicView, error) {
	design, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.DeriveView(design), nil
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	DesignID string `json:"design_id"`
	Created  bool   `json:"created"`
	Strategy string `json:"strategy"`
}

// ImportYAML imports a design from YAML.
// With strategy "replace" an existing design of the same id is overwritten;
// "create" (the default) fails on an existing id.
func (s *DesignService) ImportYAML(ctx context.Context, data []byte, strategy string) (*ImportResult, error) {
	design, err := loader.ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDesign, err)
	}
	return s.ImportDesign(ctx, design, strategy)
}

// ImportDesign stores an already decoded design under the given strategy
func (s *DesignService) ImportDesign(ctx context.Context, design *domain.Design, strategy string) (*ImportResult, error) {
	if strategy == "" {
		strategy = "create"
	}
	if strategy != "create" && strategy != "replace" {
		return nil, fmt.Errorf("invalid strategy %s, must be 'create' or 'replace'", strategy)
	}
	if err := s.validateDesign(design); err != nil {
		return nil, err
	}

	result := &ImportResult{DesignID: design.ID, Strategy: strategy}

	_, err := s.repo.GetDesign(ctx, design.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := s.repo.CreateDesign(ctx, design); err != nil {
			return nil, err
		}
		result.Created = true
	case err != nil:
		return nil, err
	case strategy == "create":
		return nil, fmt.Errorf("design %s: %w", design.ID, repository.ErrConflict)
	default:
		if err := s.repo.UpdateDesign(ctx, design); err != nil {
			return nil, err
		}
	}

	s.eventBus.Publish(Event{
		Type:     EventDesignsImported,
		DesignID: design.ID,
		Payload:  result,
	})

	return result, nil
}

// Export writes a stored design in the named format
func (s *DesignService) Export(ctx context.Context, id, format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	design, err := s.repo.GetDesign(ctx, id)
	if err != nil {
		return err
	}

	// buffer so a failed export writes nothing
	var buf bytes.Buffer
	if err := c.Export(design, &buf); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// Validation helpers

func (s *DesignService) validateDesign(design *domain.Design) error {
	if design == nil {
		return fmt.Errorf("%w: design required", ErrInvalidDesign)
	}
	if design.ID == "" {
		return fmt.Errorf("%w: design ID required", ErrInvalidDesign)
	}
	if design.Name == "" {
		return fmt.Errorf("%w: design name required", ErrInvalidDesign)
	}
	if err := design.CheckReferences(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDesign, err)
	}
	return nil
}
