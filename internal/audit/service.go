package audit

import (
	"context"
	"fmt"

	"github.com/storykeep/storykeep/internal/shared"
)

// TimelineRepository abstracts the queries the timeline service needs.
type TimelineRepository interface {
	Timeline(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error)
	Count(ctx context.Context, filters TimelineFilters) (int, error)
}

// Service coordinates audit timeline reads.
type Service struct {
	repo TimelineRepository
}

// NewService creates an audit timeline service.
func NewService(repo TimelineRepository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches decision records with paging. CommunityID must already be
// scoped to the caller's community.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	if filters.CommunityID == 0 {
		return Result{}, fmt.Errorf("audit: community scope required")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return Result{}, err
	}
	rows, err := s.repo.Timeline(ctx, filters, pageSize, (page-1)*pageSize)
	if err != nil {
		return Result{}, err
	}
	return Result{Rows: rows, Paging: shared.NewPagination(page, pageSize, total)}, nil
}
