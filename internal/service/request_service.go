package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cdlite/portal-api/internal/domain"
	"github.com/cdlite/portal-api/internal/observability"
	"github.com/cdlite/portal-api/internal/repository"
)

// RequestService handles data-access requests: registered users file them,
// admins decide them.
type RequestService struct {
	requests repository.DataRequestRepository
	datasets repository.DatasetRepository
}

func NewRequestService(requests repository.DataRequestRepository, datasets repository.DatasetRepository) *RequestService {
	return &RequestService{requests: requests, datasets: datasets}
}

type CreateRequestInput struct {
	DatasetPublicID string
	Purpose         string
}

func (s *RequestService) Create(ctx context.Context, accountID uint, in CreateRequestInput) (*domain.DataRequest, error) {
	verr := newValidationError()
	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		verr.add("purpose", "purpose is required")
	}
	if len(purpose) > 2048 {
		verr.add("purpose", "purpose must be at most 2048 characters")
	}
	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	dataset, err := s.datasets.FindByPublicID(strings.TrimSpace(in.DatasetPublicID))
	if err != nil {
		if errors.Is(err, repository.ErrDatasetNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}

	request := &domain.DataRequest{
		AccountID: accountID,
		DatasetID: dataset.ID,
		Purpose:   purpose,
		Status:    domain.RequestStatusPending,
	}
	if err := s.requests.Create(request); err != nil {
		return nil, fmt.Errorf("create data request: %w", err)
	}
	observability.RecordAuthFlow(ctx, "data_request", "filed")
	return request, nil
}

func (s *RequestService) ListMine(ctx context.Context, accountID uint, page repository.PageRequest) (repository.PageResult[domain.DataRequest], error) {
	return s.requests.ListByAccount(accountID, page)
}

// ListByStatus is the admin review queue; an empty status lists everything.
func (s *RequestService) ListByStatus(ctx context.Context, status string, page repository.PageRequest) (repository.PageResult[domain.DataRequest], error) {
	switch status {
	case "", domain.RequestStatusPending, domain.RequestStatusApproved, domain.RequestStatusDenied:
	default:
		verr := newValidationError()
		verr.add("status", "status must be pending, approved, or denied")
		return repository.PageResult[domain.DataRequest]{}, verr
	}
	return s.requests.ListByStatus(status, page)
}

// Decide settles a pending request. Decisions are final; re-deciding an
// already-settled request fails.
func (s *RequestService) Decide(ctx context.Context, adminID, requestID uint, approve bool, message string) (*domain.DataRequest, error) {
	request, err := s.requests.FindByID(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrDataRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if request.Status != domain.RequestStatusPending {
		return nil, ErrRequestDecided
	}

	now := time.Now()
	request.Status = domain.RequestStatusDenied
	if approve {
		request.Status = domain.RequestStatusApproved
	}
	request.DecidedBy = adminID
	request.DecidedAt = &now
	request.DecisionMsg = strings.TrimSpace(message)
	if err := s.requests.RecordDecision(request); err != nil {
		if errors.Is(err, repository.ErrDataRequestSettled) {
			return nil, ErrRequestDecided
		}
		return nil, fmt.Errorf("record decision: %w", err)
	}
	observability.RecordAuthFlow(ctx, "data_request", request.Status)
	return request, nil
}
