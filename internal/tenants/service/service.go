package service

import (
	"context"
	"errors"

	"leadline_backend/internal/tenants/repository"
	"leadline_backend/internal/tenants/transport"
	"leadline_backend/platform/apperr"
	"leadline_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, tenantID uuid.UUID) (transport.TenantResponse, error) {
	tenant, err := s.repo.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TenantResponse{}, apperr.NotFound("tenant not found")
		}
		return transport.TenantResponse{}, err
	}
	return toTenantResponse(tenant), nil
}

func (s *Service) UpdateSettings(ctx context.Context, tenantID uuid.UUID, req transport.UpdateSettingsRequest) (transport.TenantResponse, error) {
	services := req.Services
	if services == nil {
		services = []string{}
	}

	tenant, err := s.repo.UpdateSettings(ctx, tenantID, repository.UpdateSettingsParams{
		Name:                req.Name,
		OwnerEmail:          req.OwnerEmail,
		PrimaryPhone:        phone.NormalizeE164(req.PrimaryPhone),
		SMSFromNumber:       phone.NormalizeE164(req.SMSFromNumber),
		ClaimTimeoutSeconds: req.ClaimTimeoutSeconds,
		AIGreeting:          req.AIGreeting,
		AITone:              req.AITone,
		Services:            services,
		CalendarLink:        req.CalendarLink,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.TenantResponse{}, apperr.NotFound("tenant not found")
		}
		return transport.TenantResponse{}, err
	}
	return toTenantResponse(tenant), nil
}

func (s *Service) ListMembers(ctx context.Context, tenantID uuid.UUID) ([]transport.MemberResponse, error) {
	members, err := s.repo.ListMembers(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	responses := make([]transport.MemberResponse, 0, len(members))
	for _, member := range members {
		responses = append(responses, toMemberResponse(member))
	}
	return responses, nil
}

func (s *Service) CreateMember(ctx context.Context, tenantID uuid.UUID, req transport.MemberRequest) (transport.MemberResponse, error) {
	member, err := s.repo.CreateMember(ctx, tenantID, repository.MemberParams{
		Name:         req.Name,
		Phone:        phone.NormalizeE164(req.Phone),
		NotifyOnLead: req.NotifyOnLead,
	})
	if err != nil {
		return transport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (s *Service) UpdateMember(ctx context.Context, memberID, tenantID uuid.UUID, req transport.MemberRequest) (transport.MemberResponse, error) {
	member, err := s.repo.UpdateMember(ctx, memberID, tenantID, repository.MemberParams{
		Name:         req.Name,
		Phone:        phone.NormalizeE164(req.Phone),
		NotifyOnLead: req.NotifyOnLead,
	})
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			return transport.MemberResponse{}, apperr.NotFound("team member not found")
		}
		return transport.MemberResponse{}, err
	}
	return toMemberResponse(member), nil
}

func (s *Service) DeleteMember(ctx context.Context, memberID, tenantID uuid.UUID) error {
	err := s.repo.DeleteMember(ctx, memberID, tenantID)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return apperr.NotFound("team member not found")
	}
	return err
}

func toTenantResponse(tenant repository.Tenant) transport.TenantResponse {
	return transport.TenantResponse{
		ID:                  tenant.ID,
		Name:                tenant.Name,
		OwnerEmail:          tenant.OwnerEmail,
		PrimaryPhone:        tenant.PrimaryPhone,
		SMSFromNumber:       tenant.SMSFromNumber,
		ClaimTimeoutSeconds: tenant.ClaimTimeoutSeconds,
		AIGreeting:          tenant.AIGreeting,
		AITone:              tenant.AITone,
		Services:            tenant.Services,
		CalendarLink:        tenant.CalendarLink,
		CreatedAt:           tenant.CreatedAt,
	}
}

func toMemberResponse(member repository.TeamMember) transport.MemberResponse {
	return transport.MemberResponse{
		ID:           member.ID,
		Name:         member.Name,
		Phone:        member.Phone,
		NotifyOnLead: member.NotifyOnLead,
		CreatedAt:    member.CreatedAt,
	}
}
