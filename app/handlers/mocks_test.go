package handlers

import (
	"context"
	"time"

	"github.com/amirphl/event-funnel/app/dto"
	"github.com/amirphl/event-funnel/app/middleware"
	businessflow "github.com/amirphl/event-funnel/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockSubmissionFlow struct {
	mock.Mock
}

func (m *MockSubmissionFlow) Submit(ctx context.Context, req *dto.SubmitEntryRequest, metadata *businessflow.ClientMetadata) (*dto.SubmitEntryResponse, error) {
	args := m.Called(ctx, req, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitEntryResponse), args.Error(1)
}

func (m *MockSubmissionFlow) Register(ctx context.Context, req *dto.RegisterEntryRequest, metadata *businessflow.ClientMetadata) (*dto.SubmitEntryResponse, error) {
	args := m.Called(ctx, req, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitEntryResponse), args.Error(1)
}

type MockVisitFlow struct {
	mock.Mock
}

func (m *MockVisitFlow) RecordVisit(ctx context.Context, req *dto.RecordVisitRequest, metadata *businessflow.ClientMetadata) (*dto.RecordVisitResponse, error) {
	args := m.Called(ctx, req, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RecordVisitResponse), args.Error(1)
}

type MockMarketingLinkFlow struct {
	mock.Mock
}

func (m *MockMarketingLinkFlow) ListTemplates(ctx context.Context) *dto.ListMarketingLinkTemplatesResponse {
	args := m.Called(ctx)
	return args.Get(0).(*dto.ListMarketingLinkTemplatesResponse)
}

func (m *MockMarketingLinkFlow) Create(ctx context.Context, req *dto.CreateMarketingLinkRequest, metadata *businessflow.ClientMetadata) (*dto.CreateMarketingLinkResponse, error) {
	args := m.Called(ctx, req, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CreateMarketingLinkResponse), args.Error(1)
}

func (m *MockMarketingLinkFlow) List(ctx context.Context, req *dto.ListMarketingLinksRequest) (*dto.ListMarketingLinksResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListMarketingLinksResponse), args.Error(1)
}

func (m *MockMarketingLinkFlow) UpdateStatus(ctx context.Context, req *dto.UpdateMarketingLinkStatusRequest, metadata *businessflow.ClientMetadata) (*dto.UpdateMarketingLinkStatusResponse, error) {
	args := m.Called(ctx, req, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UpdateMarketingLinkStatusResponse), args.Error(1)
}

type MockEntryExportFlow struct {
	mock.Mock
}

func (m *MockEntryExportFlow) Export(ctx context.Context, req *dto.ExportEntriesRequest) (*dto.ExportEntriesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExportEntriesResponse), args.Error(1)
}

type MockMarketingStatsFlow struct {
	mock.Mock
}

func (m *MockMarketingStatsFlow) Aggregate(ctx context.Context, from, to time.Time) (*dto.AggregateMarketingStatsResult, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AggregateMarketingStatsResult), args.Error(1)
}

func (m *MockMarketingStatsFlow) List(ctx context.Context, req *dto.ListMarketingStatsRequest) (*dto.ListMarketingStatsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListMarketingStatsResponse), args.Error(1)
}

// asClient stands in for the bearer middleware
func asClient(clientID uuid.UUID, name string) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals(middleware.ClientIDKey, clientID)
		c.Locals(middleware.ClientNameKey, name)
		return c.Next()
	}
}

var (
	_ businessflow.SubmissionFlow     = (*MockSubmissionFlow)(nil)
	_ businessflow.VisitFlow          = (*MockVisitFlow)(nil)
	_ businessflow.MarketingLinkFlow  = (*MockMarketingLinkFlow)(nil)
	_ businessflow.EntryExportFlow    = (*MockEntryExportFlow)(nil)
	_ businessflow.MarketingStatsFlow = (*MockMarketingStatsFlow)(nil)
)
