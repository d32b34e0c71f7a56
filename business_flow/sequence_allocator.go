package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/event-funnel/repository"
)

// SequenceAllocator issues per-campaign submission numbers with a compare-and-swap
// on survey_campaigns.next_sequence_number. No row lock is taken.
type SequenceAllocator interface {
	// Allocate returns the reserved number N after moving the counter to N+1,
	// or ErrSequenceContention when another allocator won the race.
	Allocate(ctx context.Context, campaignID uint) (int64, error)
	// AllocateWithRetry re-reads and retries the swap up to retries extra times.
	AllocateWithRetry(ctx context.Context, campaignID uint, retries int) (int64, error)
}

type SequenceAllocatorImpl struct {
	campaignRepo repository.SurveyCampaignRepository
}

func NewSequenceAllocator(campaignRepo repository.SurveyCampaignRepository) SequenceAllocator {
	return &SequenceAllocatorImpl{campaignRepo: campaignRepo}
}

func (a *SequenceAllocatorImpl) Allocate(ctx context.Context, campaignID uint) (int64, error) {
	campaign, err := a.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence counter: %w", err)
	}
	if campaign == nil {
		return 0, ErrCampaignNotFound
	}

	stored := campaign.NextSequenceNumber
	n := stored
	if n <= 0 {
		n = 1
	}

	swapped, err := a.campaignRepo.SwapNextSequence(ctx, campaignID, stored, n+1)
	if err != nil {
		return 0, err
	}
	if !swapped {
		sequenceContentionTotal.Inc()
		return 0, ErrSequenceContention
	}
	return n, nil
}

func (a *SequenceAllocatorImpl) AllocateWithRetry(ctx context.Context, campaignID uint, retries int) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		n, err := a.Allocate(ctx, campaignID)
		if err == nil {
			return n, nil
		}
		if !IsSequenceContention(err) {
			return 0, err
		}
		lastErr = err
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}
	return 0, lastErr
}
