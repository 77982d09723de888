package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateJobCache invalidates all job-related caches, including match
// scores computed against the job's previous skill list.
func InvalidateJobCache(ctx context.Context, cm *CacheManager, jobID, businessID uint) {
	SafeDelete(ctx, cm.Job,
		fmt.Sprintf("id:%d", jobID),
		fmt.Sprintf("details:%d", jobID))

	SafeInvalidatePattern(ctx, cm.Job, fmt.Sprintf("business:%d:*", businessID))
	SafeInvalidatePattern(ctx, cm.Job, "list:*")
	SafeInvalidatePattern(ctx, cm.Match, fmt.Sprintf("job:%d:*", jobID))
}

// InvalidateProposalCache invalidates all proposal-related caches
func InvalidateProposalCache(ctx context.Context, cm *CacheManager, proposalID, jobID, freelancerID uint) {
	SafeDelete(ctx, cm.Proposal, fmt.Sprintf("id:%d", proposalID))
	SafeInvalidatePattern(ctx, cm.Proposal, fmt.Sprintf("job:%d:*", jobID))
	SafeInvalidatePattern(ctx, cm.Proposal, fmt.Sprintf("freelancer:%d:*", freelancerID))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("proposal:%d:%d", jobID, freelancerID))
}
