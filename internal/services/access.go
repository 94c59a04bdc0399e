package services

import (
	"github.com/sproutbook/sproutbook/internal/access"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/metrics"
)

// decisionError maps a policy decision onto the API error taxonomy and
// records the outcome. Allowed decisions map to nil.
func decisionError(decision access.Decision) error {
	metrics.AccessDecisions.WithLabelValues(decision.Verdict.String()).Inc()

	switch decision.Verdict {
	case access.Allowed:
		return nil
	case access.DeniedNotUnlocked:
		return apperrors.NewFeatureLocked(string(decision.Feature), decision.UnlocksAtAge)
	default:
		return apperrors.ErrForbidden
	}
}
