package services

import (
	"fmt"
	"net/http"

	"github.com/onboardhq/onboard-engine/pkg/apperrors"
	"github.com/onboardhq/onboard-engine/pkg/authz"
)

// decisionError converts a denied decision into a sentinel-wrapped error so
// handlers can map it back to a status with errors.Is. Denials carry zero
// side effects; callers consult the decision before touching storage.
func decisionError(d authz.Decision) error {
	switch d.HTTPStatus {
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", d.Reason, apperrors.ErrValidation)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", d.Reason, apperrors.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", d.Reason, apperrors.ErrForbidden)
	}
}

// decide runs the authorization pipeline and returns an error for denials.
func decide(in authz.Input) (authz.Decision, error) {
	d := authz.Decide(in)
	if !d.Allowed {
		return d, decisionError(d)
	}
	return d, nil
}
