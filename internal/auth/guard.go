package auth

import (
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
)

// Authorize allows actor to act on a resource owned by owner.
// An anonymous actor is never reported as forbidden.
func Authorize(actor Identity, owner uint) error {
	if actor.IsAnonymous() {
		return models.ErrNotAuthenticated
	}
	if actor.UserID != owner {
		return models.ErrForbidden
	}
	return nil
}
