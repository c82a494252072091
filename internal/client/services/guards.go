package services

import "github.com/dmitrijs2005/cloudkeeper/internal/client/authstate"

// RequireAuthenticated gates views that need a logged-in user.
func RequireAuthenticated(s authstate.Snapshot) error {
	if !s.IsAuthenticated || s.User == nil {
		return ErrNotAuthenticated
	}
	return nil
}

// RequireAdmin gates administrator views.
func RequireAdmin(s authstate.Snapshot) error {
	if err := RequireAuthenticated(s); err != nil {
		return err
	}
	if !s.User.IsAdmin {
		return ErrForbidden
	}
	return nil
}
