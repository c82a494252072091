package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/services"
	"github.com/dmitrijs2005/cloudkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account fields and creates the account. Field
// rules are checked before anything is sent; the first broken rule is
// printed.
func (a *App) Register(ctx context.Context) error {
	var reg models.Registration
	var err error

	if reg.Username, err = getSimpleText(a.reader, "Enter username", a.out); err != nil {
		return err
	}
	if reg.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if reg.FullName, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	reg.Password = string(password)

	u, err := a.authService.Register(ctx, reg)
	if err != nil {
		a.fail(err)
		return err
	}

	fmt.Fprintf(a.out, "Welcome, %s!\n", displayName(u))
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, userName, string(password))
	if err != nil {
		a.fail(err)
		return err
	}

	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(u))
	return nil
}

// Logout always leaves the client logged out; a returned error means the
// server could not be told.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.fail(err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(context.Context) error {
	snap := a.authService.Snapshot()
	if err := services.RequireAuthenticated(snap); err != nil {
		a.fail(err)
		return err
	}
	u := snap.User
	fmt.Fprintf(a.out, "id:        %d\nusername:  %s\nfull name: %s\nemail:     %s\nadmin:     %t\n",
		u.ID, u.Username, u.FullName, u.Email, u.IsAdmin)
	return nil
}

// Admin only checks access; there are no administrator commands yet.
func (a *App) Admin(context.Context) error {
	if err := services.RequireAdmin(a.authService.Snapshot()); err != nil {
		a.fail(err)
		return err
	}
	fmt.Fprintln(a.out, "Administrator access granted")
	return nil
}

// Refresh renews the credential where the strategy supports it and reloads
// the profile from the server.
func (a *App) Refresh(ctx context.Context) error {
	if err := services.RequireAuthenticated(a.authService.Snapshot()); err != nil {
		a.fail(err)
		return err
	}
	if err := a.authService.Refresh(ctx); err != nil {
		a.fail(err)
		return err
	}
	u, ok := a.authService.FetchCurrentUser(ctx)
	if !ok {
		err := services.ErrSessionExpired
		a.fail(err)
		return err
	}
	fmt.Fprintf(a.out, "Session refreshed for %s\n", displayName(*u))
	return nil
}

func (a *App) Status(context.Context) error {
	snap := a.authService.Snapshot()
	strategy := ""
	if a.config != nil {
		strategy = a.config.Strategy + ", "
	}
	if snap.IsAuthenticated {
		fmt.Fprintf(a.out, "%slogged in as %s\n", strategy, snap.User.Username)
	} else {
		fmt.Fprintf(a.out, "%snot logged in\n", strategy)
	}
	return nil
}

func (a *App) fail(err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(a.out, "Invalid %s: %s\n", verr.Field, verr.Message)
		return
	}
	fmt.Fprintln(a.out, "Error:", err.Error())
}

func displayName(u models.User) string {
	if u.FullName != "" {
		return fmt.Sprintf("%s (%s)", u.FullName, u.Username)
	}
	return u.Username
}
