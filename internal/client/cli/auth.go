package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/authflow/internal/client/models"
	"github.com/dmitrijs2005/authflow/internal/client/stream"
	"github.com/dmitrijs2005/authflow/internal/common"
)

// Register prompts for the account form and a password, then creates the
// profile and logs in. The outcome is printed once the flow completes.
func (a *App) Register(ctx context.Context) error {
	var in models.CreateAccountInput
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Enter first name", &in.FirstName},
		{"Enter last name", &in.LastName},
		{"Enter date of birth (YYYY-MM-DD)", &in.DateOfBirth},
		{"Enter phone number", &in.PhoneNumber},
		{"Enter email", &in.Email},
		{"Enter zip code (optional)", &in.ZipCode},
	}
	for _, f := range fields {
		v, err := GetSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	in.Password = string(password)

	ch, cancel := a.auth.LoggedInUser().Subscribe()
	defer cancel()

	a.auth.Register(ctx, in)
	return a.awaitUser(ctx, ch)
}

// Login prompts for credentials and runs the two-step login.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ch, cancel := a.auth.LoggedInUser().Subscribe()
	defer cancel()

	a.auth.LogIn(ctx, email, string(password))
	return a.awaitUser(ctx, ch)
}

// BiometricLogin logs the remembered user in after a biometric prompt. The
// first successful prompt only enables biometric unlock.
func (a *App) BiometricLogin(ctx context.Context) error {
	ch, cancel := a.auth.LoggedInUser().Subscribe()
	defer cancel()

	a.auth.RequestBiometricAuthentication(ctx)
	return a.awaitUser(ctx, ch)
}

// ResetPassword prompts for an email and requests a reset link for it.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	ch, cancel := a.auth.PasswordResetRequested().Subscribe()
	defer cancel()

	a.auth.RequestPasswordReset(ctx, email)

	r, err := stream.Next(ctx, ch)
	if err != nil {
		return err
	}
	if r.Err != nil {
		a.println(describeError(r.Err))
		return r.Err
	}
	a.println(fmt.Sprintf("If an account exists for %s, a reset email is on its way.", email))
	return nil
}

// ForgetBiometric disables biometric unlock and drops the stored password.
func (a *App) ForgetBiometric(ctx context.Context) error {
	if err := a.auth.Session().DisableBiometricAuth(ctx); err != nil {
		a.log.Error(ctx, "disabling biometric unlock", "error", err)
		return err
	}
	a.println("Biometric unlock disabled.")
	return nil
}

// WhoAmI prints the logged in user.
func (a *App) WhoAmI(ctx context.Context) error {
	u, ok := a.auth.Session().CurrentUser()
	if !ok {
		a.println("Not logged in.")
		return nil
	}
	a.println(fmt.Sprintf("%s (id %s), logged in at %s", u.DisplayName(), u.Profile.ID, u.AuthenticatedAt.Format("2006-01-02 15:04:05 MST")))
	return nil
}

// Logout clears the session and the stored tokens.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.LogOut(ctx); err != nil {
		a.log.Error(ctx, "logout", "error", err)
		return err
	}
	a.println("Logged out.")
	return nil
}

func (a *App) awaitUser(ctx context.Context, ch <-chan stream.Result[models.User]) error {
	r, err := stream.Next(ctx, ch)
	if err != nil {
		return err
	}
	if r.Err != nil {
		a.println(describeError(r.Err))
		return r.Err
	}
	a.println(fmt.Sprintf("Welcome, %s!", r.Value.DisplayName()))
	return nil
}
