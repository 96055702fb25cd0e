package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophdiary/internal/client/api"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var (
	errNotLoggedIn    = errors.New("not logged in")
	errSessionExpired = errors.New("session expired, please log in again")
)

func (a *App) credentials() (string, string, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", "", err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return "", "", err
	}
	password := string(pw)
	clear(pw)
	return userName, password, nil
}

// Signup creates an account. It does not log in.
func (a *App) Signup(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	if err := a.api.Signup(ctx, userName, password); err != nil {
		return err
	}
	a.println("Account created, you can log in now.")
	return nil
}

// Login authenticates and stores the session in the local cache.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	token, err := a.api.Login(ctx, userName, password)
	if err != nil {
		return err
	}
	if err := a.store.SaveSession(ctx, userName, token); err != nil {
		return err
	}
	a.userName, a.token = userName, token
	a.println("Logged in as", userName)
	return nil
}

// Logout revokes the token on the server and forgets the local session.
// The local session is dropped even when the server is unreachable.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	err := a.api.Logout(ctx, a.token)
	if dropErr := a.dropSession(ctx); dropErr != nil {
		return dropErr
	}
	if err != nil && !api.IsUnauthorized(err) {
		a.println("Logged out locally, server said:", err.Error())
		return nil
	}
	a.println("Logged out")
	return nil
}

func (a *App) dropSession(ctx context.Context) error {
	a.userName, a.token = "", ""
	return a.store.ClearSession(ctx)
}

// checkSession turns a 401 into a dropped session.
func (a *App) checkSession(ctx context.Context, err error) error {
	if api.IsUnauthorized(err) {
		_ = a.dropSession(ctx)
		return errSessionExpired
	}
	return err
}
