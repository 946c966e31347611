package core

import (
	"bytes"
	"context"
	"fmt"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"
	"fimfiction/lib/scrapers/fimfiction/search"
)

const (
	report_client_login           = "client.login"
	report_client_logout          = "client.logout"
	report_client_current_session = "client.current-session"
)

// Login signs in with a username and password, the session cookies are
// kept in the client's cookie jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"keep_logged_in": "1",
			"username":       username,
			"password":       password,
		}).
		Post(c.Endpoints.Login)
	err = checkResponse(res, err)
	if err != nil {
		return c.fail(span, report_client_login, fmt.Errorf("login: %w", err))
	}

	body := res.Body()
	if len(body) == 0 {
		return c.fail(span, report_client_login, fmt.Errorf("login: %w: empty body", ErrUnexpectedResponse))
	}
	switch body[0] {
	case '0':
		return nil
	case '1':
		return fmt.Errorf("login: %w", ErrBadPassword)
	case '2':
		return fmt.Errorf("login: %w", ErrBadUsername)
	}
	return c.fail(span, report_client_login, fmt.Errorf("login: %w: status byte %q", ErrUnexpectedResponse, body[0]))
}

// Logout ends the session, nonce is the logout nonce of the session.
func (c *Client) Logout(ctx context.Context, nonce string) error {
	ctx, span := tracer.Start(ctx, "client:Logout")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"nonce": nonce}).
		Post(c.Endpoints.Logout)
	err = checkResponse(res, err)
	if err != nil {
		return c.fail(span, report_client_logout, fmt.Errorf("logout: %w", err))
	}
	return nil
}

// Session is who the site thinks is logged in.
type Session struct {
	// User is nil when nobody is logged in.
	User  *bundle.Record
	Nonce string
}

func (s Session) LoggedIn() bool {
	return s.User != nil
}

// UserID is the id of the logged in user, ErrNotLoggedIn if there is none.
func (s Session) UserID() (int64, error) {
	if s.User == nil {
		return 0, ErrNotLoggedIn
	}
	return bundle.Int(s.User, model.UserID)
}

// CurrentSession reads the session from the home page.
func (c *Client) CurrentSession(ctx context.Context) (Session, error) {
	ctx, span := tracer.Start(ctx, "client:CurrentSession")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.Endpoints.Home)
	err = checkResponse(res, err)
	if err != nil {
		return Session{}, c.fail(span, report_client_current_session, fmt.Errorf("current session: %w", err))
	}

	result, err := c.pages.Parse(bytes.NewBuffer(res.Body()), search.IDOnly)
	if err != nil {
		return Session{}, c.fail(span, report_client_current_session, fmt.Errorf("current session: %w", err))
	}
	if !result.SessionKnown {
		return Session{}, c.fail(
			span,
			report_client_current_session,
			fmt.Errorf("current session: %w: page has no session script", ErrUnexpectedResponse),
		)
	}

	session := Session{}
	if user, ok := result.LoggedInUser.Get(); ok {
		session.User = user.(*bundle.Record)
	}
	if nonce, ok := result.Nonce.Get(); ok {
		session.Nonce = nonce.(string)
	}
	return session, nil
}
