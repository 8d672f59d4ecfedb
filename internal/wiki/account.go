package wiki

import (
	"context"
	"fmt"
	"net/url"
)

// Fallback reasons when the wiki rejects a request without saying why.
const (
	DefaultLoginFailure = "login failed"
	DefaultEditFailure  = "edit failed"
)

type tokensResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

func (c *Client) token(ctx context.Context, kind string) (*tokensResponse, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("meta", "tokens")
	params.Set("type", kind)

	var resp tokensResponse
	if err := c.apiGet(ctx, params, &resp); err != nil {
		return nil, fmt.Errorf("fetching %s token: %w", kind, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("fetching %s token: %s", kind, resp.Error.Info)
	}
	return &resp, nil
}

// LoginToken fetches a login token. The response also sets the session
// cookie the token is bound to, so the same cookie jar must be used to log in.
func (c *Client) LoginToken(ctx context.Context) (string, error) {
	resp, err := c.token(ctx, "login")
	if err != nil {
		return "", err
	}
	if resp.Query.Tokens.LoginToken == "" {
		return "", fmt.Errorf("fetching login token: empty token")
	}
	return resp.Query.Tokens.LoginToken, nil
}

// CSRFToken fetches an edit token for the session carried by the cookie jar.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	resp, err := c.token(ctx, "csrf")
	if err != nil {
		return "", err
	}
	// Anonymous sessions get the placeholder token "+\".
	if t := resp.Query.Tokens.CSRFToken; t == "" || t == `+\` {
		return "", NotAuthenticatedError{}
	}
	return resp.Query.Tokens.CSRFToken, nil
}

// LoginResult is a successful login.
type LoginResult struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type loginResponse struct {
	Error *apiError `json:"error"`
	Login *struct {
		Result     string `json:"result"`
		Reason     string `json:"reason"`
		LgUserID   int64  `json:"lguserid"`
		LgUsername string `json:"lgusername"`
	} `json:"login"`
}

// Login submits credentials with a token from LoginToken. Anything other than
// a "Success" result is an *AuthError.
func (c *Client) Login(ctx context.Context, username, password, token string) (*LoginResult, error) {
	form := url.Values{}
	form.Set("action", "login")
	form.Set("lgname", username)
	form.Set("lgpassword", password)
	form.Set("lgtoken", token)

	var resp loginResponse
	if err := c.apiPost(ctx, form, &resp); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	if resp.Login == nil || resp.Login.Result != "Success" {
		reason := DefaultLoginFailure
		switch {
		case resp.Login != nil && resp.Login.Reason != "":
			reason = resp.Login.Reason
		case resp.Error != nil && resp.Error.Info != "":
			reason = resp.Error.Info
		}
		return nil, &AuthError{Reason: reason}
	}

	name := resp.Login.LgUsername
	if name == "" {
		name = username
	}
	return &LoginResult{UserID: resp.Login.LgUserID, Username: name}, nil
}

// EditParams is a full-text replacement of an article.
type EditParams struct {
	Title   string
	Text    string
	Summary string
	Token   string
}

// EditRecord is the wiki's account of an accepted edit.
type EditRecord struct {
	Result       string `json:"result"`
	PageID       int64  `json:"page_id"`
	Title        string `json:"title"`
	OldRevID     int64  `json:"old_rev_id,omitempty"`
	NewRevID     int64  `json:"new_rev_id,omitempty"`
	NewTimestamp string `json:"new_timestamp,omitempty"`
	NoChange     bool   `json:"no_change,omitempty"`
}

type editResponse struct {
	Error *apiError `json:"error"`
	Edit  *struct {
		Result       string  `json:"result"`
		Reason       string  `json:"reason"`
		PageID       int64   `json:"pageid"`
		Title        string  `json:"title"`
		OldRevID     int64   `json:"oldrevid"`
		NewRevID     int64   `json:"newrevid"`
		NewTimestamp string  `json:"newtimestamp"`
		NoChange     *string `json:"nochange"`
	} `json:"edit"`
}

// Edit posts a full-text edit. Anything other than a "Success" result is an
// *EditError.
func (c *Client) Edit(ctx context.Context, p EditParams) (*EditRecord, error) {
	form := url.Values{}
	form.Set("action", "edit")
	form.Set("title", p.Title)
	form.Set("text", p.Text)
	form.Set("summary", p.Summary)
	form.Set("token", p.Token)

	var resp editResponse
	if err := c.apiPost(ctx, form, &resp); err != nil {
		return nil, fmt.Errorf("submitting edit: %w", err)
	}

	if resp.Edit == nil || resp.Edit.Result != "Success" {
		e := &EditError{Reason: DefaultEditFailure}
		switch {
		case resp.Error != nil:
			e.Code = resp.Error.Code
			if resp.Error.Info != "" {
				e.Reason = resp.Error.Info
			}
		case resp.Edit != nil && resp.Edit.Reason != "":
			e.Reason = resp.Edit.Reason
		}
		return nil, e
	}

	return &EditRecord{
		Result:       resp.Edit.Result,
		PageID:       resp.Edit.PageID,
		Title:        resp.Edit.Title,
		OldRevID:     resp.Edit.OldRevID,
		NewRevID:     resp.Edit.NewRevID,
		NewTimestamp: resp.Edit.NewTimestamp,
		NoChange:     resp.Edit.NoChange != nil,
	}, nil
}
