package api

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/foliohq/folio-cli/internal/models"
	"github.com/foliohq/folio-cli/internal/observability"
)

// Typed operations over the Folio REST API. Each wraps the dispatcher with
// an operation hook so `-v` tracing and --stats see semantic calls, not
// just wire traffic.

func (c *Client) op(ctx context.Context, service, operation string, mutation bool, fn func(context.Context) error) error {
	info := observability.OperationInfo{Service: service, Operation: operation, IsMutation: mutation}
	ctx = c.hooks.OnOperationStart(ctx, info)
	start := time.Now()
	err := fn(ctx)
	c.hooks.OnOperationEnd(ctx, info, err, time.Since(start))
	return err
}

// RegisterParams holds the fields for account registration.
type RegisterParams struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Register creates a new account. Registration does not log in; callers
// follow up with Login.
func (c *Client) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	var user models.User
	err := c.op(ctx, "Auth", "Register", true, func(ctx context.Context) error {
		resp, err := c.Post(ctx, "/auth/register", params)
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates with email and password, installs the returned
// credential, and returns the account. The server's refresh-session cookie
// lands in the client's jar as a side effect of the response.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var loginResp struct {
		AccessToken string      `json:"access_token"`
		User        models.User `json:"user"`
	}
	err := c.op(ctx, "Auth", "Login", true, func(ctx context.Context) error {
		resp, err := c.Post(ctx, "/auth/login", map[string]string{
			"email":    email,
			"password": password,
		})
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&loginResp)
	})
	if err != nil {
		return nil, err
	}
	c.creds.Set(loginResp.AccessToken)
	return &loginResp.User, nil
}

// Logout revokes the server-side session (best effort) and always clears
// the local credential.
func (c *Client) Logout(ctx context.Context) error {
	err := c.op(ctx, "Auth", "Logout", true, func(ctx context.Context) error {
		_, err := c.Post(ctx, "/session/logout", nil)
		return err
	})
	c.creds.Clear()
	return err
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	err := c.op(ctx, "Profile", "Get", false, func(ctx context.Context) error {
		resp, err := c.Get(ctx, "/profile/me")
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile applies a partial update to the authenticated profile.
func (c *Client) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	err := c.op(ctx, "Profile", "Update", true, func(ctx context.Context) error {
		resp, err := c.Patch(ctx, "/profile/me", update)
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// AddExperience appends an employment entry to the profile.
func (c *Client) AddExperience(ctx context.Context, exp models.Experience) (*models.Experience, error) {
	var created models.Experience
	err := c.op(ctx, "Profile", "AddExperience", true, func(ctx context.Context) error {
		resp, err := c.Post(ctx, "/profile/me/experiences", exp)
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RemoveExperience deletes an employment entry by ID.
func (c *Client) RemoveExperience(ctx context.Context, id string) error {
	return c.op(ctx, "Profile", "RemoveExperience", true, func(ctx context.Context) error {
		_, err := c.Delete(ctx, "/profile/me/experiences/"+url.PathEscape(id))
		return err
	})
}

// AddSkill adds a skill to the profile.
func (c *Client) AddSkill(ctx context.Context, name string) (*models.Profile, error) {
	var profile models.Profile
	err := c.op(ctx, "Profile", "AddSkill", true, func(ctx context.Context) error {
		resp, err := c.Post(ctx, "/profile/me/skills", map[string]string{"name": name})
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// RemoveSkill removes a skill from the profile.
func (c *Client) RemoveSkill(ctx context.Context, name string) error {
	return c.op(ctx, "Profile", "RemoveSkill", true, func(ctx context.Context) error {
		_, err := c.Delete(ctx, "/profile/me/skills/"+url.PathEscape(name))
		return err
	})
}

// Dashboard fetches the landing-view widgets.
func (c *Client) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var dash models.Dashboard
	err := c.op(ctx, "Dashboard", "Get", false, func(ctx context.Context) error {
		resp, err := c.Get(ctx, "/dashboard")
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&dash)
	})
	if err != nil {
		return nil, err
	}
	return &dash, nil
}

// Notifications lists notifications, optionally only unread ones.
func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	err := c.op(ctx, "Notifications", "List", false, func(ctx context.Context) error {
		path := "/notifications"
		if unreadOnly {
			path += "?unread=true"
		}
		resp, err := c.Get(ctx, path)
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&notifications)
	})
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// NotificationEvents fetches notification events after the given cursor.
// It returns the events and the cursor to resume from. This is the
// receive side of the event-notification channel; subscription is implicit
// in holding a valid credential.
func (c *Client) NotificationEvents(ctx context.Context, cursor string) ([]models.Notification, string, error) {
	var eventsResp struct {
		Events []models.Notification `json:"events"`
		Cursor string                `json:"cursor"`
	}
	err := c.op(ctx, "Notifications", "Events", false, func(ctx context.Context) error {
		path := "/notifications/events"
		if cursor != "" {
			path = fmt.Sprintf("%s?cursor=%s", path, url.QueryEscape(cursor))
		}
		resp, err := c.Get(ctx, path)
		if err != nil {
			return err
		}
		return resp.UnmarshalData(&eventsResp)
	})
	if err != nil {
		return nil, "", err
	}
	return eventsResp.Events, eventsResp.Cursor, nil
}
