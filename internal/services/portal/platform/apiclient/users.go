package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/louisbranch/smsportal/internal/services/portal/identity"
)

// User is one row of GET /users.
type User struct {
	ID             int64         `json:"id"`
	FullName       string        `json:"full_name"`
	Email          string        `json:"email"`
	UserType       identity.Role `json:"user_type"`
	DepartmentName string        `json:"department_name"`
	IsActive       bool          `json:"is_active"`
}

func userPath(id int64) string {
	return "/users/" + strconv.FormatInt(id, 10)
}

// Users lists all users visible to the caller.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser posts payload unchanged to POST /users.
func (c *Client) CreateUser(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/users", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUsers posts a batch as {"users": [...]} to POST /users/bulk.
func (c *Client) CreateUsers(ctx context.Context, users []json.RawMessage) (json.RawMessage, error) {
	if len(users) == 0 {
		return nil, errors.New("at least one user is required")
	}
	body := struct {
		Users []json.RawMessage `json:"users"`
	}{Users: users}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/users/bulk", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUser sends payload unchanged to PUT /users/{id}.
func (c *Client) UpdateUser(ctx context.Context, id int64, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, userPath(id), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes one user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, userPath(id), nil, nil)
}

// ActivateUsers marks ids active via PUT /users/activate {"user_ids": [...]}.
func (c *Client) ActivateUsers(ctx context.Context, ids []int64) (json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, errors.New("at least one user id is required")
	}
	body := struct {
		UserIDs []int64 `json:"user_ids"`
	}{UserIDs: ids}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, "/users/activate", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
