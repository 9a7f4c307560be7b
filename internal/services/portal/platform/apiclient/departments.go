package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
)

// Department is one row of GET /departments.
type Department struct {
	ID             int64  `json:"id"`
	DepartmentCode string `json:"department_code"`
	DepartmentName string `json:"department_name"`
	HODName        string `json:"hod_name"`
	HODEmail       string `json:"hod_email"`
}

func departmentPath(id int64) string {
	return "/departments/" + strconv.FormatInt(id, 10)
}

// Departments lists all departments.
func (c *Client) Departments(ctx context.Context) ([]Department, error) {
	var out []Department
	if err := c.do(ctx, http.MethodGet, "/departments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Department loads one department by id.
func (c *Client) Department(ctx context.Context, id int64) (Department, error) {
	var out Department
	if err := c.do(ctx, http.MethodGet, departmentPath(id), nil, &out); err != nil {
		return Department{}, err
	}
	return out, nil
}

// CreateDepartment posts payload unchanged to POST /departments.
func (c *Client) CreateDepartment(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/departments", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDepartment sends payload unchanged to PUT /departments/{id}.
func (c *Client) UpdateDepartment(ctx context.Context, id int64, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, departmentPath(id), payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDepartment removes one department.
func (c *Client) DeleteDepartment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, departmentPath(id), nil, nil)
}
