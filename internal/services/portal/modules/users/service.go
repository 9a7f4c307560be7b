package users

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/louisbranch/smsportal/internal/services/portal/module"
	"github.com/louisbranch/smsportal/internal/services/portal/platform/apiclient"
	apperrors "github.com/louisbranch/smsportal/internal/services/portal/platform/errors"
)

// Gateway lists and activates users.
type Gateway interface {
	Users(context.Context) ([]apiclient.User, error)
	ActivateUsers(context.Context, []int64) (json.RawMessage, error)
}

func gatewayFor(deps module.Dependencies) Gateway {
	if deps.API == nil {
		return unavailableGateway{}
	}
	return deps.API
}

type unavailableGateway struct{}

func (unavailableGateway) Users(context.Context) ([]apiclient.User, error) {
	return nil, errUnavailable
}

func (unavailableGateway) ActivateUsers(context.Context, []int64) (json.RawMessage, error) {
	return nil, errUnavailable
}

var errUnavailable = apperrors.EK(apperrors.KindUnavailable, "shell.error.unavailable", "users backend is not configured")

type service struct {
	gateway Gateway
}

func (s service) list(ctx context.Context) ([]apiclient.User, error) {
	return s.gateway.Users(ctx)
}

func (s service) activate(ctx context.Context, ids []int64) error {
	_, err := s.gateway.ActivateUsers(ctx, ids)
	return err
}

// parseUserIDs reads positive ids from submitted values, dropping
// duplicates. Any malformed value rejects the whole submission.
func parseUserIDs(values []string) ([]int64, error) {
	seen := make(map[int64]bool, len(values))
	ids := make([]int64, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, apperrors.E(apperrors.KindInvalidInput, "invalid user id "+strconv.Quote(raw))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}
