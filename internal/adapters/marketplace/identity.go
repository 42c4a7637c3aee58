package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/meli-relist-cli/internal/domain"
)

type userResponse struct {
	ID       json.Number `json:"id"`
	Nickname string      `json:"nickname"`
}

func (c *Client) CurrentUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	if strings.TrimSpace(accessToken) == "" {
		return domain.Identity{}, fmt.Errorf("%w: access token is empty", domain.ErrIdentityResolutionFailed)
	}

	var user userResponse
	if err := c.getJSON(ctx, c.opts.IdentityTimeout, "/users/me", nil, accessToken, &user); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: request identity: %w", domain.ErrIdentityResolutionFailed, err)
	}
	if user.ID.String() == "" {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrIdentityResolutionFailed, errors.New("identity response missing id"))
	}

	return domain.Identity{ID: user.ID.String(), Nickname: user.Nickname}, nil
}
