package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"eventtickets/internal/domain"
)

type httpVerifier struct {
	baseURL string
	client  *http.Client
}

// NewHTTPVerifier returns a MembershipVerifier that calls the identity
// service's REST API.
func NewHTTPVerifier(baseURL string, client *http.Client) domain.MembershipVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpVerifier{baseURL: baseURL, client: client}
}

func (v *httpVerifier) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/groups/%s/members/%s", v.baseURL, url.PathEscape(groupID), url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query identity service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, fmt.Errorf("identity service returned status: %d", resp.StatusCode)
}

func (v *httpVerifier) MembershipRole(ctx context.Context, orgID, userID string) (domain.Membership, error) {
	endpoint := fmt.Sprintf("%s/orgs/%s/members/%s", v.baseURL, url.PathEscape(orgID), url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return domain.Membership{}, fmt.Errorf("failed to query identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Membership{IsMember: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Membership{}, fmt.Errorf("identity service returned status: %d", resp.StatusCode)
	}

	var m domain.Membership
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return domain.Membership{}, fmt.Errorf("failed to decode identity response: %w", err)
	}
	return m, nil
}
