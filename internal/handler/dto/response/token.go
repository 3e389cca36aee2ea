package response

import (
	"fmt"
	"time"

	"opshub/internal/domain/token"
)

type IssuedTokenResponse struct {
	Token     string    `json:"token"`
	Kind      string    `json:"kind"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func FromIssuedToken(t *token.AccessToken, baseURL string) *IssuedTokenResponse {
	return &IssuedTokenResponse{
		Token:     t.Token,
		Kind:      string(t.Kind),
		URL:       fmt.Sprintf("%s/t/%s/%s", baseURL, t.Kind, t.Token),
		ExpiresAt: t.ExpiresAt,
	}
}

type TokenViewResponse struct {
	Kind           string    `json:"kind"`
	ResourceType   string    `json:"resourceType"`
	ResourceID     string    `json:"resourceId"`
	ExpiresAt      time.Time `json:"expiresAt"`
	RemainingViews *int32    `json:"remainingViews,omitempty"`
}

func FromTokenView(t *token.AccessToken, remaining *int32) *TokenViewResponse {
	return &TokenViewResponse{
		Kind:           string(t.Kind),
		ResourceType:   t.ResourceType,
		ResourceID:     t.ResourceID.String(),
		ExpiresAt:      t.ExpiresAt,
		RemainingViews: remaining,
	}
}

type TokenRedeemResponse struct {
	Kind         string `json:"kind"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
}

func FromTokenRedeem(t *token.AccessToken) *TokenRedeemResponse {
	return &TokenRedeemResponse{
		Kind:         string(t.Kind),
		ResourceType: t.ResourceType,
		ResourceID:   t.ResourceID.String(),
	}
}
