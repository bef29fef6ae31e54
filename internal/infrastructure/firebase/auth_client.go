package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

// VerifyToken checks an ID token and returns its uid and custom claims.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, map[string]interface{}, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", nil, err
	}

	return result.UID, result.Claims, nil
}

// SetAdmin grants or revokes the admin custom claim.
func (f *FirebaseAuthClient) SetAdmin(ctx context.Context, uid string, admin bool) error {
	return f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{
		"admin": admin,
	})
}
