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

// VerifyToken validates an ID token and returns the UID plus whether the
// token carries the admin role claim.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, idToken string) (string, bool, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", false, err
	}

	isAdmin := false
	if v, ok := token.Claims["admin"].(bool); ok {
		isAdmin = v
	}

	return token.UID, isAdmin, nil
}

// GenerateToken issues a custom token for a UID, used by local tooling.
func (f *FirebaseAuthClient) GenerateToken(ctx context.Context, uid string) (string, error) {
	return f.client.CustomToken(ctx, uid)
}

// SetAdminRole stamps the admin claim on an account.
func (f *FirebaseAuthClient) SetAdminRole(ctx context.Context, uid string) error {
	return f.client.SetCustomUserClaims(ctx, uid, map[string]interface{}{"admin": true})
}

func (f *FirebaseAuthClient) TestConnection(ctx context.Context) error {
	_, err := f.client.CustomToken(ctx, "healthcheck")
	return err
}
