package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"github.com/nguyentranbao-ct/chat-notify/internal/models"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier resolves Firebase ID tokens to the user's uid.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUnauthenticated, err)
	}
	if tok.UID == "" {
		return "", fmt.Errorf("%w: token has no uid", models.ErrUnauthenticated)
	}
	return tok.UID, nil
}
