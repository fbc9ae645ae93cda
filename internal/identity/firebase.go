package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
)

// AuthClient is the subset of the Firebase Auth admin client we call.
type AuthClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
}

// FirebaseProvider signs in against Firebase Auth.
type FirebaseProvider struct {
	client   AuthClient
	anonUID  string
	notFound func(error) bool
}

// NewFirebaseProvider wraps an auth client, normally *auth.Client. Anonymous
// sign-in reuses the user anonUID, creating it on first use. With an empty
// anonUID every anonymous sign-in creates a new user, and those records stay
// in the project until deleted from the Auth console.
func NewFirebaseProvider(c AuthClient, anonUID string) *FirebaseProvider {
	return &FirebaseProvider{client: c, anonUID: anonUID, notFound: auth.IsUserNotFound}
}

// SignInWithToken verifies a pre-supplied ID token.
func (f *FirebaseProvider) SignInWithToken(ctx context.Context, token string) (Identity, error) {
	t, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, errors.Wrap(err, "verify id token")
	}
	return Identity{UID: t.UID, Anonymous: t.Firebase.SignInProvider == "anonymous"}, nil
}

// SignInAnonymously returns the configured credential-less user, creating
// it when it does not exist yet.
func (f *FirebaseProvider) SignInAnonymously(ctx context.Context) (Identity, error) {
	if f.anonUID != "" {
		u, err := f.client.GetUser(ctx, f.anonUID)
		if err == nil {
			return Identity{UID: u.UID, Anonymous: true}, nil
		}
		if !f.notFound(err) {
			return Identity{}, errors.Wrap(err, "get anonymous user")
		}
	}
	params := &auth.UserToCreate{}
	if f.anonUID != "" {
		params = params.UID(f.anonUID)
	}
	u, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return Identity{}, errors.Wrap(err, "create anonymous user")
	}
	return Identity{UID: u.UID, Anonymous: true}, nil
}
