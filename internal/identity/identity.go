// Package identity acquires the storefront's read identity for the catalog store.
package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fairyhunter13/hampers-storefront/internal/obs"
)

// Identity is the signed-in principal used to scope catalog reads.
type Identity struct {
	UID       string
	Anonymous bool
}

// Provider signs in either with a pre-supplied token or anonymously.
type Provider interface {
	SignInWithToken(ctx context.Context, token string) (Identity, error)
	SignInAnonymously(ctx context.Context) (Identity, error)
}

// ErrEmptyUID is returned when a provider yields no usable uid.
var ErrEmptyUID = errors.New("identity has empty uid")

// Acquire signs in with token when one is supplied, anonymously otherwise.
// It does not impose a timeout; cancel ctx to abandon a hung provider.
func Acquire(ctx context.Context, p Provider, token string) (Identity, error) {
	var (
		id  Identity
		err error
	)
	if token != "" {
		id, err = p.SignInWithToken(ctx, token)
	} else {
		id, err = p.SignInAnonymously(ctx)
	}
	if err != nil {
		return Identity{}, errors.Wrap(err, "sign in")
	}
	if id.UID == "" {
		return Identity{}, ErrEmptyUID
	}
	obs.Logger.WithField("uid", id.UID).WithField("anonymous", id.Anonymous).Info("identity_acquired")
	return id, nil
}

// LocalProvider is used when no identity platform is configured.
// Tokens are trusted verbatim as uids; anonymous sign-in mints a uuid.
type LocalProvider struct{}

func (LocalProvider) SignInWithToken(_ context.Context, token string) (Identity, error) {
	return Identity{UID: token}, nil
}

func (LocalProvider) SignInAnonymously(context.Context) (Identity, error) {
	return Identity{UID: uuid.NewString(), Anonymous: true}, nil
}
