package identity

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoUser = errors.New("no user record")

type fakeAuth struct {
	verified []string
	created  int
	users    map[string]bool
	nextUID  string
	err      error
}

func newProvider(fa *fakeAuth, anonUID string) *FirebaseProvider {
	p := NewFirebaseProvider(fa, anonUID)
	p.notFound = func(err error) bool { return errors.Is(err, errNoUser) }
	return p
}

func (f *fakeAuth) VerifyIDToken(_ context.Context, tok string) (*auth.Token, error) {
	f.verified = append(f.verified, tok)
	if f.err != nil {
		return nil, f.err
	}
	return &auth.Token{UID: "uid-" + tok, Firebase: auth.FirebaseInfo{SignInProvider: "custom"}}, nil
}

func (f *fakeAuth) GetUser(_ context.Context, uid string) (*auth.UserRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !f.users[uid] {
		return nil, errNoUser
	}
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid}}, nil
}

func (f *fakeAuth) CreateUser(context.Context, *auth.UserToCreate) (*auth.UserRecord, error) {
	f.created++
	if f.err != nil {
		return nil, f.err
	}
	uid := f.nextUID
	if uid == "" {
		uid = "anon-1"
	}
	if f.users == nil {
		f.users = map[string]bool{}
	}
	f.users[uid] = true
	return &auth.UserRecord{UserInfo: &auth.UserInfo{UID: uid}}, nil
}

func TestAcquirePrefersToken(t *testing.T) {
	fa := &fakeAuth{}
	id, err := Acquire(context.Background(), newProvider(fa, ""), "abc")
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "uid-abc"}, id)
	assert.Equal(t, []string{"abc"}, fa.verified)
	assert.Zero(t, fa.created)
}

func TestAcquireAnonymousWithoutToken(t *testing.T) {
	fa := &fakeAuth{}
	id, err := Acquire(context.Background(), newProvider(fa, ""), "")
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "anon-1", Anonymous: true}, id)
	assert.Equal(t, 1, fa.created)
}

func TestAcquireFailure(t *testing.T) {
	boom := errors.New("auth unavailable")
	_, err := Acquire(context.Background(), newProvider(&fakeAuth{err: boom}, "storefront-anonymous"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestAnonymousUserReusedAcrossStarts(t *testing.T) {
	fa := &fakeAuth{nextUID: "storefront-anonymous"}
	for i := 0; i < 3; i++ {
		id, err := Acquire(context.Background(), newProvider(fa, "storefront-anonymous"), "")
		require.NoError(t, err)
		assert.Equal(t, Identity{UID: "storefront-anonymous", Anonymous: true}, id)
	}
	assert.Equal(t, 1, fa.created)
}

func TestAnonymousUserExisting(t *testing.T) {
	fa := &fakeAuth{users: map[string]bool{"storefront-anonymous": true}}
	id, err := Acquire(context.Background(), newProvider(fa, "storefront-anonymous"), "")
	require.NoError(t, err)
	assert.Equal(t, "storefront-anonymous", id.UID)
	assert.Zero(t, fa.created)
}

type emptyProvider struct{ LocalProvider }

func (emptyProvider) SignInAnonymously(context.Context) (Identity, error) { return Identity{}, nil }

func TestAcquireRejectsEmptyUID(t *testing.T) {
	_, err := Acquire(context.Background(), emptyProvider{}, "")
	assert.True(t, errors.Is(err, ErrEmptyUID))
}

func TestLocalProvider(t *testing.T) {
	id, err := Acquire(context.Background(), LocalProvider{}, "")
	require.NoError(t, err)
	assert.True(t, id.Anonymous)
	assert.Len(t, id.UID, 36)

	id, err = Acquire(context.Background(), LocalProvider{}, "preset")
	require.NoError(t, err)
	assert.Equal(t, Identity{UID: "preset"}, id)
}
