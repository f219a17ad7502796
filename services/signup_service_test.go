package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlrg/connect/models"
	"github.com/yamlrg/connect/repositories"
)

type fakeUserRepo struct {
	users map[string]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	if u.ID == "" {
		u.ID = "u-" + u.Email
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			v := u
			return &v, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateLinkedinURL(ctx context.Context, id, url string) error {
	u, ok := r.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.LinkedinURL = url
	r.users[id] = u
	return nil
}

func newSignupFixture(t *testing.T) (SignupService, *fakeParticipantRepo, models.Event) {
	t.Helper()
	event := eventOn(2100, time.January, 10) // far future, always upcoming
	er := &fakeEventRepo{events: []models.Event{event}}
	ur := newFakeUserRepo(models.User{
		ID:          "u1",
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Role:        models.RoleMember,
	})
	pr := newFakeParticipantRepo()
	return NewSignupService(pr, ur, er), pr, event
}

func TestSignUpForNextEvent(t *testing.T) {
	svc, _, event := newSignupFixture(t)

	p, err := svc.SignUp(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Ada", p.UserName)
	assert.Equal(t, "ada@example.com", p.UserEmail)
	assert.Equal(t, event.SessionKey(), p.SessionKey)
	assert.True(t, p.Status.Unmatched())
}

func TestSignUpTwiceConflicts(t *testing.T) {
	svc, _, _ := newSignupFixture(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, "u1")
	assert.ErrorIs(t, err, ErrAlreadySignedUp)
}

func TestSignUpWithoutUpcomingEvent(t *testing.T) {
	svc := NewSignupService(newFakeParticipantRepo(), newFakeUserRepo(models.User{ID: "u1"}), &fakeEventRepo{})

	_, err := svc.SignUp(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoUpcomingEvent)
}

func TestCancelOwnership(t *testing.T) {
	svc, pr, _ := newSignupFixture(t)
	ctx := context.Background()

	p, err := svc.SignUp(ctx, "u1")
	require.NoError(t, err)

	// Another member cannot cancel it.
	err = svc.Cancel(ctx, p.ID, "u2", false)
	assert.ErrorIs(t, err, ErrSignupCancelNotOwner)

	// An admin can.
	require.NoError(t, svc.Cancel(ctx, p.ID, "u2", true))
	_, err = pr.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrParticipantNotFound)
}

func TestCancelOwnSignup(t *testing.T) {
	svc, _, _ := newSignupFixture(t)
	ctx := context.Background()

	p, err := svc.SignUp(ctx, "u1")
	require.NoError(t, err)
	assert.NoError(t, svc.Cancel(ctx, p.ID, "u1", false))
}

func TestAddManualMember(t *testing.T) {
	svc, _, _ := newSignupFixture(t)

	p, err := svc.AddManualMember(context.Background(), "July 4, 2026", "  Grace  ")
	require.NoError(t, err)

	assert.Equal(t, "Grace", p.UserName)
	assert.True(t, p.ManualEntry)
	assert.True(t, strings.HasPrefix(p.UserID, "manual_"))
	assert.Equal(t, "July 4, 2026", p.SessionKey)
}

func TestAddManualMemberRequiresName(t *testing.T) {
	svc, _, _ := newSignupFixture(t)

	_, err := svc.AddManualMember(context.Background(), "July 4, 2026", "   ")
	assert.ErrorIs(t, err, ErrMemberNameRequired)
}

func TestSignupForNextEventReportsNilWhenAbsent(t *testing.T) {
	svc, _, _ := newSignupFixture(t)
	ctx := context.Background()

	p, err := svc.SignupForNextEvent(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p)

	created, err := svc.SignUp(ctx, "u1")
	require.NoError(t, err)

	found, err := svc.SignupForNextEvent(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}
