package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shiftgate/shiftgate/internal/shared"
)

type mockRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMockRepo(users ...User) *mockRepo {
	m := &mockRepo{users: make(map[int64]*User), nextID: 100}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *mockRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepo) Create(ctx context.Context, u User) (*User, error) {
	if existing, _ := m.FindByEmail(ctx, u.Email); existing != nil {
		return nil, ErrEmailTaken
	}
	m.nextID++
	u.ID = m.nextID
	u.IsActive = true
	m.users[u.ID] = &u
	copied := u
	return &copied, nil
}

func testUser(t *testing.T, password string) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	managerID := int64(2)
	return User{
		ID:           7,
		Email:        "worker@example.com",
		PasswordHash: string(hash),
		FirstName:    "Ada",
		LastName:     "Okafor",
		Role:         shared.RoleCareWorker,
		ManagerID:    &managerID,
		IsActive:     true,
	}
}

func newTestService(repo RepositoryPort) *Service {
	return NewService(repo, NewTokenManager("test-secret", time.Hour))
}

func TestRegisterIssuesSession(t *testing.T) {
	svc := newTestService(newMockRepo())

	session, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "manager@example.com",
		Password:  "correct horse",
		FirstName: "Grace",
		LastName:  "Mensah",
		Role:      "MANAGER",
	}, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, shared.RoleManager, session.User.Role)
	assert.True(t, session.User.IsActive)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(newMockRepo(testUser(t, "correct horse")))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "worker@example.com",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Okafor",
		Role:      "CARE_WORKER",
	}, time.Now())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginSuccess(t *testing.T) {
	svc := newTestService(newMockRepo(testUser(t, "correct horse")))

	session, err := svc.Login(context.Background(), LoginRequest{Email: "worker@example.com", Password: "correct horse"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.User.ID)

	tm := NewTokenManager("test-secret", time.Hour)
	id, err := tm.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id.ManagerID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(newMockRepo(testUser(t, "correct horse")))

	_, err := svc.Login(context.Background(), LoginRequest{Email: "worker@example.com", Password: "wrong"}, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestService(newMockRepo())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"}, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	user := testUser(t, "correct horse")
	user.IsActive = false
	svc := newTestService(newMockRepo(user))

	_, err := svc.Login(context.Background(), LoginRequest{Email: "worker@example.com", Password: "correct horse"}, time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestMe(t *testing.T) {
	svc := newTestService(newMockRepo(testUser(t, "correct horse")))

	profile, err := svc.Me(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", profile.Email)
	require.NotNil(t, profile.ManagerID)
	assert.Equal(t, int64(2), *profile.ManagerID)
}
