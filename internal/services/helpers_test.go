package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"teamhub/internal/database"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/repositories"
	"teamhub/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

func newStore(t *testing.T) repositories.Store {
	t.Helper()
	db, err := database.OpenInMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewGORMStore(db)
}

// fakeClock starts at the real time so issued JWTs pass jwt-go's own
// expiry check.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock { return &fakeClock{now: time.Now()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingBroker keeps every published event.
type recordingBroker struct {
	mu     sync.Mutex
	keys   []string
	bodies [][]byte
}

func (b *recordingBroker) Publish(exchange, routingKey string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keys = append(b.keys, routingKey)
	b.bodies = append(b.bodies, body)
	return nil
}

// Payloads decodes the data of every event published under routingKey.
func (b *recordingBroker) Payloads(t *testing.T, routingKey string) []map[string]interface{} {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]interface{}
	for i, key := range b.keys {
		if key != routingKey {
			continue
		}
		event, err := events.Decode(b.bodies[i])
		require.NoError(t, err)
		out = append(out, event.Data.(map[string]interface{}))
	}
	return out
}

func (b *recordingBroker) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.keys...)
}

func authConfig(clock *fakeClock) services.AuthConfig {
	return services.AuthConfig{
		JWTSecret:         "test_jwt_secret",
		TokenTTL:          24 * time.Hour,
		ReservationWindow: 60 * time.Minute,
		Now:               clock.Now,
	}
}

// seedUser stores an active account with testPassword.
func seedUser(t *testing.T, store repositories.Store, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		FirstName:         "Test",
		LastName:          "User",
		Username:          username,
		Email:             username + "@example.com",
		Password:          string(hash),
		VerificationToken: services.NewToken(),
		IsActive:          true,
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

type teamFixture struct {
	store   repositories.Store
	service *services.TeamService
	broker  *recordingBroker
}

func newTeamFixture(t *testing.T, opts ...services.TeamOption) *teamFixture {
	t.Helper()
	store := newStore(t)
	broker := &recordingBroker{}
	publisher := events.NewPublisher(broker, "teamhub", logger.Nop())
	return &teamFixture{
		store:   store,
		service: services.NewTeamService(store, nil, publisher, logger.Nop(), opts...),
		broker:  broker,
	}
}

// assertCounter checks that the cached member count matches the rows.
func (f *teamFixture) assertCounter(t *testing.T, teamID string, want int) {
	t.Helper()
	team, err := f.store.Teams().GetByID(context.Background(), teamID)
	require.NoError(t, err)
	rows, err := f.store.Teams().CountMembers(context.Background(), teamID)
	require.NoError(t, err)
	require.Equal(t, want, team.Members)
	require.Equal(t, int64(want), rows)
}
