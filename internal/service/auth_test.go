package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/internal/database"
	"github.com/zybooks/basket-backend/internal/models"
	"github.com/zybooks/basket-backend/internal/testhelpers"
	"github.com/zybooks/basket-backend/internal/types"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", zap.NewNop())

	token, err := svc.GenerateToken("user-1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", zap.NewNop())
	other := NewAuthService(nil, "other-secret", zap.NewNop())

	token, err := other.GenerateToken("user-1", "alice")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(nil, "test-secret", zap.NewNop())

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(testhelpers.SetupTestMongo(t), "test-secret", zap.NewNop())
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "alice@example.com", "password123", "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotEmpty(t, token)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Zero(t, user.RecipesCreated)
	assert.Zero(t, user.FollowersCount)

	// Duplicate email and duplicate username are both rejected.
	_, _, err = svc.Register(ctx, "alice@example.com", "password123", "alice2")
	assert.ErrorIs(t, err, ErrUserExists)
	_, _, err = svc.Register(ctx, "alice2@example.com", "password123", "alice")
	assert.ErrorIs(t, err, ErrUserExists)

	got, _, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUsernameUniqueIndex(t *testing.T) {
	db := testhelpers.SetupTestMongo(t)
	ctx := context.Background()
	users := db.Collection(database.UsersCollection)

	_, err := users.InsertOne(ctx, &models.UserDoc{ID: "u1", Username: "alice", Email: "a1@example.com"})
	require.NoError(t, err)

	// The index catches racing registrations the pre-insert count misses.
	_, err = users.InsertOne(ctx, &models.UserDoc{ID: "u2", Username: "alice", Email: "a2@example.com"})
	assert.True(t, mongo.IsDuplicateKeyError(err))
}

func TestGetAndUpdateProfile(t *testing.T) {
	svc := NewAuthService(testhelpers.SetupTestMongo(t), "test-secret", zap.NewNop())
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "bob@example.com", "password123", "bob")
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "bob", profile.Username)

	require.NoError(t, svc.UpdateProfile(ctx, user.ID, &types.ProfileUpdateRequest{Bio: "home cook"}))

	profile, err = svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "home cook", profile.Bio)

	missing, err := svc.GetProfile(ctx, "no-such-user")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
