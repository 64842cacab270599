package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ocrdesk/internal/domain"
	"ocrdesk/internal/service"
	"ocrdesk/mocks"
)

func TestCreateUser_HashesPassword(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewUserService(userRepo)

	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "new@example.com",
		Password: "a-strong-password",
		FullName: "New Member",
		Role:     domain.RoleMember,
	})
	require.NoError(t, err)

	assert.True(t, user.IsActive)
	assert.NotEqual(t, "a-strong-password", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("a-strong-password")))
	userRepo.AssertExpectations(t)
}

func TestCreateUser_RepoError(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	svc := service.NewUserService(userRepo)

	userRepo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := svc.Create(context.Background(), service.CreateUserInput{
		Email:    "new@example.com",
		Password: "a-strong-password",
		FullName: "New Member",
		Role:     domain.RoleAdmin,
	})
	assert.Error(t, err)
}
