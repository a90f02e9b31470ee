package services_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"shoten/internal/models"
	"shoten/internal/repositories"
	"shoten/internal/services"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func notFoundErr(what string) error {
	return fmt.Errorf("%w: %s", repositories.ErrNotFound, what)
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	newUser := &models.User{Username: "taro", Email: "taro@example.com", Password: "password123"}

	mockRepo.On("GetByUsername", "taro").Return(nil, notFoundErr("user taro")).Once()
	mockRepo.On("GetByEmail", "taro@example.com").Return(nil, notFoundErr("user taro@example.com")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	err := service.RegisterUser(newUser)

	assert.NoError(t, err)
	// Password is stored hashed, never plain.
	assert.NotEqual(t, "password123", newUser.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(newUser.Password), []byte("password123")))
	// Role defaults to customer.
	assert.Equal(t, models.RoleCustomer, newUser.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_UsernameTaken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	existing := &models.User{ID: "u1", Username: "taro"}
	mockRepo.On("GetByUsername", "taro").Return(existing, nil).Once()

	err := service.RegisterUser(&models.User{Username: "taro", Email: "new@example.com", Password: "password123"})

	assert.ErrorIs(t, err, services.ErrUserExists)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{ID: "u1", Username: "taro", Password: string(hashed), Role: models.RoleAdmin}

	mockRepo.On("GetByUsername", "taro").Return(user, nil).Twice()

	token, err := service.LoginUser("taro", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "u1", claims["user_id"])
	assert.Equal(t, "taro", claims["username"])
	assert.Equal(t, models.RoleAdmin, claims["role"])

	// Wrong password yields the same generic error as an unknown user.
	_, err = service.LoginUser("taro", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser_UnknownUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	mockRepo.On("GetByUsername", "nobody").Return(nil, notFoundErr("user nobody")).Once()

	_, err := service.LoginUser("nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := services.NewAuthService(mockRepo, "test-secret")

	_, err := service.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// Token signed with another secret is rejected too.
	other := services.NewAuthService(mockRepo, "other-secret")
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	mockRepo.On("GetByUsername", "taro").Return(&models.User{ID: "u1", Username: "taro", Password: string(hashed)}, nil).Once()
	token, err := other.LoginUser("taro", "password123")
	assert.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
	mockRepo.AssertExpectations(t)
}
