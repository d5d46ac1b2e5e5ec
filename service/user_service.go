package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/teenai/paperchat-be/repository"
	"github.com/teenai/paperchat-be/types"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type UserService interface {
	CreateUser(ctx context.Context, req types.CreateUserRequest) (*types.User, error)
	Authenticate(ctx context.Context, username, password string) (*types.User, error)
	GetUser(ctx context.Context, id string) (*types.User, error)
	PaginateUsers(ctx context.Context, page, limit int64) ([]*types.User, int64, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo repository.UserRepo
}

func NewUserService(repo repository.UserRepo) UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) CreateUser(ctx context.Context, req types.CreateUserRequest) (*types.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errors.New("username and password are required")
	}
	if existing, err := s.repo.GetUserByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = types.USER_ROLE_USER
	}
	now := time.Now().Unix()
	user := &types.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Password:  string(hash),
		FullName:  req.FullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*types.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*types.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *userService) PaginateUsers(ctx context.Context, page, limit int64) ([]*types.User, int64, error) {
	return s.repo.PaginateUsers(ctx, page, limit)
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	return s.repo.DeleteUser(ctx, id)
}
