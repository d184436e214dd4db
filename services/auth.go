package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bioshop/models"
	"bioshop/store"
	"bioshop/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService signs back-office users in and checks their permissions.
type AuthService struct {
	users  UserRepository
	roles  RoleReader
	tokens *utils.TokenIssuer
	log    *zap.Logger
}

func NewAuthService(users UserRepository, roles RoleReader, tokens *utils.TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, roles: roles, tokens: tokens, log: log}
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil, ErrUnauthorized
	}
	if err != nil {
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !user.Active {
		return "", nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	if err := s.users.TouchLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.log.Warn("record last login", zap.String("email", user.Email), zap.Error(err))
	}
	return token, user, nil
}

// Profile returns the signed-in user.
func (s *AuthService) Profile(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, orNotFound(err, "user not found")
	}
	return user, nil
}

// CreateUser provisions a back-office account.
func (s *AuthService) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, in.Role); err != nil {
		return nil, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     in.Role,
		Active:   in.Active == nil || *in.Active,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// UpdateUser changes name, email, role and activation, and the password when one is given.
func (s *AuthService) UpdateUser(ctx context.Context, id string, in models.UserInput) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("user not found")
	}
	if err := in.Validate(false); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, in.Role); err != nil {
		return nil, err
	}

	set := bson.M{"name": in.Name, "email": in.Email, "role": in.Role}
	if in.Active != nil {
		set["active"] = *in.Active
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		set["password"] = hash
	}
	user, err := s.users.UpdateFields(ctx, oid, set)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err != nil {
		return nil, orNotFound(err, "user not found")
	}
	return user, nil
}

// HasPermission reports whether role grants perm. The admin role grants everything.
func (s *AuthService) HasPermission(ctx context.Context, role, perm string) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	r, err := s.roles.FindByName(ctx, role)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.Allows(perm), nil
}

func (s *AuthService) checkRole(ctx context.Context, role string) error {
	if role == models.RoleAdmin {
		return nil
	}
	_, err := s.roles.FindByName(ctx, role)
	if errors.Is(err, store.ErrNotFound) {
		return validation("unknown role %q", role)
	}
	return err
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
