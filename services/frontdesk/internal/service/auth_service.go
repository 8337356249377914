package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/diagnosis/frontdesk/pkg/auth"
	"github.com/diagnosis/frontdesk/pkg/config"
	"github.com/diagnosis/frontdesk/pkg/logger"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/domain"
	"github.com/diagnosis/frontdesk/services/frontdesk/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, actor auth.Actor) error
	// EnsureEmployee creates the employee unless the username is taken.
	EnsureEmployee(ctx context.Context, username, password, fullName, role string) error
}

type authService struct {
	employees repository.EmployeeRepository
	audit     AuditTrail
	config    config.AuthConfig
}

func NewAuthService(employees repository.EmployeeRepository, audit AuditTrail, cfg config.AuthConfig) AuthService {
	return &authService{employees: employees, audit: audit, config: cfg}
}

func (s *authService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	emp, err := s.employees.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	if emp == nil || !emp.Active {
		logger.InfoContext(ctx, "Login rejected", "username", req.Username)
		return nil, domain.Unauthorized("invalid username or password")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, emp.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		logger.InfoContext(ctx, "Login rejected", "username", req.Username)
		return nil, domain.Unauthorized("invalid username or password")
	}

	token, err := auth.NewAccessToken(emp.ID, emp.Username, emp.Role, s.config.JWTSecret, s.config.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	s.audit.Record(ctx, emp.ID, domain.ActivityLogin, fmt.Sprintf("%s logged in", emp.Username), nil)

	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenTTL.Seconds()),
		Employee:    emp,
	}, nil
}

// Logout only records the event; access tokens are short-lived and stateless.
func (s *authService) Logout(ctx context.Context, actor auth.Actor) error {
	s.audit.Record(ctx, actor.EmployeeID, domain.ActivityLogout, fmt.Sprintf("%s logged out", actor.Username), nil)
	return nil
}

func (s *authService) EnsureEmployee(ctx context.Context, username, password, fullName, role string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Validation("username and password are required")
	}
	if role != auth.RoleAdmin && role != auth.RoleFrontDesk {
		return domain.Validation("role must be %s or %s", auth.RoleAdmin, auth.RoleFrontDesk)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.employees.Create(ctx, &domain.Employee{
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         role,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	if created {
		logger.InfoContext(ctx, "Employee created", "username", username, "role", role)
	}
	return nil
}
