package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/njprem/password-reset-api/internal/domain"
	"github.com/njprem/password-reset-api/internal/metrics"
	"github.com/njprem/password-reset-api/internal/repository/ports"
	"github.com/njprem/password-reset-api/internal/util"
)

// MailSender delivers an outbound message. Implementations must honor ctx.
type MailSender interface {
	Send(ctx context.Context, msg domain.EmailMessage) error
}

type AuthConfig struct {
	PasswordCost    int
	ResetTTL        time.Duration
	FrontendBaseURL string
	MailTimeout     time.Duration
}

const (
	defaultResetTTL        = time.Hour
	defaultMailTimeout     = 10 * time.Second
	defaultFrontendBaseURL = "http://localhost:3000"
)

type AuthService struct {
	users  ports.UserRepository
	mailer MailSender
	log    *zap.Logger

	cost            int
	resetTTL        time.Duration
	frontendBaseURL string
	mailTimeout     time.Duration
	dummyHash       string
	now             func() time.Time
	newToken        func() (string, error)
}

// NewAuthService wires the reset flow. mailer may be nil, in which case password
// reset requests fail with ErrEmailServiceUnavailable.
func NewAuthService(users ports.UserRepository, mailer MailSender, cfg AuthConfig, log *zap.Logger) *AuthService {
	cost := cfg.PasswordCost
	if util.ValidateCost(cost) != nil {
		cost = util.DefaultPasswordCost
	}
	ttl := cfg.ResetTTL
	if ttl <= 0 {
		ttl = defaultResetTTL
	}
	mailTimeout := cfg.MailTimeout
	if mailTimeout <= 0 {
		mailTimeout = defaultMailTimeout
	}
	base := strings.TrimSpace(cfg.FrontendBaseURL)
	if base == "" {
		base = defaultFrontendBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Unknown accounts are checked against this so login timing does not reveal them.
	dummyHash, err := util.HashPassword("not-a-real-password", cost)
	if err != nil {
		log.Warn("dummy password hash unavailable", zap.Error(err))
	}

	return &AuthService{
		users:           users,
		mailer:          mailer,
		log:             log,
		cost:            cost,
		resetTTL:        ttl,
		frontendBaseURL: base,
		mailTimeout:     mailTimeout,
		dummyHash:       dummyHash,
		now:             time.Now,
		newToken:        util.GenerateResetToken,
	}
}

func (s *AuthService) ResetTTL() time.Duration {
	return s.resetTTL
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword("password", password); err != nil {
		return nil, err
	}

	hash, err := util.HashPassword(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.Create(ctx, email, hash)
	switch {
	case errors.Is(err, ports.ErrDuplicateEmail):
		return nil, ErrEmailAlreadyUsed
	case err != nil:
		return nil, storageErr("create user", err)
	}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "email is required")
	}
	if password == "" {
		return nil, invalid("password", "password is required")
	}
	return s.authenticate(ctx, email, password)
}

// RequestPasswordReset issues a fresh reset token and mails the link. An unknown
// email is not an error, so callers can answer identically either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if s.mailer == nil {
		return ErrEmailServiceUnavailable
	}
	email = domain.NormalizeEmail(email)
	if email == "" {
		return invalid("email", "email is required")
	}

	token, err := s.newToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		s.log.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return storageErr("find user by email", err)
	}

	expiresAt := s.now().Add(s.resetTTL).UTC().Truncate(time.Millisecond)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		return storageErr("set reset token", err)
	}

	msg, err := buildResetEmail(user.Email, resetLink(s.frontendBaseURL, token), s.resetTTL)
	if err != nil {
		s.discardToken(ctx, token)
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		metrics.ObserveResetEmail(metrics.EmailFailed)
		s.log.Error("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		s.discardToken(ctx, token)
		return fmt.Errorf("%w: %w", ErrEmailServiceUnavailable, err)
	}

	metrics.ObserveResetEmail(metrics.EmailSent)
	s.log.Info("password reset email sent", zap.String("user_id", user.ID), zap.Time("expires_at", expiresAt))
	return nil
}

// ResetPassword consumes token and stores newPassword. The expiry instant is
// still accepted; any later use clears the token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidOrExpiredToken
	}

	ctx = context.WithoutCancel(ctx)
	user, err := s.users.FindByResetToken(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		return ErrInvalidOrExpiredToken
	}
	if err != nil {
		return storageErr("find user by reset token", err)
	}

	now := s.now()
	if user.ResetExpired(now) {
		s.log.Info("expired reset token used", zap.String("user_id", user.ID))
		s.discardToken(ctx, token)
		return ErrInvalidOrExpiredToken
	}

	hash, err := util.HashPassword(newPassword, s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ConsumeResetToken(ctx, token, hash, now); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return storageErr("consume reset token", err)
	}
	s.log.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

// ChangePassword replaces the password of an authenticated user and drops any
// pending reset.
func (s *AuthService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return invalid("email", "email is required")
	}
	if currentPassword == "" {
		return invalid("currentPassword", "current password is required")
	}
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)
	user, err := s.authenticate(ctx, email, currentPassword)
	if err != nil {
		return err
	}

	hash, err := util.HashPassword(newPassword, s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.ClearReset()
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return storageErr("save user", err)
	}
	s.log.Info("password changed", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		util.VerifyPassword(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageErr("find user by email", err)
	}
	if !util.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// discardToken clears a pending reset that can no longer be honored.
func (s *AuthService) discardToken(ctx context.Context, token string) {
	err := s.users.ClearResetToken(ctx, token)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		s.log.Warn("clear reset token failed", zap.Error(err))
	}
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "email is not a valid address")
	}
	return nil
}

func validatePassword(field, password string) error {
	if err := util.ValidatePasswordLength(password); err != nil {
		return invalid(field, err.Error())
	}
	return nil
}
