// Package auth wires the credential, token, verification and access
// components into the flows exposed over HTTP.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estate-journal/internal/access"
	"estate-journal/internal/credentials"
	"estate-journal/internal/errs"
	"estate-journal/internal/logger"
	"estate-journal/internal/mailer"
	"estate-journal/internal/metrics"
	"estate-journal/internal/models"
	"estate-journal/internal/token"
	"estate-journal/internal/verification"
)

type Deps struct {
	Users     *credentials.Store
	Tokens    *token.Service
	Codes     *verification.CodeStore
	Whitelist access.Whitelist
	Mailer    mailer.Mailer
	Log       *slog.Logger
}

type Service struct {
	users     *credentials.Store
	tokens    *token.Service
	codes     *verification.CodeStore
	whitelist access.Whitelist
	gate      *access.Gate
	mail      mailer.Mailer
	log       *slog.Logger

	deliveries sync.WaitGroup
}

func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.Mailer == nil {
		d.Mailer = mailer.LogMailer{Log: d.Log}
	}
	return &Service{
		users:     d.Users,
		tokens:    d.Tokens,
		codes:     d.Codes,
		whitelist: d.Whitelist,
		gate:      access.NewGate(d.Whitelist),
		mail:      d.Mailer,
		log:       d.Log,
	}
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type SignupResult struct {
	User models.User
	// CodeErr is set when the account was created but no code was issued. It
	// is always retryable: the client asks for a new code.
	CodeErr error
}

func (r SignupResult) CodeSent() bool {
	return r.CodeErr == nil
}

type LoginResult struct {
	Token     string
	ExpiresIn int64
	User      models.Summary
}

// Signup creates an unverified account and mails a verification code. A
// failure to issue the code does not undo the account; it is reported in
// SignupResult.CodeErr so the client can ask for a new code.
func (s *Service) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	user, err := s.users.Create(ctx, in.Email, in.Password, credentials.Profile{FirstName: in.FirstName, LastName: in.LastName})
	if err != nil {
		metrics.AuthFailure("signup", err)
		return SignupResult{}, err
	}
	s.log.Info("user created", "user_id", user.ID)

	res := SignupResult{User: user}
	if err := s.RequestCode(ctx, user.Email); err != nil {
		s.log.Warn("signup code not issued", "user_id", user.ID, "error", err)
		if !errs.Retryable(err) {
			err = errs.Unavailable("auth.signup_code", err)
		}
		res.CodeErr = err
	}
	return res, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		metrics.AuthFailure("login", err)
		s.log.Warn("login failed", "kind", errs.Kind(err), "error", err)
		return LoginResult{}, err
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.log.Error("failed to sign token", "user_id", user.ID, "error", err)
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     tok,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      user.Summary(),
	}, nil
}

// Authenticate resolves a bearer token to the current user record. Every
// token failure, and a token for a user that no longer exists, reads as
// unauthorized to the caller.
func (s *Service) Authenticate(ctx context.Context, tokenStr string) (models.User, error) {
	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		metrics.AuthFailure("authenticate", err)
		s.log.Debug("token rejected", "kind", errs.Kind(err))
		return models.User{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, err
	}
	if user == nil {
		metrics.AuthFailure("authenticate", errs.ErrUnauthorized)
		return models.User{}, errs.ErrUnauthorized
	}
	return *user, nil
}

// Exists answers whether an account is registered for email. It is
// unauthenticated and therefore discloses registration status.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	email, err := credentials.ValidateEmail(email)
	if err != nil {
		return false, err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// RequestCode issues a new code for email and mails it in the background.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email, err := credentials.ValidateEmail(email)
	if err != nil {
		return err
	}
	code, err := s.codes.Generate(ctx, email)
	if err != nil {
		metrics.AuthFailure("request_code", err)
		return err
	}
	metrics.CodeIssued()

	body := fmt.Sprintf("Hello,\n\nYour verification code is: %s\nIt expires in %.0f minutes.\n\nIf you did not request this, please ignore this email.",
		code, s.codes.TTL().Minutes())
	s.deliver(email, "Your verification code", body)
	return nil
}

// ConfirmCode consumes the code and marks the account verified. The code is
// spent even when activation then fails; that case is returned as a
// retryable store error so the client requests a fresh code.
func (s *Service) ConfirmCode(ctx context.Context, email, code string) error {
	email, err := credentials.ValidateEmail(email)
	if err != nil {
		return errs.ErrExpiredOrInvalidCode
	}
	if err := s.codes.Verify(ctx, email, code); err != nil {
		metrics.AuthFailure("confirm_code", err)
		return err
	}

	err = s.users.Activate(ctx, email)
	switch {
	case err == nil:
		s.log.Info("email verified", "email", email)
		return nil
	case errors.Is(err, errs.ErrNotFound):
		// no account yet; the address itself is proven
		return nil
	default:
		s.log.Error("code consumed but activation failed", "email", email, "error", err)
		if !errs.Retryable(err) {
			err = errs.Unavailable("auth.activate", err)
		}
		return err
	}
}

// RequireAdmin checks the whitelist for the user's current email.
func (s *Service) RequireAdmin(ctx context.Context, user models.User) (access.Role, error) {
	role, err := s.gate.RequireAdmin(ctx, user.Email)
	if err != nil {
		metrics.AuthFailure("require_admin", err)
		if errors.Is(err, errs.ErrForbidden) {
			s.log.Warn("admin access denied", "user_id", user.ID)
		}
		return "", err
	}
	return role, nil
}

// GrantAdmin whitelists email and returns the entry as stored.
func (s *Service) GrantAdmin(ctx context.Context, grantor models.User, email, fullName string) (models.AdminWhitelistEntry, error) {
	email, err := credentials.ValidateEmail(email)
	if err != nil {
		return models.AdminWhitelistEntry{}, err
	}
	entry := models.AdminWhitelistEntry{
		Email:    email,
		IsAdmin:  true,
		Role:     string(access.RoleAdmin),
		FullName: fullName,
		AddedBy:  grantor.Email,
		// postgres keeps microseconds
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.whitelist.Add(ctx, entry); err != nil {
		return models.AdminWhitelistEntry{}, err
	}
	s.log.Info("admin granted", "email", email, "by", grantor.Email)
	return entry, nil
}

// RevokeAdmin removes the whitelist entry. Tokens already held by that
// address stay valid for authentication but fail the next admin check.
func (s *Service) RevokeAdmin(ctx context.Context, revoker models.User, email string) error {
	email = credentials.NormalizeEmail(email)
	if err := s.whitelist.Remove(ctx, email); err != nil {
		return err
	}
	s.log.Info("admin revoked", "email", email, "by", revoker.Email)
	return nil
}

func (s *Service) ListAdmins(ctx context.Context) ([]models.AdminWhitelistEntry, error) {
	return s.whitelist.List(ctx)
}

// Wait blocks until queued mail deliveries finish.
func (s *Service) Wait() {
	s.deliveries.Wait()
}

func (s *Service) deliver(to, subject, body string) {
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		if err := s.mail.Send(to, subject, body); err != nil {
			s.log.Error("mail delivery failed", "to", to, "error", err)
		}
	}()
}
