// Package identity implements the account lifecycle on top of the directory:
// registration with mailed verification codes, login, and time-boxed
// single-use password-reset tokens.
package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snoofz/snofbase/internal/common"
	"github.com/snoofz/snofbase/internal/logging"
	"github.com/snoofz/snofbase/internal/server/directory"
	"github.com/snoofz/snofbase/internal/snof"
)

const verificationCodeDigits = 8

// Notifier delivers messages to an account's email address.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// PasswordHasher hashes credentials and verifies candidates against digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) (bool, error)
}

// AvatarFetcher retrieves a default avatar image for an email address.
// Fetching is best-effort: any error degrades to an absent avatar.
type AvatarFetcher interface {
	Fetch(ctx context.Context, email string) ([]byte, error)
}

// ResetRequest reports the outcome of a password-reset request. The token is
// persisted before the mail goes out, so a delivery failure leaves the
// committed state in place and is reported as Delivered=false rather than
// rolled back.
type ResetRequest struct {
	Token     string
	Delivered bool
}

// Service drives the registration, login and password-reset state machines.
type Service struct {
	directory *directory.Directory
	pending   *PendingStore
	notifier  Notifier
	hasher    PasswordHasher
	avatars   AvatarFetcher
	logger    logging.Logger

	resetTokenTTL time.Duration
	now           func() time.Time
}

// NewService wires the lifecycle over its collaborators. avatars may be nil
// to disable default avatars.
func NewService(dir *directory.Directory, pending *PendingStore, notifier Notifier,
	hasher PasswordHasher, avatars AvatarFetcher, logger logging.Logger,
	resetTokenTTL time.Duration) *Service {
	return &Service{
		directory:     dir,
		pending:       pending,
		notifier:      notifier,
		hasher:        hasher,
		avatars:       avatars,
		logger:        logger,
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
	}
}

// Register starts a registration: it parks the candidate account as a
// pending entry and mails an 8-digit verification code to email. The
// username check here is advisory; the authoritative one happens at Verify
// inside the directory's insert. Registration requires the code to actually
// go out, so a delivery failure fails the call and drops the pending entry.
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return common.ErrorValidation
	}

	_, taken, err := s.directory.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return common.ErrorUsernameTaken
	}

	code, err := common.MakeNumericCode(verificationCodeDigits)
	if err != nil {
		return fmt.Errorf("generating verification code: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	s.pending.Put(PendingRegistration{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Code:         code,
	})

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, int(s.pending.window.Minutes()))
	if err := s.notifier.Send(ctx, email, "Verify your account", body); err != nil {
		s.pending.Remove(email)
		s.logger.Error(ctx, "verification mail failed", "email", email, "error", err.Error())
		return fmt.Errorf("%w: %v", common.ErrorDelivery, err)
	}

	s.logger.Info(ctx, "registration pending", "username", username)
	return nil
}

// Verify promotes a pending registration into a durable directory record.
// The code must match exactly and the entry must still be inside its window.
// A username collision raced in by a concurrent flow surfaces as
// ErrorUsernameTaken; the pending entry survives a failed attempt and is
// discarded only on success or expiry.
func (s *Service) Verify(ctx context.Context, email, code string) (snof.Record, error) {
	reg, ok := s.pending.Get(email)
	if !ok || code == "" || reg.Code != code {
		return snof.Record{}, common.ErrorInvalidOrExpired
	}

	rec := snof.NewRecord(
		snof.Field{Key: snof.FieldID, Value: uuid.NewString()},
		snof.Field{Key: snof.FieldUsername, Value: reg.Username},
		snof.Field{Key: snof.FieldPassword, Value: reg.PasswordHash},
		snof.Field{Key: snof.FieldEmail, Value: reg.Email},
	)

	if s.avatars != nil {
		if data, err := s.avatars.Fetch(ctx, reg.Email); err != nil {
			s.logger.Warn(ctx, "avatar fetch failed", "email", reg.Email, "error", err.Error())
		} else if len(data) > 0 {
			rec.Set(snof.FieldAvatar, base64.StdEncoding.EncodeToString(data))
		}
	}

	if err := s.directory.InsertIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return snof.Record{}, common.ErrorUsernameTaken
		}
		return snof.Record{}, fmt.Errorf("inserting account: %w", err)
	}

	s.pending.Remove(email)
	s.logger.Info(ctx, "account verified", "username", reg.Username)
	return rec, nil
}

// Login checks the credential pair against the directory. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (snof.Record, error) {
	rec, found, err := s.directory.FindByUsername(ctx, username)
	if err != nil {
		return snof.Record{}, fmt.Errorf("looking up user: %w", err)
	}
	if !found {
		return snof.Record{}, common.ErrorInvalidCredentials
	}

	digest, ok := rec.Get(snof.FieldPassword)
	if !ok {
		return snof.Record{}, common.ErrorInvalidCredentials
	}

	match, err := s.hasher.Verify(password, digest)
	if err != nil {
		return snof.Record{}, common.ErrorInvalidCredentials
	}
	if !match {
		return snof.Record{}, common.ErrorInvalidCredentials
	}
	return rec, nil
}

// RequestPasswordReset issues a fresh reset token for the account owning
// email and mails a reset link. The token lands in the store first; if the
// mail then fails the caller sees a degraded success, never a rollback.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	_, found, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up email: %w", err)
	}
	if !found {
		return nil, common.ErrorNotFound
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generating reset token: %w", err)
	}
	expiry := strconv.FormatInt(s.now().Add(s.resetTokenTTL).UnixMilli(), 10)

	err = s.directory.UpdateFields(ctx, directory.ByEmail(email), map[string]string{
		snof.FieldResetToken:       token,
		snof.FieldResetTokenExpiry: expiry,
	})
	if err != nil {
		return nil, fmt.Errorf("storing reset token: %w", err)
	}

	body := fmt.Sprintf("A password reset was requested for your account. Reset token: %s", token)
	if err := s.notifier.Send(ctx, email, "Password reset", body); err != nil {
		s.logger.Warn(ctx, "reset mail failed", "email", email, "error", err.Error())
		return &ResetRequest{Token: token, Delivered: false}, nil
	}

	s.logger.Info(ctx, "reset token issued", "email", email)
	return &ResetRequest{Token: token, Delivered: true}, nil
}

// ResetPassword consumes a reset token: the new password hash lands and both
// token fields are cleared in one atomic directory update, so the token can
// never be replayed. Token validity is re-checked under the store lock.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return common.ErrorValidation
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = s.directory.UpdateFields(ctx,
		directory.ByValidResetToken(token, s.now()),
		map[string]string{snof.FieldPassword: hash},
		snof.FieldResetToken, snof.FieldResetTokenExpiry,
	)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidOrExpired
		}
		return fmt.Errorf("resetting password: %w", err)
	}

	s.logger.Info(ctx, "password reset completed")
	return nil
}

// UpdateProfile updates the avatar, IP and optionally the username of an
// account. Empty inputs leave the corresponding fields untouched; they never
// erase stored values.
func (s *Service) UpdateProfile(ctx context.Context, username, newUsername, avatarBase64, ip string) error {
	set := make(map[string]string)
	if avatarBase64 != "" {
		set[snof.FieldAvatar] = avatarBase64
	}
	if ip != "" {
		set[snof.FieldIP] = ip
	}

	err := s.directory.UpdateProfile(ctx, username, strings.TrimSpace(newUsername), set)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorUsernameTaken
		}
		return err
	}
	return nil
}
