package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hr/meridian-hr/internal/identity"
	"github.com/meridian-hr/meridian-hr/internal/shared"
	"github.com/meridian-hr/meridian-hr/internal/token"
	"github.com/meridian-hr/meridian-hr/jobs"
)

// dummyHash is compared against when no stored hash exists, so the cost of a
// failed login does not reveal whether the email is known.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginRecorder receives the best-effort last-login side effect.
// *jobs.Client satisfies it.
type LoginRecorder interface {
	EnqueueTouchLastLogin(ctx context.Context, payload jobs.TouchLastLoginPayload) (*asynq.TaskInfo, error)
}

// Service wraps credential verification and token issuance.
type Service struct {
	repo     identity.Repository
	issuer   *token.Issuer
	recorder LoginRecorder
	logger   *slog.Logger
}

// NewService constructs a new Service. recorder may be nil, in which case
// the last-login side effect is skipped.
func NewService(repo identity.Repository, issuer *token.Issuer, recorder LoginRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, issuer: issuer, recorder: recorder, logger: logger}
}

// Verify validates email/password credentials. Every failure mode (unknown
// email, missing hash, inactive account, wrong password) yields the same
// shared.ErrInvalidCredentials after a bcrypt comparison, so callers cannot
// distinguish them by response or by timing.
func (s *Service) Verify(ctx context.Context, email, password string) (*identity.Identity, error) {
	ident, err := s.repo.FindByEmail(ctx, shared.NormalizeEmail(email))
	if err != nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	hash := ident.PasswordHash
	if hash == "" {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if ident.PasswordHash == "" || !ident.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	s.recordLogin(ident.ID)
	return ident, nil
}

// SignIn verifies credentials and issues a session token for the identity.
func (s *Service) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	ident, err := s.Verify(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}
	signed, err := s.issuer.Issue(token.IssueInput{
		SubjectID:        ident.ID,
		Email:            ident.Email,
		Role:             ident.Role,
		EmploymentType:   string(ident.EmploymentType),
		OnboardingStatus: string(ident.OnboardingStatus),
		PTO: token.PTOBalances{
			Vacation: ident.PTO.Vacation,
			Sick:     ident.PTO.Sick,
			Personal: ident.PTO.Personal,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Session{Identity: ident, Token: signed}, nil
}

// TokenTTL exposes the configured token lifetime for cookie expiry.
func (s *Service) TokenTTL() time.Duration {
	return s.issuer.TTL()
}

// recordLogin enqueues the last-login update without blocking or failing the
// authentication result. Errors go to the log only.
func (s *Service) recordLogin(id string) {
	if s.recorder == nil {
		return
	}
	payload := jobs.TouchLastLoginPayload{IdentityID: id, LoginAt: time.Now().UTC()}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := s.recorder.EnqueueTouchLastLogin(ctx, payload); err != nil && s.logger != nil {
			s.logger.Warn("enqueue last login", slog.String("identity_id", id), slog.Any("error", err))
		}
	}()
}
