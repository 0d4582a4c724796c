package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

// dummyHash is compared against when an email does not resolve, so a failed
// lookup takes the same time as a failed password check.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type Service struct {
	users      Repository
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewService(users Repository, secret []byte, tokenTTL time.Duration, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, secret: secret, tokenTTL: tokenTTL, bcryptCost: bcryptCost}
}

func (s *Service) validate(email, password string, role auth.Role, name string) error {
	if email == "" || !strings.Contains(email, "@") {
		return apperr.New(apperr.KindInvalidArgument, "a valid email is required")
	}
	if len(password) < 8 {
		return apperr.New(apperr.KindInvalidArgument, "password must be at least 8 characters")
	}
	if name == "" {
		return apperr.New(apperr.KindInvalidArgument, "name is required")
	}
	if !role.Valid() {
		return apperr.Newf(apperr.KindInvalidRole, "unknown role %q", role)
	}
	return nil
}

// Register creates a user through the strict, user-facing path: a duplicate
// email is an explicit failure, never a silent success.
func (s *Service) Register(ctx context.Context, email, password string, role auth.Role, name string) (*User, error) {
	if err := s.validate(email, password, role, name); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         role,
		Name:         name,
		Status:       StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Provision creates a user through the idempotent seeding path: a duplicate
// email returns the existing row unchanged. The boolean reports whether this
// call created the user.
func (s *Service) Provision(ctx context.Context, email, password string, role auth.Role, name string) (*User, bool, error) {
	if err := s.validate(email, password, role, name); err != nil {
		return nil, false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, false, err
	}
	u := &User{
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         role,
		Name:         name,
		Status:       StatusActive,
	}
	return s.users.CreateIfAbsent(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(email))
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// UpdateCredential replaces the stored hash for the user.
func (s *Service) UpdateCredential(ctx context.Context, id uuid.UUID, newPassword string) error {
	if len(newPassword) < 8 {
		return apperr.New(apperr.KindInvalidArgument, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// VerifyCredential reports whether plaintext matches the stored hash for
// email. Unknown emails and inactive accounts verify against a dummy hash so
// the result arrives in credential-check time either way.
func (s *Service) VerifyCredential(ctx context.Context, email, plaintext string) (bool, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
			return false, nil
		}
		return false, err
	}
	if !u.Active() {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil, nil
}

// Login verifies the credential and issues a bearer token. Every failure
// mode maps to Unauthenticated so callers cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return "", nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
		}
		return "", nil, err
	}
	if !u.Active() {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	}

	token, err := auth.IssueToken(s.secret, s.tokenTTL, u.ID, u.Role, u.PatientID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Deactivate soft-disables the account. Existing records keep referencing it
// for audit history; new clinical events may not.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.UpdateStatus(ctx, id, StatusInactive)
}

// LinkPatient attaches a patient record to a patient-role account.
func (s *Service) LinkPatient(ctx context.Context, id, patientID uuid.UUID) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Role != auth.RolePatient {
		return apperr.Newf(apperr.KindInvalidRole, "role %s cannot be linked to a patient record", u.Role)
	}
	return s.users.LinkPatient(ctx, id, patientID)
}
