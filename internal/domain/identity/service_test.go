package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	users map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) byEmail(email string) *User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	if m.byEmail(u.Email) != nil {
		return apperr.Newf(apperr.KindDuplicateEmail, "email %s is already registered", u.Email)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) CreateIfAbsent(ctx context.Context, u *User) (*User, bool, error) {
	if existing := m.byEmail(u.Email); existing != nil {
		return existing, false, nil
	}
	if err := m.Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return u, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	if u := m.byEmail(email); u != nil {
		return u, nil
	}
	return nil, apperr.New(apperr.KindNotFound, "user not found")
}

func (m *mockRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	u.Status = status
	return nil
}

func (m *mockRepo) LinkPatient(_ context.Context, id, patientID uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	u.PatientID = &patientID
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	// MinCost keeps the bcrypt calls fast in tests.
	return NewService(repo, []byte("test-secret"), time.Hour, bcrypt.MinCost), repo
}

// -- Tests --

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	u, err := svc.Register(context.Background(), "dr.sarah@clinic.test", "s3cretpass", auth.RoleDoctor, "Dr. Sarah Johnson")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == uuid.Nil || u.Status != StatusActive {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "s3cretpass" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_DuplicateEmailFails(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "a@clinic.test", "s3cretpass", auth.RoleStaff, "A"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(ctx, "a@clinic.test", "otherpass99", auth.RoleStaff, "A Again")
	if !apperr.IsKind(err, apperr.KindDuplicateEmail) {
		t.Errorf("expected duplicate_email, got %v", err)
	}
}

func TestProvision_DuplicateIsNoOp(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, created, err := svc.Provision(ctx, "admin@clinic.test", "s3cretpass", auth.RoleSuperadmin, "Admin")
	if err != nil || !created {
		t.Fatalf("first provision: created=%v err=%v", created, err)
	}

	second, created, err := svc.Provision(ctx, "admin@clinic.test", "differentpass", auth.RoleStaff, "Other Name")
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if created {
		t.Error("duplicate provision must not create")
	}
	if second.ID != first.ID || second.Role != auth.RoleSuperadmin || second.Name != "Admin" {
		t.Error("duplicate provision must return the existing row unchanged")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		email, password, name string
		role                  auth.Role
		wantKind              apperr.Kind
	}{
		{"not-an-email", "s3cretpass", "X", auth.RoleStaff, apperr.KindInvalidArgument},
		{"x@clinic.test", "short", "X", auth.RoleStaff, apperr.KindInvalidArgument},
		{"x@clinic.test", "s3cretpass", "", auth.RoleStaff, apperr.KindInvalidArgument},
		{"x@clinic.test", "s3cretpass", "X", auth.Role("chief"), apperr.KindInvalidRole},
	}
	for _, tc := range cases {
		_, err := svc.Register(ctx, tc.email, tc.password, tc.role, tc.name)
		if !apperr.IsKind(err, tc.wantKind) {
			t.Errorf("Register(%q, %q, %q): expected %s, got %v", tc.email, tc.password, tc.role, tc.wantKind, err)
		}
	}
}

func TestVerifyCredential(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "u@clinic.test", "s3cretpass", auth.RoleStaff, "U"); err != nil {
		t.Fatal(err)
	}

	ok, err := svc.VerifyCredential(ctx, "u@clinic.test", "s3cretpass")
	if err != nil || !ok {
		t.Errorf("correct credential must verify: ok=%v err=%v", ok, err)
	}
	ok, err = svc.VerifyCredential(ctx, "u@clinic.test", "wrongpass")
	if err != nil || ok {
		t.Errorf("wrong credential must not verify: ok=%v err=%v", ok, err)
	}
	ok, err = svc.VerifyCredential(ctx, "nobody@clinic.test", "s3cretpass")
	if err != nil || ok {
		t.Errorf("unknown email must not verify: ok=%v err=%v", ok, err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, "doc@clinic.test", "s3cretpass", auth.RoleDoctor, "Doc")
	if err != nil {
		t.Fatal(err)
	}

	token, got, err := svc.Login(ctx, "doc@clinic.test", "s3cretpass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || got.ID != u.ID {
		t.Error("login must return a token for the registered user")
	}

	p, err := auth.ParseToken([]byte("test-secret"), token)
	if err != nil {
		t.Fatalf("issued token must parse: %v", err)
	}
	if p.UserID != u.ID || p.Role != auth.RoleDoctor {
		t.Errorf("token principal mismatch: %+v", p)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, "doc@clinic.test", "s3cretpass", auth.RoleDoctor, "Doc")
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Login(ctx, "doc@clinic.test", "wrongpass"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("wrong password: expected unauthenticated, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@clinic.test", "s3cretpass"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("unknown email: expected unauthenticated, got %v", err)
	}

	if err := svc.Deactivate(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Login(ctx, "doc@clinic.test", "s3cretpass"); !apperr.IsKind(err, apperr.KindUnauthenticated) {
		t.Errorf("deactivated account: expected unauthenticated, got %v", err)
	}
}

func TestUpdateCredential(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	u, err := svc.Register(ctx, "u@clinic.test", "s3cretpass", auth.RoleStaff, "U")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateCredential(ctx, u.ID, "newpassword1"); err != nil {
		t.Fatalf("UpdateCredential: %v", err)
	}
	if ok, _ := svc.VerifyCredential(ctx, "u@clinic.test", "newpassword1"); !ok {
		t.Error("new credential must verify")
	}
	if ok, _ := svc.VerifyCredential(ctx, "u@clinic.test", "s3cretpass"); ok {
		t.Error("old credential must no longer verify")
	}

	if err := svc.UpdateCredential(ctx, u.ID, "short"); !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Errorf("short password: expected invalid_argument, got %v", err)
	}
}

func TestLinkPatient(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	patientUser, err := svc.Register(ctx, "p@clinic.test", "s3cretpass", auth.RolePatient, "P")
	if err != nil {
		t.Fatal(err)
	}
	staffUser, err := svc.Register(ctx, "s@clinic.test", "s3cretpass", auth.RoleStaff, "S")
	if err != nil {
		t.Fatal(err)
	}

	patientID := uuid.New()
	if err := svc.LinkPatient(ctx, patientUser.ID, patientID); err != nil {
		t.Fatalf("LinkPatient: %v", err)
	}
	got, _ := svc.Get(ctx, patientUser.ID)
	if got.PatientID == nil || *got.PatientID != patientID {
		t.Error("patient link not stored")
	}

	if err := svc.LinkPatient(ctx, staffUser.ID, patientID); !apperr.IsKind(err, apperr.KindInvalidRole) {
		t.Errorf("linking a staff account: expected invalid_role, got %v", err)
	}
}
