package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func userColumns() []string {
	return []string{"id", "username", "password_hash", "salt", "active", "clearance_id", "created_at"}
}

func TestAuthenticateUserCredentialOpacity(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	hashed, err := HashPassword("rightpassword")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	// Unknown username.
	mock.ExpectQuery("select id, username, password_hash, salt, active, clearance_id, created_at").
		WithArgs("nosuchuser").
		WillReturnError(sql.ErrNoRows)
	_, errUnknown := svc.AuthenticateUser(context.Background(), "nosuchuser", "x")

	// Known username, wrong password.
	mock.ExpectQuery("select id, username, password_hash, salt, active, clearance_id, created_at").
		WithArgs("realuser").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "realuser", hashed.Hash, hashed.Salt, true, "clr-1", clock.Now()))
	_, errWrongPw := svc.AuthenticateUser(context.Background(), "realuser", "wrongpassword")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPw, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPw)
	}
	// The two failures must be indistinguishable.
	if errUnknown.Error() != errWrongPw.Error() {
		t.Fatalf("failure modes leak: %q vs %q", errUnknown, errWrongPw)
	}
	expectMet(t, mock)
}

func TestAuthenticateUserSuccess(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	hashed, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	mock.ExpectQuery("select id, username, password_hash, salt, active, clearance_id, created_at").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "alice", hashed.Hash, hashed.Salt, true, "clr-1", clock.Now()))

	user, err := svc.AuthenticateUser(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	expectMet(t, mock)
}

func TestCreateUser(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	mock.ExpectQuery("select id, username, password_hash, salt, active, clearance_id, created_at").
		WithArgs("alice").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select id, sequence, name from clearances where name").
		WithArgs("member").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sequence", "name"}).
			AddRow("clr-2", 2, "member"))
	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg(), sqlmock.AnyArg(), true, "clr-2", clock.Now()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user, err := svc.CreateUser(context.Background(), "alice", "secret123", "member")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ClearanceID != "clr-2" || !user.Active {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "" || user.Salt == "" {
		t.Fatal("password hash and salt must be persisted")
	}
	expectMet(t, mock)
}

func TestCreateUserRejectsActiveDuplicate(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	mock.ExpectQuery("select id, username, password_hash, salt, active, clearance_id, created_at").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("user-1", "alice", "hash", "salt", true, "clr-1", clock.Now()))

	_, err := svc.CreateUser(context.Background(), "alice", "secret123", "member")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	expectMet(t, mock)
}

func TestListClearancesOrderedBySequence(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("select id, sequence, name from clearances order by sequence asc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sequence", "name"}).
			AddRow("clr-1", 1, "admin").
			AddRow("clr-2", 2, "member").
			AddRow("clr-3", 3, "guest"))

	clearances, err := svc.ListClearances(context.Background())
	if err != nil {
		t.Fatalf("ListClearances: %v", err)
	}
	if len(clearances) != 3 {
		t.Fatalf("expected 3 clearances, got %d", len(clearances))
	}
	for i := 1; i < len(clearances); i++ {
		if clearances[i].Sequence < clearances[i-1].Sequence {
			t.Fatalf("clearances out of order: %+v", clearances)
		}
	}
	if clearances[0].Name != "admin" {
		t.Fatalf("most privileged first, got %s", clearances[0].Name)
	}
	expectMet(t, mock)
}

func TestRegisterInvitedUser(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	mock.ExpectQuery("select ct.id, ct.token_id, ct.consumer_id, c.name").
		WithArgs("invite-secret", clock.Now()).
		WillReturnRows(consumableRows(InviteConsumer, clock))
	mock.ExpectQuery("select id, username, password_hash, salt, active, clearance_id, created_at").
		WithArgs("bob").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select id, sequence, name from clearances where name").
		WithArgs("member").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sequence", "name"}).
			AddRow("clr-2", 2, "member"))
	mock.ExpectExec("insert into users").
		WithArgs(sqlmock.AnyArg(), "bob", sqlmock.AnyArg(), sqlmock.AnyArg(), true, "clr-2", clock.Now()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("update tokens set expired_at").
		WithArgs(clock.Now().Add(-time.Second), "tok-1", clock.Now()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := svc.RegisterInvitedUser(context.Background(), "invite-secret", "bob", "secret123", "member")
	if err != nil {
		t.Fatalf("RegisterInvitedUser: %v", err)
	}
	if user.Username != "bob" {
		t.Fatalf("unexpected user: %+v", user)
	}
	expectMet(t, mock)
}

func TestRegisterInvitedUserSpentToken(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	mock.ExpectQuery("select ct.id, ct.token_id, ct.consumer_id, c.name").
		WithArgs("spent-secret", clock.Now()).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.RegisterInvitedUser(context.Background(), "spent-secret", "bob", "secret123", "member")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	expectMet(t, mock)
}
