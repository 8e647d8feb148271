package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCreateSession(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	mock.ExpectExec("insert into tokens").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), clock.Now(), clock.Now().Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into sessions").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), clock.Now()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sess, secret, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" || sess.TokenID == "" {
		t.Fatalf("session not fully populated: %+v", sess)
	}
	if secret == "" {
		t.Fatal("expected bearer secret")
	}
	expectMet(t, mock)
}

func TestResolveSessionSlidingExpiry(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now), WithSessionTTL(time.Hour))

	sessionRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "token_id", "created_at"}).
			AddRow("sess-1", "tok-1", clock.Now())
	}

	firstExp := clock.Now().Add(time.Hour)
	mock.ExpectQuery("select s.id, s.token_id, s.created_at").
		WithArgs("secret-1", clock.Now()).
		WillReturnRows(sessionRows())
	mock.ExpectExec("update tokens set expired_at").
		WithArgs(firstExp, "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := svc.ResolveSession(context.Background(), "secret-1"); err != nil {
		t.Fatalf("first ResolveSession: %v", err)
	}

	// A later touch must never move the expiry backwards.
	clock.Advance(10 * time.Minute)
	secondExp := clock.Now().Add(time.Hour)
	if !secondExp.After(firstExp) {
		t.Fatal("test setup: second expiry must be after the first")
	}
	mock.ExpectQuery("select s.id, s.token_id, s.created_at").
		WithArgs("secret-1", clock.Now()).
		WillReturnRows(sessionRows())
	mock.ExpectExec("update tokens set expired_at").
		WithArgs(secondExp, "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := svc.ResolveSession(context.Background(), "secret-1"); err != nil {
		t.Fatalf("second ResolveSession: %v", err)
	}
	expectMet(t, mock)
}

func TestResolveSessionExpiredOrUnknown(t *testing.T) {
	clock := newFakeClock()
	svc, mock := newTestService(t, WithClock(clock.Now))

	mock.ExpectQuery("select s.id, s.token_id, s.created_at").
		WithArgs("no-such-secret", clock.Now()).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.ResolveSession(context.Background(), "no-such-secret")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	expectMet(t, mock)
}
