// Command smoke-auth exercises the full auth flow against a live database:
// invite-token user creation, session login, cookie supersede/delete, and
// exactly-once token consumption.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/obs"
)

func main() {
	log.SetFlags(0)

	dsn := os.Getenv("GATEHOUSE_PG_DSN")
	if dsn == "" {
		log.Fatal("missing GATEHOUSE_PG_DSN")
	}

	store, err := auth.Open(dsn)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	obs.Init()
	svc := auth.NewService(store, auth.WithAuditLog(audit.LogEvent))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	username := fmt.Sprintf("smoke-%d", time.Now().UnixNano())
	password := "smoke-secret"

	// Invite-token registration.
	_, inviteSecret, err := svc.IssueInviteToken(ctx, time.Hour)
	if err != nil {
		log.Fatalf("issue invite token: %v", err)
	}
	user, err := svc.RegisterInvitedUser(ctx, inviteSecret, username, password, "member")
	if err != nil {
		log.Fatalf("register invited user: %v", err)
	}
	if _, err := svc.RegisterInvitedUser(ctx, inviteSecret, username+"-again", password, "member"); !errors.Is(err, auth.ErrTokenExpired) {
		log.Fatalf("invite token should be spent, got %v", err)
	}

	// Session login.
	sess, secret, err := svc.CreateSession(ctx)
	if err != nil {
		log.Fatalf("create session: %v", err)
	}
	if _, err := svc.ResolveSession(ctx, secret); err != nil {
		log.Fatalf("resolve session: %v", err)
	}
	if _, err := svc.Login(ctx, sess, username, password); err != nil {
		log.Fatalf("login: %v", err)
	}
	current, err := svc.IsLoggedIn(ctx, sess)
	if err != nil {
		log.Fatalf("is logged in: %v", err)
	}
	if current.ID != user.ID {
		log.Fatalf("logged-in user mismatch: %s vs %s", current.ID, user.ID)
	}

	// Cookie supersede and delete.
	if _, err := svc.SetCookie(ctx, sess, "theme", "dark"); err != nil {
		log.Fatalf("set cookie: %v", err)
	}
	if _, err := svc.SetCookie(ctx, sess, "theme", "light"); err != nil {
		log.Fatalf("supersede cookie: %v", err)
	}
	theme, err := svc.ReadCookie(ctx, sess, "theme")
	if err != nil {
		log.Fatalf("read cookie: %v", err)
	}
	if theme.Value != "light" {
		log.Fatalf("cookie value: want light, got %s", theme.Value)
	}
	if ok, err := svc.DeleteCookie(ctx, sess, "theme"); err != nil || !ok {
		log.Fatalf("delete cookie: ok=%v err=%v", ok, err)
	}
	if ok, _ := svc.DeleteCookie(ctx, sess, "theme"); ok {
		log.Fatal("second delete should report false")
	}

	// Logout.
	if ok, err := svc.Logout(ctx, sess); err != nil || !ok {
		log.Fatalf("logout: ok=%v err=%v", ok, err)
	}
	if _, err := svc.IsLoggedIn(ctx, sess); !errors.Is(err, auth.ErrNotLoggedIn) {
		log.Fatalf("expected not logged in, got %v", err)
	}

	fmt.Println("smoke-auth OK")
}
