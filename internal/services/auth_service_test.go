package services_test

import (
	"testing"

	"devstore/internal/repos"
	"devstore/internal/services"
)

func TestAuthService_LoginAndProfile(t *testing.T) {
	db := memdb(t)
	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	sid := "sid-auth"

	if _, err := auth.Login(sid, "dina@devstore.test", "wrong-password"); err != services.ErrBadCreds {
		t.Fatalf("want ErrBadCreds, got %v", err)
	}
	if _, ok := auth.CompleteProfile(sid); ok {
		t.Fatal("unbound session must not pass the identity check")
	}

	// email is trimmed and matched case-insensitively
	u, err := auth.Login(sid, "  Dina@devstore.test ", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u-dina" {
		t.Fatalf("bad user %+v", u)
	}
	got, ok := auth.CompleteProfile(sid)
	if !ok || got.ID != "u-dina" {
		t.Fatalf("want complete profile, got %+v ok=%v", got, ok)
	}

	if err := auth.Logout(sid); err != nil {
		t.Fatal(err)
	}
	if _, ok := auth.CompleteProfile(sid); ok {
		t.Fatal("logout must unbind the session")
	}
}
