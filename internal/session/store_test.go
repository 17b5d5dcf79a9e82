package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ganttview/internal/service"
	"ganttview/internal/session"
)

// requestWith returns a request carrying the cookies set on rec.
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStore_SaveLoad(t *testing.T) {
	store := session.NewStore("secret")

	rec := httptest.NewRecorder()
	data := session.Data{
		User:     &service.User{ID: "1", DisplayName: "Ada"},
		Basecamp: service.Credentials{AccessToken: "a", RefreshToken: "r"},
		Accounts: []service.Account{{ID: 999, Name: "Acme", Product: "bc3"}},
	}
	id, err := store.Save(rec, "", data)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("expected a session id")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName {
		t.Fatalf("expected one session cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookies[0].Secure {
		t.Error("expected non-secure cookie by default")
	}

	gotID, got, ok := store.Load(requestWith(rec))
	if !ok {
		t.Fatal("expected session to load")
	}
	if gotID != id {
		t.Errorf("expected id %q, got %q", id, gotID)
	}
	if !got.LoggedIn() || got.User.DisplayName != "Ada" {
		t.Errorf("unexpected user: %+v", got.User)
	}
	if !got.HasBasecamp() || len(got.Accounts) != 1 {
		t.Errorf("unexpected data: %+v", got)
	}
}

func TestStore_SaveExistingKeepsID(t *testing.T) {
	store := session.NewStore("secret")

	rec := httptest.NewRecorder()
	id, err := store.Save(rec, "", session.Data{State: "s1"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec2 := httptest.NewRecorder()
	id2, err := store.Save(rec2, id, session.Data{State: "s2"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id2 != id {
		t.Errorf("expected same id, got %q and %q", id, id2)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 session, got %d", store.Len())
	}

	_, got, ok := store.Load(requestWith(rec))
	if !ok || got.State != "s2" {
		t.Errorf("expected updated state, got %+v (ok=%v)", got, ok)
	}
}

func TestStore_RejectsForeignSignature(t *testing.T) {
	issuer := session.NewStore("other-secret")
	store := session.NewStore("secret")

	rec := httptest.NewRecorder()
	if _, err := issuer.Save(rec, "", session.Data{State: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, _, ok := store.Load(requestWith(rec)); ok {
		t.Error("expected cookie signed with another secret to be rejected")
	}
}

func TestStore_RejectsGarbage(t *testing.T) {
	store := session.NewStore("secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not-a-token"})
	if _, _, ok := store.Load(req); ok {
		t.Error("expected garbage cookie to be rejected")
	}

	if _, _, ok := store.Load(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Error("expected request without cookie to have no session")
	}
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := session.NewStore("secret", session.WithTTL(time.Hour), session.WithClock(clock))

	rec := httptest.NewRecorder()
	if _, err := store.Save(rec, "", session.Data{State: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, _, ok := store.Load(requestWith(rec)); !ok {
		t.Fatal("expected live session")
	}

	now = now.Add(2 * time.Hour)
	if _, _, ok := store.Load(requestWith(rec)); ok {
		t.Error("expected expired session to be rejected")
	}
}

func TestStore_PurgesExpiredOnSave(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := session.NewStore("secret", session.WithTTL(time.Hour), session.WithClock(clock))

	if _, err := store.Save(httptest.NewRecorder(), "", session.Data{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := store.Save(httptest.NewRecorder(), "", session.Data{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("expected expired session purged, got %d sessions", store.Len())
	}
}

func TestStore_Destroy(t *testing.T) {
	store := session.NewStore("secret", session.WithSecureCookie(true))

	rec := httptest.NewRecorder()
	id, err := store.Save(rec, "", session.Data{State: "x"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !rec.Result().Cookies()[0].Secure {
		t.Error("expected secure cookie")
	}

	out := httptest.NewRecorder()
	store.Destroy(out, id)
	if store.Len() != 0 {
		t.Errorf("expected no sessions, got %d", store.Len())
	}
	cleared := out.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %+v", cleared)
	}
	if _, _, ok := store.Load(requestWith(rec)); ok {
		t.Error("expected destroyed session to be gone")
	}
}
