package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func getUser(t *testing.T, r http.Handler, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/users/"+id, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetUserByIDRoundTrip(t *testing.T) {
	mem := &memStore{}
	r := newTestRouter(t, mem)

	w := postLogin(t, r, `{"email":"a@x.com","password":"pw1","role":"doctor"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("seed signup failed: %d %s", w.Code, w.Body.String())
	}
	created, ok := decodeBody(t, w)["user"].(map[string]any)
	if !ok {
		t.Fatalf("no user in signup response")
	}
	id, _ := created["id"].(string)

	w = getUser(t, r, id)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	fetched := decodeBody(t, w)
	if fetched["id"] != id || fetched["email"] != "a@x.com" || fetched["role"] != "doctor" {
		t.Fatalf("fetched account differs: %v", fetched)
	}
	if _, leaked := fetched["password"]; leaked {
		t.Fatalf("password leaked in response: %v", fetched)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	r := newTestRouter(t, &memStore{})

	w := getUser(t, r, primitive.NewObjectID().Hex())
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetUserByIDMalformed(t *testing.T) {
	r := newTestRouter(t, &memStore{})

	w := getUser(t, r, "not-an-object-id")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
