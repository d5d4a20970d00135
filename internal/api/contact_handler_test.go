package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSubmitContact_MissingFields(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, _ := ts.login(t, "a@x.com", "secret123")

	cases := []gin.H{
		{"email": "a@x.com", "message": "hello"},
		{"name": "A", "message": "hello"},
		{"name": "A", "email": "a@x.com"},
	}
	for i, body := range cases {
		w := ts.do(t, http.MethodPost, "/contact", token, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: status = %d, want 400", i, w.Code)
		}
	}
}

func TestSubmitContact_UnknownResumeReference(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, _ := ts.login(t, "a@x.com", "secret123")

	w := ts.do(t, http.MethodPost, "/contact", token, gin.H{
		"name":             "A",
		"email":            "a@x.com",
		"message":          "hello",
		"resume_reference": "guessed-key.pdf",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListContacts_NewestFirst(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, _ := ts.login(t, "a@x.com", "secret123")

	for _, msg := range []string{"first", "second", "third"} {
		w := ts.do(t, http.MethodPost, "/contact", token, gin.H{
			"name": "A", "email": "a@x.com", "message": msg,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("contact %q: status = %d", msg, w.Code)
		}
	}

	ts.signup(t, "Admin", "admin@x.com", "adminpass1")
	adminToken := ts.adminToken(t, "admin@x.com", "adminpass1")

	w := ts.do(t, http.MethodGet, "/api/admin/contacts", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Contacts []struct {
			Message string `json:"message"`
		} `json:"contacts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Contacts) != 3 {
		t.Fatalf("len(contacts) = %d, want 3", len(resp.Contacts))
	}
	if resp.Contacts[0].Message != "third" || resp.Contacts[2].Message != "first" {
		t.Fatalf("unexpected order: %+v", resp.Contacts)
	}
}

func TestDeleteContact_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "Admin", "admin@x.com", "adminpass1")
	adminToken := ts.adminToken(t, "admin@x.com", "adminpass1")

	w := ts.do(t, http.MethodDelete, "/api/admin/contact/999", adminToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDeleteContact_CascadesToResume(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, _ := ts.login(t, "a@x.com", "secret123")

	ref, uw := ts.uploadResume(t, token, "cv.pdf", []byte("resume bytes"))
	if uw.Code != http.StatusCreated {
		t.Fatalf("upload: status = %d", uw.Code)
	}

	cw := ts.do(t, http.MethodPost, "/contact", token, gin.H{
		"name":             "A",
		"email":            "a@x.com",
		"message":          "please consider my resume",
		"resume_reference": ref,
	})
	if cw.Code != http.StatusCreated {
		t.Fatalf("contact: status = %d body=%s", cw.Code, cw.Body.String())
	}

	var created struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(cw.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	ts.signup(t, "Admin", "admin@x.com", "adminpass1")
	adminToken := ts.adminToken(t, "admin@x.com", "adminpass1")

	dw := ts.do(t, http.MethodDelete, "/api/admin/contact/"+strconv.FormatUint(uint64(created.ID), 10), adminToken, nil)
	if dw.Code != http.StatusOK {
		t.Fatalf("delete: status = %d body=%s", dw.Code, dw.Body.String())
	}

	// 元数据与字节应一并消失，随后的取回必须 404。
	if _, ok := ts.storage.uploaded[ref]; ok {
		t.Fatal("cascade must remove stored bytes")
	}
	if gw := ts.do(t, http.MethodGet, "/download-resume/"+ref, adminToken, nil); gw.Code != http.StatusNotFound {
		t.Fatalf("post-cascade download: status = %d, want 404", gw.Code)
	}
}

func TestAdminDashboard_ReturnsBothLists(t *testing.T) {
	ts := newTestServer(t)
	ts.signup(t, "A", "a@x.com", "secret123")
	token, _ := ts.login(t, "a@x.com", "secret123")

	if _, w := ts.uploadResume(t, token, "cv.pdf", []byte("bytes")); w.Code != http.StatusCreated {
		t.Fatalf("upload: status = %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/contact", token, gin.H{
		"name": "A", "email": "a@x.com", "message": "hello",
	}); w.Code != http.StatusCreated {
		t.Fatalf("contact: status = %d", w.Code)
	}

	ts.signup(t, "Admin", "admin@x.com", "adminpass1")
	adminToken := ts.adminToken(t, "admin@x.com", "adminpass1")

	w := ts.do(t, http.MethodGet, "/admin-dashboard", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: status = %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Contacts []json.RawMessage `json:"contacts"`
		Resumes  []json.RawMessage `json:"resumes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Contacts) != 1 || len(resp.Resumes) != 1 {
		t.Fatalf("contacts = %d, resumes = %d, want 1 and 1", len(resp.Contacts), len(resp.Resumes))
	}
}
