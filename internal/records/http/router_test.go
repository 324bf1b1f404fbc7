package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/folioworks/folio/internal/records/metrics"
	"github.com/folioworks/folio/internal/records/service"
	"github.com/folioworks/folio/internal/records/store/drivers/sqlite"
	"github.com/folioworks/folio/pkg/cryptox"
	"github.com/folioworks/folio/pkg/httpx"
	"github.com/folioworks/folio/pkg/jwtx"
)

const testPassword = "correct-horse-battery-staple"

// Collectors register on the process-global Prometheus registry exactly once,
// so every test router shares this instance.
var testMetrics = metrics.New()

func TestMain(m *testing.M) {
	// Credential hashing needs a pepper; point it at a throwaway file.
	pepperPath := filepath.Join(os.TempDir(), "records-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)
	os.Remove(pepperPath)

	code := m.Run()

	os.Remove(pepperPath)
	os.Exit(code)
}

// newTestRouter wires the full route map against an in-memory store, the same
// way the application bootstrap does. Each call owns fresh rate limiter
// buckets, so per-test request budgets never bleed into each other.
func newTestRouter(t *testing.T) (*Router, *jwtx.HS256) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewEphemeralHS256("records-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := NewRouter(signer, "test", st, logger, testMetrics)
	r.AuthService = service.NewAuth(st, signer, "records-test", time.Hour)
	r.AccountService = service.NewAccounts(st, service.DefaultOptions())
	r.DocumentService = service.NewDocuments(st, service.DefaultOptions())
	r.ApplyRoutes()

	return r, signer
}

// doRequest runs one request through the router. A string body is sent as-is;
// anything else is JSON-encoded first.
func doRequest(t *testing.T, router *Router, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	require.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	require.Equal(t, code, decodeJSON[ErrorResponse](t, rec).Error)
}

func createTestAccount(t *testing.T, router *Router, handle, role string) AccountResponse {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/v1/accounts", "", CreateAccountRequest{
		Handle:   handle,
		Email:    handle + "@example.com",
		Password: testPassword,
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decodeJSON[AccountResponse](t, rec)
}

// bearerFor mints a token with the router's own signer, skipping the login
// round trip.
func bearerFor(t *testing.T, signer *jwtx.HS256, account AccountResponse) string {
	t.Helper()

	claims := jwtx.NewAccessClaims(
		strconv.FormatInt(account.ID, 10),
		account.Handle,
		account.Role,
		time.Hour,
		"records-test",
		time.Now(),
	)
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token
}

func accountPath(id int64) string  { return "/v1/accounts/" + strconv.FormatInt(id, 10) }
func documentPath(id int64) string { return "/v1/documents/" + strconv.FormatInt(id, 10) }

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	live := decodeJSON[HealthResponse](t, rec)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)
	require.Nil(t, live.Checks)

	rec = doRequest(t, router, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decodeJSON[HealthResponse](t, rec)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
}

func TestRouter_CreateAccount(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("defaults to the standard role", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/accounts", "", CreateAccountRequest{
			Handle:   "alice",
			Email:    "alice@example.com",
			Password: testPassword,
		})
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

		account := decodeJSON[AccountResponse](t, rec)
		require.NotZero(t, account.ID)
		require.Equal(t, "alice", account.Handle)
		require.Equal(t, "standard", account.Role)
		require.Nil(t, account.DeletedAt)
	})

	t.Run("honours an explicit role", func(t *testing.T) {
		account := createTestAccount(t, router, "root", "privileged")
		require.Equal(t, "privileged", account.Role)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/accounts", "", `{"handle":`)
		requireErrorCode(t, rec, http.StatusBadRequest, "invalid_request")
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/accounts", "", CreateAccountRequest{
			Handle:   "bob",
			Email:    "not-an-email",
			Password: testPassword,
		})
		requireErrorCode(t, rec, http.StatusBadRequest, "validation_failed")
	})

	t.Run("refuses a taken handle", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/accounts", "", CreateAccountRequest{
			Handle:   "alice",
			Email:    "alice-two@example.com",
			Password: testPassword,
		})
		requireErrorCode(t, rec, http.StatusConflict, "duplicate_value")
	})

	t.Run("refuses a taken email case-insensitively", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/accounts", "", CreateAccountRequest{
			Handle:   "alice-two",
			Email:    "ALICE@example.com",
			Password: testPassword,
		})
		requireErrorCode(t, rec, http.StatusConflict, "duplicate_value")
	})
}

func TestRouter_AccountLifecycle(t *testing.T) {
	router, signer := newTestRouter(t)

	account := createTestAccount(t, router, "carol", "")
	token := bearerFor(t, signer, account)
	path := accountPath(account.ID)

	// Soft delete hides the account from default reads.
	rec := doRequest(t, router, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, "body: %s", rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, path, "", nil)
	requireErrorCode(t, rec, http.StatusNotFound, "not_found")

	// deleted=1 surfaces it, with the deletion timestamp set.
	rec = doRequest(t, router, http.MethodGet, path+"?deleted=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decodeJSON[AccountResponse](t, rec).DeletedAt)

	// Restore brings it back to active.
	rec = doRequest(t, router, http.MethodPost, path+"/restore", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	require.Nil(t, decodeJSON[AccountResponse](t, rec).DeletedAt)

	// Restoring an active account is a lifecycle conflict.
	rec = doRequest(t, router, http.MethodPost, path+"/restore", token, nil)
	requireErrorCode(t, rec, http.StatusConflict, "not_deleted")
}

func TestRouter_AccountUpdate(t *testing.T) {
	router, signer := newTestRouter(t)

	account := createTestAccount(t, router, "dave", "")
	other := createTestAccount(t, router, "erin", "")
	token := bearerFor(t, signer, account)
	path := accountPath(account.ID)

	t.Run("requires a bearer token", func(t *testing.T) {
		h := "dave-renamed"
		rec := doRequest(t, router, http.MethodPatch, path, "", UpdateAccountRequest{Handle: &h})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `Bearer error="invalid_token"`)
		require.Empty(t, rec.Body.String())
	})

	t.Run("rejects a token from another signing key", func(t *testing.T) {
		stranger, err := jwtx.NewEphemeralHS256("records-test")
		require.NoError(t, err)

		h := "dave-renamed"
		rec := doRequest(t, router, http.MethodPatch, path, bearerFor(t, stranger, account), UpdateAccountRequest{Handle: &h})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("applies a partial update", func(t *testing.T) {
		h := "dave-renamed"
		rec := doRequest(t, router, http.MethodPatch, path, token, UpdateAccountRequest{Handle: &h})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		updated := decodeJSON[AccountResponse](t, rec)
		require.Equal(t, "dave-renamed", updated.Handle)
		require.Equal(t, account.Email, updated.Email)
	})

	t.Run("refuses a handle collision", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPatch, path, token, UpdateAccountRequest{Handle: &other.Handle})
		requireErrorCode(t, rec, http.StatusConflict, "duplicate_value")
	})

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		h := "whatever"
		rec := doRequest(t, router, http.MethodPatch, "/v1/accounts/nope", token, UpdateAccountRequest{Handle: &h})
		requireErrorCode(t, rec, http.StatusBadRequest, "invalid_request")
	})

	t.Run("404s on a missing account", func(t *testing.T) {
		h := "whatever"
		rec := doRequest(t, router, http.MethodPatch, accountPath(99999), token, UpdateAccountRequest{Handle: &h})
		requireErrorCode(t, rec, http.StatusNotFound, "not_found")
	})
}

func TestRouter_PrivilegedRoutes(t *testing.T) {
	router, signer := newTestRouter(t)

	standard := createTestAccount(t, router, "frank", "")
	admin := createTestAccount(t, router, "grace", "privileged")
	standardToken := bearerFor(t, signer, standard)
	adminToken := bearerFor(t, signer, admin)

	t.Run("purge refuses the standard role", func(t *testing.T) {
		victim := createTestAccount(t, router, "victim", "")

		rec := doRequest(t, router, http.MethodDelete, accountPath(victim.ID)+"/purge", standardToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "insufficient_role", rec.Body.String())
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_role")

		// Purged by a privileged caller, the account is gone in every view.
		rec = doRequest(t, router, http.MethodDelete, accountPath(victim.ID)+"/purge", adminToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(t, router, http.MethodGet, accountPath(victim.ID)+"?deleted=1", "", nil)
		requireErrorCode(t, rec, http.StatusNotFound, "not_found")
	})

	t.Run("role changes are privileged-only", func(t *testing.T) {
		target := createTestAccount(t, router, "henry", "")
		rolePath := accountPath(target.ID) + "/role"

		rec := doRequest(t, router, http.MethodPatch, rolePath, standardToken, UpdateRoleRequest{Role: "privileged"})
		require.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(t, router, http.MethodPatch, rolePath, adminToken, UpdateRoleRequest{Role: "privileged"})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		require.Equal(t, "privileged", decodeJSON[AccountResponse](t, rec).Role)

		rec = doRequest(t, router, http.MethodPatch, rolePath, adminToken, UpdateRoleRequest{Role: "emperor"})
		requireErrorCode(t, rec, http.StatusBadRequest, "validation_failed")
	})

	t.Run("account batch delete is privileged-only", func(t *testing.T) {
		one := createTestAccount(t, router, "batch-one", "")
		two := createTestAccount(t, router, "batch-two", "")

		rec := doRequest(t, router, http.MethodPost, "/v1/accounts/batch-delete", standardToken,
			BatchDeleteRequest{IDs: []int64{one.ID, two.ID}})
		require.Equal(t, http.StatusForbidden, rec.Code)

		// Unknown ids count as misses, not errors.
		rec = doRequest(t, router, http.MethodPost, "/v1/accounts/batch-delete", adminToken,
			BatchDeleteRequest{IDs: []int64{one.ID, two.ID, 99999}})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		require.Equal(t, 2, decodeJSON[BatchDeleteResponse](t, rec).Affected)

		rec = doRequest(t, router, http.MethodGet, accountPath(one.ID), "", nil)
		requireErrorCode(t, rec, http.StatusNotFound, "not_found")
	})
}

func TestRouter_AccountListing(t *testing.T) {
	router, signer := newTestRouter(t)

	alpha := createTestAccount(t, router, "list-alpha", "")
	beta := createTestAccount(t, router, "list-beta", "")
	super := createTestAccount(t, router, "super", "privileged")

	// Soft-delete one so the default listings have something to hide.
	rec := doRequest(t, router, http.MethodDelete, accountPath(beta.ID), bearerFor(t, signer, beta), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	t.Run("substring filter hides deleted accounts by default", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/accounts?handle=list-&sort_by=handle&sort_dir=asc", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		res := decodeJSON[AccountListResponse](t, rec)
		require.Len(t, res.Data, 1)
		require.Equal(t, alpha.ID, res.Data[0].ID)
	})

	t.Run("deleted=1 includes soft-deleted accounts", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/accounts?handle=list-&deleted=1&sort_by=handle&sort_dir=asc", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		res := decodeJSON[AccountListResponse](t, rec)
		require.Len(t, res.Data, 2)
		require.Equal(t, alpha.ID, res.Data[0].ID)
		require.Equal(t, beta.ID, res.Data[1].ID)
		require.Equal(t, 2, res.Pagination.Total)
	})

	t.Run("role filter", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/accounts?role=privileged", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		res := decodeJSON[AccountListResponse](t, rec)
		require.Len(t, res.Data, 1)
		require.Equal(t, super.ID, res.Data[0].ID)
	})

	t.Run("page size is capped", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/accounts?limit=9999", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 100, decodeJSON[AccountListResponse](t, rec).Pagination.Limit)
	})

	t.Run("unknown sort fields fall back to the default order", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/accounts?sort_by=credential_hash", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stats count every lifecycle state", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet, "/v1/accounts/stats", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var stats struct {
			Total   int            `json:"total"`
			Active  int            `json:"active"`
			Deleted int            `json:"deleted"`
			ByRole  map[string]int `json:"by_role"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		require.Equal(t, 3, stats.Total)
		require.Equal(t, 2, stats.Active)
		require.Equal(t, 1, stats.Deleted)
		require.Equal(t, 2, stats.ByRole["standard"])
		require.Equal(t, 1, stats.ByRole["privileged"])
	})
}

func TestRouter_DocumentFlows(t *testing.T) {
	router, signer := newTestRouter(t)

	owner := createTestAccount(t, router, "holly", "")
	token := bearerFor(t, signer, owner)

	// Unauthenticated creation is refused outright.
	rec := doRequest(t, router, http.MethodPost, "/v1/documents", "", CreateDocumentRequest{Title: "q3 report", Body: "draft"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// The owner comes from the token, not the payload.
	rec = doRequest(t, router, http.MethodPost, "/v1/documents", token, CreateDocumentRequest{Title: "q3 report", Body: "quarterly numbers"})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	doc := decodeJSON[DocumentResponse](t, rec)
	require.Equal(t, owner.ID, doc.OwnerID)
	path := documentPath(doc.ID)

	// Titles are unique.
	rec = doRequest(t, router, http.MethodPost, "/v1/documents", token, CreateDocumentRequest{Title: "q3 report", Body: "other"})
	requireErrorCode(t, rec, http.StatusConflict, "duplicate_value")

	rec = doRequest(t, router, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := "final numbers"
	rec = doRequest(t, router, http.MethodPatch, path, token, UpdateDocumentRequest{Body: &body})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	require.Equal(t, body, decodeJSON[DocumentResponse](t, rec).Body)

	// Soft delete hides the document but keeps its title occupied.
	rec = doRequest(t, router, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodGet, path, "", nil)
	requireErrorCode(t, rec, http.StatusNotFound, "not_found")

	rec = doRequest(t, router, http.MethodPost, "/v1/documents", token, CreateDocumentRequest{Title: "q3 report", Body: "reuse attempt"})
	requireErrorCode(t, rec, http.StatusConflict, "duplicate_value")

	rec = doRequest(t, router, http.MethodPost, path+"/restore", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	require.Nil(t, decodeJSON[DocumentResponse](t, rec).DeletedAt)

	// Purge is privileged, and frees the title for reuse.
	rec = doRequest(t, router, http.MethodDelete, path+"/purge", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := createTestAccount(t, router, "irene", "privileged")
	rec = doRequest(t, router, http.MethodDelete, path+"/purge", bearerFor(t, signer, admin), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/v1/documents", token, CreateDocumentRequest{Title: "q3 report", Body: "second life"})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
}

func TestRouter_DocumentSearch(t *testing.T) {
	router, signer := newTestRouter(t)

	owner := createTestAccount(t, router, "ivy", "")
	token := bearerFor(t, signer, owner)

	for _, d := range []CreateDocumentRequest{
		{Title: "meeting notes", Body: "retro actions"},
		{Title: "roadmap", Body: "notes for next quarter"},
		{Title: "grocery list", Body: "milk and eggs"},
	} {
		rec := doRequest(t, router, http.MethodPost, "/v1/documents", token, d)
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	}

	// The keyword matches titles and bodies alike, case-insensitively.
	rec := doRequest(t, router, http.MethodGet, "/v1/documents/search?q=NOTES", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeJSON[DocumentListResponse](t, rec).Data, 2)

	rec = doRequest(t, router, http.MethodGet, "/v1/documents/search?q=nothing-matches-this", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeJSON[DocumentListResponse](t, rec).Data)

	// A missing keyword is a validation error.
	rec = doRequest(t, router, http.MethodGet, "/v1/documents/search", "", nil)
	requireErrorCode(t, rec, http.StatusBadRequest, "validation_failed")
}

func TestRouter_DocumentBatchDelete(t *testing.T) {
	router, signer := newTestRouter(t)

	alice := createTestAccount(t, router, "alice", "")
	bob := createTestAccount(t, router, "bob", "")
	admin := createTestAccount(t, router, "admin", "privileged")
	aliceToken := bearerFor(t, signer, alice)
	bobToken := bearerFor(t, signer, bob)

	createDoc := func(token, title string) DocumentResponse {
		rec := doRequest(t, router, http.MethodPost, "/v1/documents", token, CreateDocumentRequest{Title: title, Body: "body of " + title})
		require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
		return decodeJSON[DocumentResponse](t, rec)
	}

	first := createDoc(aliceToken, "alpha")
	second := createDoc(aliceToken, "beta")
	foreign := createDoc(bobToken, "gamma")

	// A standard caller only touches their own documents; foreign and unknown
	// ids count as misses.
	rec := doRequest(t, router, http.MethodPost, "/v1/documents/batch-delete", aliceToken,
		BatchDeleteRequest{IDs: []int64{first.ID, foreign.ID, 99999}})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	require.Equal(t, 1, decodeJSON[BatchDeleteResponse](t, rec).Affected)

	rec = doRequest(t, router, http.MethodGet, documentPath(foreign.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Privileged callers delete across owners.
	rec = doRequest(t, router, http.MethodPost, "/v1/documents/batch-delete", bearerFor(t, signer, admin),
		BatchDeleteRequest{IDs: []int64{second.ID, foreign.ID}})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	require.Equal(t, 2, decodeJSON[BatchDeleteResponse](t, rec).Affected)

	// Owner listings include the deleted documents only on request.
	rec = doRequest(t, router, http.MethodGet, accountPath(alice.ID)+"/documents", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decodeJSON[DocumentListResponse](t, rec).Data)

	rec = doRequest(t, router, http.MethodGet, accountPath(alice.ID)+"/documents?deleted=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeJSON[DocumentListResponse](t, rec).Data, 2)
}

func TestRouter_DocumentsOutliveTheirOwner(t *testing.T) {
	router, signer := newTestRouter(t)

	owner := createTestAccount(t, router, "mallory", "")
	admin := createTestAccount(t, router, "sysop", "privileged")
	ownerToken := bearerFor(t, signer, owner)

	rec := doRequest(t, router, http.MethodPost, "/v1/documents", ownerToken, CreateDocumentRequest{Title: "estate", Body: "the will"})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	doc := decodeJSON[DocumentResponse](t, rec)

	rec = doRequest(t, router, http.MethodDelete, accountPath(owner.ID)+"/purge", bearerFor(t, signer, admin), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The document keeps its old owner id even though the account is gone.
	rec = doRequest(t, router, http.MethodGet, documentPath(doc.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, owner.ID, decodeJSON[DocumentResponse](t, rec).OwnerID)

	rec = doRequest(t, router, http.MethodGet, accountPath(owner.ID)+"/documents", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeJSON[DocumentListResponse](t, rec).Data, 1)

	// But a token for the purged account can no longer create documents.
	rec = doRequest(t, router, http.MethodPost, "/v1/documents", ownerToken, CreateDocumentRequest{Title: "ghost", Body: "boo"})
	requireErrorCode(t, rec, http.StatusUnprocessableEntity, "owner_not_found")
}

func TestRouter_Login(t *testing.T) {
	router, signer := newTestRouter(t)

	account := createTestAccount(t, router, "jules", "")

	t.Run("mints a usable bearer token", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
			LoginRequest{Email: "jules@example.com", Password: testPassword})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

		token := decodeJSON[TokenResponse](t, rec)
		require.Equal(t, "Bearer", token.TokenType)
		require.NotEmpty(t, token.AccessToken)
		require.Equal(t, int(time.Hour.Seconds()), token.ExpiresIn)
		require.Equal(t, account.ID, token.Account.ID)

		// The minted token authenticates a mutation.
		h := "jules-renamed"
		patch := doRequest(t, router, http.MethodPatch, accountPath(account.ID), token.AccessToken, UpdateAccountRequest{Handle: &h})
		require.Equal(t, http.StatusOK, patch.Code, "body: %s", patch.Body.String())
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
			LoginRequest{Email: "jules@example.com", Password: "wrong"})
		requireErrorCode(t, rec, http.StatusUnauthorized, "invalid_credentials")
	})

	t.Run("rejects an unknown email with the same error", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
			LoginRequest{Email: "ghost@example.com", Password: testPassword})
		requireErrorCode(t, rec, http.StatusUnauthorized, "invalid_credentials")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "", `{"email":`)
		requireErrorCode(t, rec, http.StatusBadRequest, "invalid_request")
	})

	t.Run("soft-deleted accounts still authenticate", func(t *testing.T) {
		victim := createTestAccount(t, router, "kara", "")
		del := doRequest(t, router, http.MethodDelete, accountPath(victim.ID), bearerFor(t, signer, victim), nil)
		require.Equal(t, http.StatusNoContent, del.Code)

		rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
			LoginRequest{Email: "kara@example.com", Password: testPassword})
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		require.NotNil(t, decodeJSON[TokenResponse](t, rec).Account.DeletedAt)
	})
}

func TestRouter_LoginRateLimit(t *testing.T) {
	router, _ := newTestRouter(t)

	// Exhaust the per-identity budget with failed attempts.
	for i := 0; i < httpx.StrictLimit.Burst; i++ {
		rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
			LoginRequest{Email: "target@example.com", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
		LoginRequest{Email: "target@example.com", Password: "wrong"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another identity from the same address still has budget.
	rec = doRequest(t, router, http.MethodPost, "/v1/auth/login", "",
		LoginRequest{Email: "someone-else@example.com", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MetricsAndSwagger(t *testing.T) {
	router, _ := newTestRouter(t)

	// Drive one observed request so the counter families exist.
	rec := doRequest(t, router, http.MethodGet, "/v1/accounts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "folio_records_http_requests_total")

	rec = doRequest(t, router, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Folio Records Service API")
}
