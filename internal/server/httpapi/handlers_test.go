package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snoofz/snofbase/internal/logging"
	"github.com/snoofz/snofbase/internal/server/chat"
	"github.com/snoofz/snofbase/internal/server/directory"
	"github.com/snoofz/snofbase/internal/server/identity"
	"github.com/snoofz/snofbase/internal/snof"
)

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	body []string
}

func (f *fakeNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.body = append(f.body, body)
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	return "hashed:" + password, nil
}

func (fakeHasher) Verify(password, digest string) (bool, error) {
	return digest == "hashed:"+password, nil
}

type apiFixture struct {
	app      *fiber.App
	dir      *directory.Directory
	pending  *identity.PendingStore
	notifier *fakeNotifier
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := snof.NewStore(filepath.Join(t.TempDir(), "users.database.snof"))
	dir := directory.New(store)
	pending := identity.NewPendingStore(10 * time.Minute)
	notifier := &fakeNotifier{}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	svc := identity.NewService(dir, pending, notifier, fakeHasher{}, nil, logger, time.Hour)
	app := NewApp(svc, chat.NewBoard(10), logger, Options{
		SessionSecret: []byte("test-secret"),
		SessionTTL:    time.Hour,
	})

	return &apiFixture{app: app, dir: dir, pending: pending, notifier: notifier}
}

func (fx *apiFixture) postJSON(t *testing.T, path string, payload any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResult(t *testing.T, resp *http.Response) result {
	t.Helper()
	defer resp.Body.Close()
	var res result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return res
}

func (fx *apiFixture) registerAndVerify(t *testing.T, username, email, password string) {
	t.Helper()

	resp := fx.postJSON(t, "/api/register", fiber.Map{
		"username": username, "email": email, "password": password,
	})
	require.True(t, decodeResult(t, resp).Success)

	reg, ok := fx.pending.Get(email)
	require.True(t, ok)

	resp = fx.postJSON(t, "/api/verify", fiber.Map{"email": email, "code": reg.Code})
	require.True(t, decodeResult(t, resp).Success)
}

func (fx *apiFixture) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	resp := fx.postJSON(t, "/api/login", fiber.Map{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestAPI_RegisterVerifyLoginFlow(t *testing.T) {
	fx := newAPIFixture(t)
	fx.registerAndVerify(t, "alice", "a@x.com", "secret1")

	cookie := fx.login(t, "alice", "secret1")
	assert.NotEmpty(t, cookie.Value)

	resp := fx.postJSON(t, "/api/login", fiber.Map{"username": "alice", "password": "wrong"})
	res := decodeResult(t, resp)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Message)
}

func TestAPI_RegisterDuplicateUsername(t *testing.T) {
	fx := newAPIFixture(t)
	fx.registerAndVerify(t, "alice", "a@x.com", "secret1")

	resp := fx.postJSON(t, "/api/register", fiber.Map{
		"username": "ALICE", "email": "other@x.com", "password": "secret2",
	})
	res := decodeResult(t, resp)
	assert.False(t, res.Success)
	assert.Equal(t, "Username already exists", res.Message)
}

func TestAPI_RegisterMissingFields(t *testing.T) {
	fx := newAPIFixture(t)
	resp := fx.postJSON(t, "/api/register", fiber.Map{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_VerifyWrongCode(t *testing.T) {
	fx := newAPIFixture(t)
	resp := fx.postJSON(t, "/api/register", fiber.Map{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	})
	require.True(t, decodeResult(t, resp).Success)

	resp = fx.postJSON(t, "/api/verify", fiber.Map{"email": "a@x.com", "code": "00000000"})
	res := decodeResult(t, resp)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid or expired verification code", res.Message)
}

func TestAPI_ResetFlow(t *testing.T) {
	fx := newAPIFixture(t)
	fx.registerAndVerify(t, "alice", "a@x.com", "secret1")

	resp := fx.postJSON(t, "/api/request-reset", fiber.Map{"email": "a@x.com"})
	require.True(t, decodeResult(t, resp).Success)

	// the token travels only by mail; dig it out of the store for the test
	ctx := context.Background()
	rec, found, err := fx.dir.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, found)
	token, ok := rec.Get(snof.FieldResetToken)
	require.True(t, ok)

	resp = fx.postJSON(t, "/api/reset-password", fiber.Map{"token": token, "newPassword": "secret2"})
	require.True(t, decodeResult(t, resp).Success)

	fx.login(t, "alice", "secret2")

	// the consumed token is dead
	resp = fx.postJSON(t, "/api/reset-password", fiber.Map{"token": token, "newPassword": "secret3"})
	res := decodeResult(t, resp)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid or expired reset token", res.Message)
}

func TestAPI_RequestResetUnknownEmail(t *testing.T) {
	fx := newAPIFixture(t)
	resp := fx.postJSON(t, "/api/request-reset", fiber.Map{"email": "nobody@x.com"})
	res := decodeResult(t, resp)
	assert.False(t, res.Success)
	assert.Equal(t, "User not found", res.Message)
}

func TestAPI_ProfileRequiresSession(t *testing.T) {
	fx := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/profile", nil)
	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_ProfileUpload(t *testing.T) {
	fx := newAPIFixture(t)
	fx.registerAndVerify(t, "alice", "a@x.com", "secret1")
	cookie := fx.login(t, "alice", "secret1")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("pfpFile", "avatar.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0xFF, 0xD8, 0xFF})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profile", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(cookie)

	resp, err := fx.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "data:image/jpeg;base64,/9j/", body["newPfp"])

	rec, found, err := fx.dir.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	pfp, _ := rec.Get(snof.FieldAvatar)
	assert.Equal(t, "/9j/", pfp)
}

func TestAPI_ChatRoundTrip(t *testing.T) {
	fx := newAPIFixture(t)
	fx.registerAndVerify(t, "alice", "a@x.com", "secret1")
	cookie := fx.login(t, "alice", "secret1")

	resp := fx.postJSON(t, "/api/chat/messages", fiber.Map{
		"username": "alice", "pfp": "QUJD", "text": "hello",
	}, cookie)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// missing fields are rejected
	resp = fx.postJSON(t, "/api/chat/messages", fiber.Map{"username": "alice"}, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/messages", nil)
	req.AddCookie(cookie)
	getResp, err := fx.app.Test(req)
	require.NoError(t, err)
	defer getResp.Body.Close()

	var msgs []chat.Message
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestAPI_LogoutClearsCookie(t *testing.T) {
	fx := newAPIFixture(t)
	resp := fx.postJSON(t, "/api/logout", fiber.Map{})
	require.True(t, decodeResult(t, resp).Success)

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			assert.Empty(t, c.Value)
			return
		}
	}
	t.Fatal("expected an expired session cookie")
}
