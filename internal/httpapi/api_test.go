package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"taskora.org/internal/auth"
	"taskora.org/internal/todo"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
}

func newTestAPI(t *testing.T, opts ...Option) *apiClient {
	t.Helper()

	hasher := auth.NewHasher(auth.Params{Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1})
	codec, err := auth.NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	userStore := auth.NewInMemory()
	authSvc, err := auth.NewService(userStore, hasher, codec)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	resolver, err := auth.NewResolver(codec, userStore)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	todoSvc, err := todo.NewService(todo.NewInMemory())
	if err != nil {
		t.Fatalf("todo.NewService: %v", err)
	}

	api := New(ReadyProbe{}, "test", authSvc, resolver, todoSvc,
		append([]Option{WithRateLimit(1000, 1000)}, opts...)...)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) put(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *apiClient) delete(path string, headers map[string]string) *http.Response {
	return c.do(http.MethodDelete, path, nil, headers)
}

func (c *apiClient) register(username, password, role string) {
	c.t.Helper()
	resp := c.post("/auth/register", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
		"role":     role,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register %s: unexpected status %d", username, resp.StatusCode)
	}
}

// login posts the form-encoded credential exchange and returns the bearer
// header for subsequent calls.
func (c *apiClient) login(username, password string) map[string]string {
	c.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp, err := c.client.Post(c.baseURL+"/auth/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		c.t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login %s: unexpected status %d", username, resp.StatusCode)
	}
	payload := struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode token response: %v", err)
	}
	if payload.AccessToken == "" || payload.TokenType != "bearer" {
		c.t.Fatalf("unexpected token payload: %+v", payload)
	}
	return map[string]string{"Authorization": "Bearer " + payload.AccessToken}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get("/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" || body["service"] != "taskora-api" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice", "password1", "")
	header := api.login("alice", "password1")

	resp := api.get("/user/me", header)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	me := decode[map[string]any](t, resp)
	if me["username"] != "alice" || me["role"] != "user" {
		t.Fatalf("unexpected profile: %v", me)
	}
	if _, leaked := me["hashed_password"]; leaked {
		t.Fatal("hashed password leaked into profile response")
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice", "password1", "")

	resp := api.post("/auth/register", map[string]any{
		"username": "alice",
		"email":    "second@example.com",
		"password": "password1",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "Username already exists." {
		t.Fatalf("unexpected error: %v", body["error"])
	}

	resp = api.post("/auth/register", map[string]any{
		"username": "bob",
		"email":    "alice@example.com",
		"password": "password1",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body = decode[map[string]any](t, resp)
	if body["error"] != "Email already exists." {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice", "password1", "")

	attempt := func(username, password string) (int, string, string) {
		form := url.Values{"username": {username}, "password": {password}}
		resp, err := api.client.Post(api.baseURL+"/auth/token",
			"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		if err != nil {
			t.Fatalf("login request: %v", err)
		}
		body := decode[map[string]any](t, resp)
		msg, _ := body["error"].(string)
		return resp.StatusCode, msg, resp.Header.Get("WWW-Authenticate")
	}

	wrongCode, wrongMsg, wrongHdr := attempt("alice", "not-the-password")
	ghostCode, ghostMsg, ghostHdr := attempt("nobody", "password1")

	if wrongCode != http.StatusUnauthorized || ghostCode != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401", wrongCode, ghostCode)
	}
	if wrongMsg != "Could not validate user." || wrongMsg != ghostMsg {
		t.Fatalf("messages differ: %q vs %q", wrongMsg, ghostMsg)
	}
	if wrongHdr != "Bearer" || ghostHdr != "Bearer" {
		t.Fatalf("WWW-Authenticate = %q, %q", wrongHdr, ghostHdr)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/user/me", "/todos", "/admin/users"} {
		resp := api.get(path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
		body := decode[map[string]any](t, resp)
		if body["error"] != "Could not validate user." {
			t.Fatalf("%s: unexpected error %v", path, body["error"])
		}
	}

	resp := api.get("/todos", map[string]string{"Authorization": "Bearer not-a-real-token"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestChangePasswordEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice", "password1", "")
	header := api.login("alice", "password1")

	resp := api.put("/user/password", map[string]any{
		"old_password": "password1",
		"new_password": "password1",
	}, header)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("same password: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.put("/user/password", map[string]any{
		"old_password": "wrong-old",
		"new_password": "password2",
	}, header)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong old password: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.put("/user/password", map[string]any{
		"old_password": "password1",
		"new_password": "password2",
	}, header)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	api.login("alice", "password2")
}

func TestTodoCRUDAndOwnership(t *testing.T) {
	api := newTestAPI(t)
	api.register("alice", "password1", "")
	api.register("bob", "password1", "")
	aliceHdr := api.login("alice", "password1")
	bobHdr := api.login("bob", "password1")

	resp := api.post("/todos", map[string]any{
		"title":       "buy milk",
		"description": "from the corner shop",
		"priority":    3,
	}, aliceHdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	body := decode[map[string]any](t, resp)
	if body["message"] != "Todo created successfully." {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if location == "" {
		t.Fatal("missing Location header")
	}

	resp = api.get(location, aliceHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", resp.StatusCode)
	}
	item := decode[map[string]any](t, resp)
	if item["title"] != "buy milk" {
		t.Fatalf("unexpected todo: %v", item)
	}

	// Bob probing Alice's todo sees exactly a missing resource.
	resp = api.get(location, bobHdr)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign get: expected 404, got %d", resp.StatusCode)
	}
	foreign := decode[map[string]any](t, resp)
	resp = api.get("/todos/9999", bobHdr)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing get: expected 404, got %d", resp.StatusCode)
	}
	missing := decode[map[string]any](t, resp)
	if foreign["error"] != "Todo not found." || foreign["error"] != missing["error"] {
		t.Fatalf("ownership failure distinguishable: %v vs %v", foreign["error"], missing["error"])
	}

	resp = api.put(location, map[string]any{"complete": true}, aliceHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	if updated["complete"] != true {
		t.Fatalf("update did not apply: %v", updated)
	}

	resp = api.delete(location, bobHdr)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.delete(location, aliceHdr)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/todos", aliceHdr)
	list := decode[[]map[string]any](t, resp)
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.register("root", "password1", "admin")
	api.register("alice", "password1", "")
	rootHdr := api.login("root", "password1")
	aliceHdr := api.login("alice", "password1")

	// Plain users are forbidden with the canonical message.
	resp := api.get("/admin/users", aliceHdr)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != "Operation requires administrator privileges." {
		t.Fatalf("unexpected error: %v", body["error"])
	}

	resp = api.get("/admin/users?role=user&username=al&is_active=true", rootHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	users := decode[[]map[string]any](t, resp)
	if len(users) != 1 || users[0]["username"] != "alice" {
		t.Fatalf("unexpected users: %v", users)
	}
	aliceID := int64(users[0]["id"].(float64))

	// Deactivate alice; her live token must stop working immediately.
	resp = api.put("/admin/users/"+strconv.FormatInt(aliceID, 10), map[string]any{"is_active": false}, rootHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/user/me", aliceHdr)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("deactivated user: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/admin/users/"+strconv.FormatInt(aliceID, 10)+"/todos", rootHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("user todos: expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.delete("/admin/users/"+strconv.FormatInt(aliceID, 10), rootHdr)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/admin/users/"+strconv.FormatInt(aliceID, 10), rootHdr)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted user: expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminTodoLookup(t *testing.T) {
	api := newTestAPI(t)
	api.register("root", "password1", "admin")
	api.register("alice", "password1", "")
	rootHdr := api.login("root", "password1")
	aliceHdr := api.login("alice", "password1")

	resp := api.post("/todos", map[string]any{
		"title":       "private task",
		"description": "only alice can see this",
		"priority":    2,
	}, aliceHdr)
	location := resp.Header.Get("Location")
	resp.Body.Close()

	id := "/admin/todos/" + location[len("/todos/"):]
	resp = api.get(id, rootHdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin get: expected 200, got %d", resp.StatusCode)
	}
	item := decode[map[string]any](t, resp)
	if item["title"] != "private task" {
		t.Fatalf("unexpected todo: %v", item)
	}

	resp = api.get(id, aliceHdr)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBodyLimitIsConfigurable(t *testing.T) {
	api := newTestAPI(t, WithMaxBodyBytes(4<<20))

	// A body just past 1 MiB must reach the decoder when the configured
	// limit is higher. The oversized password then fails field validation,
	// which proves the whole body was read rather than truncated.
	big := strings.Repeat("x", (1<<20)+512)
	resp := api.post("/auth/register", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": big,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "password") {
		t.Fatalf("body capped below the configured limit: %q", msg)
	}
}

func TestRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	resp := api.post("/auth/register", map[string]any{
		"username":  "alice",
		"email":     "alice@example.com",
		"password":  "password1",
		"is_superb": true,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
