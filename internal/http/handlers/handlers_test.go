package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/js24626/flexypay/internal/auth"
	"github.com/js24626/flexypay/internal/models"
	"github.com/js24626/flexypay/internal/models/dto"
	"github.com/js24626/flexypay/internal/storage/sqlite"
)

const (
	testAdminEmail    = "admin@flexypay.local"
	testAdminPassword = "admin-secret"
)

type testEnv struct {
	ts         *httptest.Server
	store      *sqlite.Store
	tokens     *auth.TokenManager
	adminToken string
}

func newTestEnv(t *testing.T, signupEnabled bool) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "flexypay-handlers-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewTokenManager("test-secret", "flexypay-test", time.Hour)

	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(store, tokens, signupEnabled).Register(mux)
	NewAgentHandler(store).Register(mux, tokens)
	NewUserHandler(store).Register(mux, tokens)
	NewInstallmentHandler(store).Register(mux, tokens)
	NewAmountHandler(store, models.AdminLedger).Register(mux, tokens)
	NewAmountHandler(store, models.AgentLedger).Register(mux, tokens)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	passwordHash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	admin, err := store.CreateUser(context.Background(), models.User{
		Email:        testAdminEmail,
		FullName:     "Admin",
		Role:         models.RoleAdmin,
		PasswordHash: passwordHash,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	adminToken, err := tokens.Generate(admin.ID, admin.Role, admin.Email)
	if err != nil {
		t.Fatalf("generate admin token: %v", err)
	}

	return &testEnv{ts: ts, store: store, tokens: tokens, adminToken: adminToken}
}

// do sends a JSON request with an optional bearer token and decodes the
// response body into out (when out is non-nil).
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) createAgent(t *testing.T, username, email, password string) models.Agent {
	t.Helper()
	var agent models.Agent
	status := e.do(t, http.MethodPost, "/agents", e.adminToken,
		map[string]string{"username": username, "email": email, "password": password}, &agent)
	if status != http.StatusCreated {
		t.Fatalf("create agent status = %d", status)
	}
	return agent
}

func (e *testEnv) agentLogin(t *testing.T, username, password string) dto.LoginResponse {
	t.Helper()
	var resp dto.LoginResponse
	status := e.do(t, http.MethodPost, "/auth/agent-login", "",
		map[string]string{"username": username, "password": password}, &resp)
	if status != http.StatusOK {
		t.Fatalf("agent login status = %d", status)
	}
	return resp
}

func TestLoginInvalidCredentialsShape(t *testing.T) {
	env := newTestEnv(t, false)

	var unknownBody, wrongBody map[string]string
	unknown := env.do(t, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "nobody@example.com", "password": "whatever"}, &unknownBody)
	wrong := env.do(t, http.MethodPost, "/auth/login", "",
		map[string]string{"email": testAdminEmail, "password": "not-the-password"}, &wrongBody)

	if unknown != http.StatusUnauthorized || wrong != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want 401/401", unknown, wrong)
	}
	if unknownBody["error"] != wrongBody["error"] {
		t.Errorf("error bodies differ: %q vs %q", unknownBody["error"], wrongBody["error"])
	}
	if unknownBody["error"] != "Invalid credentials" {
		t.Errorf("error = %q, want %q", unknownBody["error"], "Invalid credentials")
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, false)

	var resp dto.LoginResponse
	status := env.do(t, http.MethodPost, "/auth/login", "",
		map[string]string{"email": testAdminEmail, "password": testAdminPassword}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login status = %d", status)
	}
	if resp.Token == "" {
		t.Error("login response missing token")
	}
	if resp.User.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", resp.User.Role)
	}

	claims, err := env.tokens.Validate(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Email != testAdminEmail {
		t.Errorf("claims.Email = %q, want %q", claims.Email, testAdminEmail)
	}
}

// TestAgentEndToEnd follows the full agent flow: admin creates the agent, the
// agent logs in with its username, posts an amount, and the stored entry has
// the derived bakaya and the server-stamped creator.
func TestAgentEndToEnd(t *testing.T) {
	env := newTestEnv(t, false)

	env.createAgent(t, "ali", "a@x.com", "secret1")

	login := env.agentLogin(t, "ali", "secret1")
	if login.User.Role != models.RoleAgent {
		t.Fatalf("role = %q, want agent", login.User.Role)
	}

	var entry models.AmountEntry
	status := env.do(t, http.MethodPost, "/agent-amounts", login.Token,
		map[string]any{"amount": 500, "wasoolAmount": 200, "date": "2024-01-01"}, &entry)
	if status != http.StatusCreated {
		t.Fatalf("create amount status = %d", status)
	}
	if entry.BakayaAmount != 300 {
		t.Errorf("bakaya = %v, want 300", entry.BakayaAmount)
	}
	if entry.CreatedBy != "ali" {
		t.Errorf("createdBy = %q, want %q", entry.CreatedBy, "ali")
	}

	var mine []models.AmountEntry
	status = env.do(t, http.MethodGet, "/agent-amounts/my-amounts", login.Token, nil, &mine)
	if status != http.StatusOK {
		t.Fatalf("my-amounts status = %d", status)
	}
	if len(mine) != 1 || mine[0].ID != entry.ID {
		t.Errorf("my-amounts = %+v, want the created entry", mine)
	}

	// The full agent ledger is admin-only.
	if status := env.do(t, http.MethodGet, "/agent-amounts", login.Token, nil, nil); status != http.StatusForbidden {
		t.Errorf("agent listing full ledger status = %d, want 403", status)
	}
	var all []models.AmountEntry
	if status := env.do(t, http.MethodGet, "/agent-amounts", env.adminToken, nil, &all); status != http.StatusOK {
		t.Fatalf("admin listing status = %d", status)
	}
	if len(all) != 1 {
		t.Errorf("admin sees %d entries, want 1", len(all))
	}
}

// TestAgentLoginCaseInsensitive checks the username lookup ignores case.
func TestAgentLoginCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAgent(t, "Ali", "a@x.com", "secret1")

	login := env.agentLogin(t, "ALI", "secret1")
	if login.User.Username != "Ali" {
		t.Errorf("username = %q, want stored casing %q", login.User.Username, "Ali")
	}
}

func TestAmountValidation(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAgent(t, "ali", "a@x.com", "secret1")
	login := env.agentLogin(t, "ali", "secret1")

	t.Run("wasool exceeding total is rejected", func(t *testing.T) {
		var body map[string]string
		status := env.do(t, http.MethodPost, "/agent-amounts", login.Token,
			map[string]any{"amount": 100, "wasoolAmount": 150, "date": "2024-01-01"}, &body)
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
		if body["error"] == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/agent-amounts", login.Token,
			map[string]any{"amount": 100}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("negative amounts are rejected", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/agent-amounts", login.Token,
			map[string]any{"amount": -10, "wasoolAmount": 0}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("no record was persisted", func(t *testing.T) {
		var all []models.AmountEntry
		if status := env.do(t, http.MethodGet, "/agent-amounts", env.adminToken, nil, &all); status != http.StatusOK {
			t.Fatalf("listing status = %d", status)
		}
		if len(all) != 0 {
			t.Errorf("found %d entries after rejected writes, want 0", len(all))
		}
	})
}

func TestAdminAmountLifecycle(t *testing.T) {
	env := newTestEnv(t, false)

	var entry models.AmountEntry
	status := env.do(t, http.MethodPost, "/admin-amounts", env.adminToken,
		map[string]any{
			"username":     "ali",
			"amount":       100.1,
			"wasoolAmount": 33.33,
			"bakayaAmount": 999999, // advisory only; the server recomputes
			"date":         "2024-02-01",
		}, &entry)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if entry.BakayaAmount != 66.77 {
		t.Errorf("bakaya = %v, want 66.77", entry.BakayaAmount)
	}
	if entry.CreatedBy != "Admin" {
		t.Errorf("createdBy = %q, want Admin", entry.CreatedBy)
	}
	if entry.Username != "ali" {
		t.Errorf("username = %q, want ali", entry.Username)
	}

	t.Run("update re-derives bakaya", func(t *testing.T) {
		var updated models.AmountEntry
		status := env.do(t, http.MethodPut, "/admin-amounts/"+entry.ID, env.adminToken,
			map[string]any{"wasoolAmount": 50.1}, &updated)
		if status != http.StatusOK {
			t.Fatalf("update status = %d", status)
		}
		if updated.BakayaAmount != 50 {
			t.Errorf("bakaya = %v, want 50", updated.BakayaAmount)
		}
	})

	t.Run("update cannot break the invariant", func(t *testing.T) {
		status := env.do(t, http.MethodPut, "/admin-amounts/"+entry.ID, env.adminToken,
			map[string]any{"wasoolAmount": 500}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})

	t.Run("delete then delete again", func(t *testing.T) {
		if status := env.do(t, http.MethodDelete, "/admin-amounts/"+entry.ID, env.adminToken, nil, nil); status != http.StatusOK {
			t.Fatalf("delete status = %d", status)
		}
		if status := env.do(t, http.MethodDelete, "/admin-amounts/"+entry.ID, env.adminToken, nil, nil); status != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", status)
		}
	})
}

// TestInstallmentAssignmentUnknownAgent checks that assigning to a missing
// agent rejects the request and persists nothing.
func TestInstallmentAssignmentUnknownAgent(t *testing.T) {
	env := newTestEnv(t, false)

	var body map[string]string
	status := env.do(t, http.MethodPost, "/installments", env.adminToken,
		map[string]any{"title": "Jan", "amount": 1000, "date": "2024-01-05", "agentName": "ali"}, &body)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if body["error"] != "Agent not found" {
		t.Errorf("error = %q, want %q", body["error"], "Agent not found")
	}

	var all []models.Installment
	if status := env.do(t, http.MethodGet, "/installments", env.adminToken, nil, &all); status != http.StatusOK {
		t.Fatalf("listing status = %d", status)
	}
	if len(all) != 0 {
		t.Errorf("found %d installments, want 0", len(all))
	}
}

func TestInstallmentRoleScoping(t *testing.T) {
	env := newTestEnv(t, false)

	env.createAgent(t, "ali", "a@x.com", "secret1")
	env.createAgent(t, "sara", "s@x.com", "secret2")
	aliLogin := env.agentLogin(t, "ali", "secret1")
	saraLogin := env.agentLogin(t, "sara", "secret2")

	var aliInst, saraInst models.Installment
	for _, tc := range []struct {
		agentName string
		out       *models.Installment
	}{
		{"ali", &aliInst},
		{"sara", &saraInst},
	} {
		status := env.do(t, http.MethodPost, "/installments", env.adminToken,
			map[string]any{"title": "Jan", "amount": 1000, "date": "2024-01-05", "agentName": tc.agentName}, tc.out)
		if status != http.StatusCreated {
			t.Fatalf("create for %s status = %d", tc.agentName, status)
		}
	}

	t.Run("agents see only their own", func(t *testing.T) {
		var mine []models.Installment
		if status := env.do(t, http.MethodGet, "/installments", aliLogin.Token, nil, &mine); status != http.StatusOK {
			t.Fatalf("listing status = %d", status)
		}
		if len(mine) != 1 || mine[0].ID != aliInst.ID {
			t.Errorf("ali sees %+v, want only %s", mine, aliInst.ID)
		}
	})

	t.Run("admin sees everything", func(t *testing.T) {
		var all []models.Installment
		if status := env.do(t, http.MethodGet, "/installments", env.adminToken, nil, &all); status != http.StatusOK {
			t.Fatalf("listing status = %d", status)
		}
		if len(all) != 2 {
			t.Errorf("admin sees %d installments, want 2", len(all))
		}
	})

	t.Run("fetching another agent's record is forbidden", func(t *testing.T) {
		if status := env.do(t, http.MethodGet, "/installments/"+aliInst.ID, saraLogin.Token, nil, nil); status != http.StatusForbidden {
			t.Errorf("status = %d, want 403", status)
		}
	})

	t.Run("owner can fetch their record", func(t *testing.T) {
		var got models.Installment
		if status := env.do(t, http.MethodGet, "/installments/"+aliInst.ID, aliLogin.Token, nil, &got); status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}
		if got.AgentName != "ali" {
			t.Errorf("agentName = %q, want ali", got.AgentName)
		}
	})

	t.Run("mutations are admin-only", func(t *testing.T) {
		if status := env.do(t, http.MethodPut, "/installments/"+aliInst.ID, aliLogin.Token,
			map[string]any{"status": "approved"}, nil); status != http.StatusForbidden {
			t.Errorf("agent update status = %d, want 403", status)
		}
		if status := env.do(t, http.MethodDelete, "/installments/"+saraInst.ID, aliLogin.Token, nil, nil); status != http.StatusForbidden {
			t.Errorf("agent delete status = %d, want 403", status)
		}
	})
}

func TestInstallmentStatusOneWay(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAgent(t, "ali", "a@x.com", "secret1")

	var inst models.Installment
	status := env.do(t, http.MethodPost, "/installments", env.adminToken,
		map[string]any{"title": "Jan", "amount": 1000, "agentName": "ali"}, &inst)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if inst.Status != models.StatusPending {
		t.Fatalf("initial status = %q, want pending", inst.Status)
	}

	var approved models.Installment
	if status := env.do(t, http.MethodPut, "/installments/"+inst.ID, env.adminToken,
		map[string]any{"status": "approved"}, &approved); status != http.StatusOK {
		t.Fatalf("approve status = %d", status)
	}
	if approved.Status != models.StatusApproved {
		t.Fatalf("status = %q, want approved", approved.Status)
	}

	if status := env.do(t, http.MethodPut, "/installments/"+inst.ID, env.adminToken,
		map[string]any{"status": "pending"}, nil); status != http.StatusBadRequest {
		t.Errorf("revert status = %d, want 400", status)
	}
}

func TestAuthGates(t *testing.T) {
	env := newTestEnv(t, false)
	env.createAgent(t, "ali", "a@x.com", "secret1")
	login := env.agentLogin(t, "ali", "secret1")

	t.Run("missing token", func(t *testing.T) {
		if status := env.do(t, http.MethodGet, "/installments", "", nil, nil); status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if status := env.do(t, http.MethodGet, "/installments", "not-a-token", nil, nil); status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := auth.NewTokenManager("test-secret", "flexypay-test", -time.Minute)
		token, err := expired.Generate("x", models.RoleAdmin, "x@example.com")
		if err != nil {
			t.Fatalf("generate expired token: %v", err)
		}
		if status := env.do(t, http.MethodGet, "/installments", token, nil, nil); status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("non-admin on admin routes", func(t *testing.T) {
		for _, path := range []string{"/users", "/agents", "/admin-amounts"} {
			if status := env.do(t, http.MethodGet, path, login.Token, nil, nil); status != http.StatusForbidden {
				t.Errorf("GET %s status = %d, want 403", path, status)
			}
		}
	})
}

func TestAgentManagement(t *testing.T) {
	env := newTestEnv(t, false)
	agent := env.createAgent(t, "ali", "a@x.com", "secret1")

	t.Run("response never carries a password", func(t *testing.T) {
		var raw map[string]any
		status := env.do(t, http.MethodGet, "/agents", env.adminToken, nil, nil)
		if status != http.StatusOK {
			t.Fatalf("list status = %d", status)
		}
		body, err := json.Marshal(agent)
		if err != nil {
			t.Fatalf("marshal agent: %v", err)
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Fatalf("unmarshal agent: %v", err)
		}
		for key := range raw {
			if key == "password" || key == "passwordHash" || key == "password_hash" {
				t.Errorf("agent JSON leaks %q", key)
			}
		}
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		status := env.do(t, http.MethodPost, "/agents", env.adminToken,
			map[string]string{"username": "ALI", "email": "other@x.com", "password": "pw123"}, nil)
		if status != http.StatusConflict {
			t.Errorf("status = %d, want 409", status)
		}
	})

	t.Run("delete agent", func(t *testing.T) {
		if status := env.do(t, http.MethodDelete, "/agents/"+agent.ID, env.adminToken, nil, nil); status != http.StatusOK {
			t.Fatalf("delete status = %d", status)
		}
		if status := env.do(t, http.MethodDelete, "/agents/"+agent.ID, env.adminToken, nil, nil); status != http.StatusNotFound {
			t.Errorf("second delete status = %d, want 404", status)
		}
	})
}

func TestSignup(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		env := newTestEnv(t, false)
		status := env.do(t, http.MethodPost, "/auth/signup", "",
			map[string]string{"email": "u@example.com", "password": "secret123", "full_name": "U"}, nil)
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		env := newTestEnv(t, true)

		var resp dto.LoginResponse
		status := env.do(t, http.MethodPost, "/auth/signup", "",
			map[string]string{"email": "u@example.com", "password": "secret123", "full_name": "U"}, &resp)
		if status != http.StatusOK {
			t.Fatalf("signup status = %d", status)
		}
		if resp.User.Role != models.RoleUser {
			t.Errorf("role = %q, want user", resp.User.Role)
		}
		if resp.Token == "" {
			t.Error("signup response missing token")
		}

		dupe := env.do(t, http.MethodPost, "/auth/signup", "",
			map[string]string{"email": "u@example.com", "password": "secret123", "full_name": "U"}, nil)
		if dupe != http.StatusConflict {
			t.Errorf("duplicate signup status = %d, want 409", dupe)
		}

		// Signed-up users create self-owned installments and see only theirs.
		var inst models.Installment
		if status := env.do(t, http.MethodPost, "/installments", resp.Token,
			map[string]any{"title": "Mine", "amount": 50}, &inst); status != http.StatusCreated {
			t.Fatalf("user create installment status = %d", status)
		}
		if inst.OwnerID != resp.User.ID {
			t.Errorf("ownerId = %q, want caller id %q", inst.OwnerID, resp.User.ID)
		}
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	var body map[string]string
	if status := env.do(t, http.MethodGet, "/health", "", nil, &body); status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestMethodNotMatched(t *testing.T) {
	env := newTestEnv(t, false)
	status := env.do(t, http.MethodGet, "/auth/login", "", nil, nil)
	if status != http.StatusMethodNotAllowed {
		t.Errorf("GET /auth/login status = %d, want 405", status)
	}
}
