package routes

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/store"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
	ErrMsg string          `json:"err_msg"`
}

type account struct {
	ID                   uint64 `json:"id"`
	Email                string `json:"email"`
	AccountTypeName      string `json:"user_account_type_name"`
	SocialSignupTypeName string `json:"social_signup_type_name"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func fakeKakao(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/oauth/token" && r.FormValue("code") == "good":
			io.WriteString(w, `{"token_type":"bearer","access_token":"kakao-access","expires_in":3600}`)
		case r.URL.Path == "/oauth/token":
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"invalid_grant","error_code":"KOE320"}`)
		case r.URL.Path == "/v2/user/me" && r.Header.Get("Authorization") == "Bearer kakao-access":
			io.WriteString(w, `{"id":1,"kakao_account":{"email":"k@kakao.com"}}`)
		case r.URL.Path == "/v2/user/me":
			io.WriteString(w, `{"id":2,"kakao_account":{}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestApp(t *testing.T, kakao config.KakaoConfig) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})
	app.Use(middleware.Metrics())

	accounts := services.NewAccountService(store.NewUserStore(db), &config.Config{})
	Setup(app, Handlers{
		Accounts: handlers.NewAccountHandler(accounts),
		Kakao:    handlers.NewKakaoHandler(services.NewKakaoClient(kakao), "/login-error"),
		Health:   handlers.NewHealthHandler(db),
	}, 0)
	return app, db
}

func kakaoConfig(host string) config.KakaoConfig {
	return config.KakaoConfig{
		Host:              host,
		APIHost:           host,
		ClientID:          "rest-key",
		SignUpRedirectURI: "https://app.example.com/sign-up/callback",
		RedirectURI:       "https://app.example.com/sign-in/callback",
		Timeout:           2 * time.Second,
	}
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, envelope, *http.Response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, env, resp
}

func TestAccountLifecycle(t *testing.T) {
	app, db := newTestApp(t, kakaoConfig("https://kauth.example.com"))

	status, env, _ := do(t, app, http.MethodPost, "/accounts", `{"email":"a@x.com","password":"pw","social_signup_type":0}`)
	if status != fiber.StatusCreated || env.Msg != handlers.MsgSuccess {
		t.Fatalf("sign-up: %d %+v", status, env)
	}
	var created account
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if created.Email != "a@x.com" || created.AccountTypeName != "Consumer" || created.SocialSignupTypeName != "None" {
		t.Errorf("unexpected projection %+v", created)
	}
	if strings.Contains(string(env.Data), "password") {
		t.Errorf("projection leaks password: %s", env.Data)
	}

	status, env, _ = do(t, app, http.MethodPost, "/accounts", `{"email":"a@x.com","password":"pw","social_signup_type":"0"}`)
	if status != fiber.StatusBadRequest || env.ErrMsg != services.ErrAccountExists.Error() {
		t.Errorf("duplicate sign-up: %d %+v", status, env)
	}

	status, env, _ = do(t, app, http.MethodPost, "/accounts/sign-in", `{"email":"a@x.com","password":"pw","social_signup_type":0}`)
	if status != fiber.StatusOK || env.Msg != handlers.MsgSuccess {
		t.Errorf("sign-in: %d %+v", status, env)
	}

	status, _, _ = do(t, app, http.MethodPost, "/accounts/sign-in", `{"email":"a@x.com","password":"nope","social_signup_type":0}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("wrong password: expected 400, got %d", status)
	}

	status, _, _ = do(t, app, http.MethodPost, "/accounts/sign-in", `{"email":"who@x.com","password":"pw","social_signup_type":0}`)
	if status != fiber.StatusConflict {
		t.Errorf("unknown email: expected 409, got %d", status)
	}

	status, env, _ = do(t, app, http.MethodGet, fmt.Sprintf("/accounts/%d", created.ID), "")
	if status != fiber.StatusOK {
		t.Errorf("retrieve: %d %+v", status, env)
	}

	var user models.User
	db.First(&user, created.ID)
	if user.LoginCount != 1 || user.LastLoginAt == nil {
		t.Errorf("login not recorded: count=%d last=%v", user.LoginCount, user.LastLoginAt)
	}

	db.Model(&models.User{}).Where("id = ?", created.ID).Update("is_deleted", true)

	status, _, _ = do(t, app, http.MethodPost, "/accounts", `{"email":"a@x.com","password":"pw","social_signup_type":0}`)
	if status != fiber.StatusNoContent {
		t.Errorf("sign-up over soft-deleted: expected 204, got %d", status)
	}
	status, _, _ = do(t, app, http.MethodPost, "/accounts/sign-in", `{"email":"a@x.com","password":"pw","social_signup_type":0}`)
	if status != fiber.StatusForbidden {
		t.Errorf("sign-in soft-deleted: expected 403, got %d", status)
	}
}

func TestSignUpValidation(t *testing.T) {
	app, _ := newTestApp(t, kakaoConfig("https://kauth.example.com"))

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing password", `{"email":"b@x.com","social_signup_type":0}`, "password is required"},
		{"blank email", `{"email":" ","password":"pw","social_signup_type":0}`, "email is required"},
		{"missing social type", `{"email":"b@x.com","password":"pw"}`, ""},
		{"unknown social type", `{"email":"b@x.com","password":"pw","social_signup_type":9}`, ""},
		{"not json", `{"email":`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, _ := do(t, app, http.MethodPost, "/accounts", tt.body)
			if status != fiber.StatusBadRequest {
				t.Fatalf("expected 400, got %d %+v", status, env)
			}
			if env.ErrMsg == "" || (tt.wantMsg != "" && env.ErrMsg != tt.wantMsg) {
				t.Errorf("unexpected err_msg %q", env.ErrMsg)
			}
		})
	}
}

func TestRetrieveAndList(t *testing.T) {
	app, _ := newTestApp(t, kakaoConfig("https://kauth.example.com"))

	status, env, _ := do(t, app, http.MethodGet, "/accounts", "")
	if status != fiber.StatusOK || env.Msg != handlers.MsgNoContent {
		t.Errorf("empty list: %d %+v", status, env)
	}

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"email":"u%d@x.com","social_signup_type":1}`, i)
		if status, env, _ := do(t, app, http.MethodPost, "/accounts", body); status != fiber.StatusCreated {
			t.Fatalf("seed %d: %d %+v", i, status, env)
		}
	}

	status, env, _ = do(t, app, http.MethodGet, "/accounts?page=2&page_size=2", "")
	if status != fiber.StatusOK || env.Msg != handlers.MsgSuccess {
		t.Fatalf("list: %d %+v", status, env)
	}
	var page struct {
		Count    int64     `json:"count"`
		Page     int       `json:"page"`
		PageSize int       `json:"page_size"`
		Results  []account `json:"results"`
	}
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Count != 3 || page.Page != 2 || page.PageSize != 2 || len(page.Results) != 1 {
		t.Errorf("unexpected page %+v", page)
	}
	if page.Results[0].SocialSignupTypeName != "Kakao" {
		t.Errorf("unexpected social label %q", page.Results[0].SocialSignupTypeName)
	}

	status, env, _ = do(t, app, http.MethodGet, "/accounts?page=9&page_size=2", "")
	if status != fiber.StatusOK || env.Msg != handlers.MsgSuccess {
		t.Errorf("page past the end of a non-empty list: %d %+v", status, env)
	}

	if status, _, _ := do(t, app, http.MethodGet, "/accounts/abc", ""); status != fiber.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", status)
	}
	if status, _, _ := do(t, app, http.MethodGet, "/accounts/999", ""); status != fiber.StatusNotFound {
		t.Errorf("missing id: expected 404, got %d", status)
	}
}

func TestStoreFailureIsInternalError(t *testing.T) {
	app, db := newTestApp(t, kakaoConfig("https://kauth.example.com"))
	sqlDB, _ := db.DB()
	sqlDB.Close()

	status, env, _ := do(t, app, http.MethodPost, "/accounts/sign-in", `{"email":"a@x.com","password":"pw","social_signup_type":0}`)
	if status != fiber.StatusInternalServerError || env.ErrMsg != "Internal server error" {
		t.Errorf("expected opaque 500, got %d %+v", status, env)
	}

	status, _, _ = do(t, app, http.MethodGet, "/health", "")
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("health with closed db: expected 503, got %d", status)
	}
}

func TestKakaoAuthorizeRedirect(t *testing.T) {
	app, _ := newTestApp(t, kakaoConfig("https://kauth.example.com"))

	status, _, resp := do(t, app, http.MethodGet, "/accounts/sign-up/kakao", "")
	if status != fiber.StatusFound {
		t.Fatalf("expected 302, got %d", status)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "https://kauth.example.com/oauth/authorize?") {
		t.Errorf("unexpected location %q", loc)
	}

	broken, _ := newTestApp(t, config.KakaoConfig{})
	status, _, resp = do(t, broken, http.MethodGet, "/accounts/sign-in/kakao", "")
	if status != fiber.StatusFound || resp.Header.Get("Location") != "/login-error" {
		t.Errorf("expected fallback redirect, got %d %q", status, resp.Header.Get("Location"))
	}
}

func TestKakaoCallbackAndProfile(t *testing.T) {
	server := fakeKakao(t)
	app, _ := newTestApp(t, kakaoConfig(server.URL))

	status, env, _ := do(t, app, http.MethodGet, "/accounts/sign-up/kakao-callback?code=good", "")
	if status != fiber.StatusOK || !strings.Contains(string(env.Data), `"access_token":"kakao-access"`) {
		t.Errorf("callback: %d %+v", status, env)
	}

	status, env, _ = do(t, app, http.MethodGet, "/accounts/sign-up/kakao-callback?code=stale", "")
	if status != fiber.StatusServiceUnavailable || !strings.Contains(env.ErrMsg, services.ErrProviderRejected.Error()) {
		t.Errorf("rejected exchange: %d %+v", status, env)
	}

	status, _, _ = do(t, app, http.MethodGet, "/accounts/sign-in/kakao-callback", "")
	if status != fiber.StatusBadRequest {
		t.Errorf("missing code: expected 400, got %d", status)
	}

	status, env, _ = do(t, app, http.MethodPost, "/accounts/sign-up/kakao-profile", `{"access_token":"kakao-access"}`)
	if status != fiber.StatusOK || !strings.Contains(string(env.Data), `"email":"k@kakao.com"`) {
		t.Errorf("profile: %d %+v", status, env)
	}

	status, env, _ = do(t, app, http.MethodPost, "/accounts/sign-up/kakao-profile", `{"access_token":"other"}`)
	if status != fiber.StatusBadRequest || env.ErrMsg != services.ErrProfileFieldMissing.Error() {
		t.Errorf("profile without email: %d %+v", status, env)
	}

	status, env, _ = do(t, app, http.MethodPost, "/accounts/sign-up/kakao-profile", `{}`)
	if status != fiber.StatusBadRequest || env.ErrMsg != "access_token is required" {
		t.Errorf("profile without token: %d %+v", status, env)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, kakaoConfig("https://kauth.example.com"))

	if status, _, _ := do(t, app, http.MethodGet, "/health", ""); status != fiber.StatusOK {
		t.Errorf("health: expected 200, got %d", status)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(body), `http_requests_total{method="GET",path="/health",status="200"}`) {
		t.Errorf("metrics missing request counter: %d", resp.StatusCode)
	}
}
