package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"keycloak-gateway/app/domain"
	"keycloak-gateway/app/mocks"
	"keycloak-gateway/app/rest/handlers"
)

const (
	testFrontendURL  = "https://app.example.com"
	testFrontendHost = "app.example.com"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testBundle() *domain.TokenBundle {
	return &domain.TokenBundle{
		AccessToken:      "new-access",
		ExpiresIn:        300,
		RefreshToken:     "new-refresh",
		RefreshExpiresIn: 1800,
		TokenType:        "Bearer",
	}
}

func newAuthHandler(t *testing.T) (*handlers.AuthHandler, *mocks.MockIdentityProvider, *mocks.MockProfileRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	idp := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileRepository(ctrl)
	h := handlers.NewAuthHandler(idp, profiles, testFrontendURL, testFrontendHost, testLogger())
	return h, idp, profiles
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func setIdentity(c echo.Context, identity *domain.UserIdentity) {
	c.Set("user_identity", identity)
}

func TestAuthHandler_Login(t *testing.T) {
	h, idp, _ := newAuthHandler(t)
	idp.EXPECT().AuthCodeURL().Return("https://keycloak.example.com/realms/myrealm/protocol/openid-connect/auth?client_id=gateway")

	c, rec := newJSONContext(http.MethodGet, "/v1/auth/login", "")
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://keycloak.example.com/realms/myrealm/protocol/openid-connect/auth?client_id=gateway", rec.Header().Get(echo.HeaderLocation))
}

func TestAuthHandler_Callback(t *testing.T) {
	t.Run("valid code sets token cookies and redirects", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().ExchangeCode(gomock.Any(), "auth-code").Return(testBundle(), nil)

		c, rec := newJSONContext(http.MethodGet, "/v1/auth/callback?code=auth-code", "")
		require.NoError(t, h.Callback(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, testFrontendURL, rec.Header().Get(echo.HeaderLocation))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 5)

		wantValues := map[string]string{
			"access_token":       "new-access",
			"expires_in":         "300",
			"refresh_token":      "new-refresh",
			"refresh_expires_in": "1800",
			"token_type":         "Bearer",
		}
		for _, cookie := range cookies {
			want, ok := wantValues[cookie.Name]
			require.True(t, ok, "unexpected cookie %q", cookie.Name)
			assert.Equal(t, want, cookie.Value)
			assert.Equal(t, 3600, cookie.MaxAge, "cookie %q", cookie.Name)
			assert.True(t, cookie.Secure, "cookie %q", cookie.Name)
			assert.True(t, cookie.HttpOnly, "cookie %q", cookie.Name)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite, "cookie %q", cookie.Name)
			assert.Equal(t, "."+testFrontendHost, cookie.Domain, "cookie %q", cookie.Name)
			assert.Equal(t, "/", cookie.Path, "cookie %q", cookie.Name)
			delete(wantValues, cookie.Name)
		}
		assert.Empty(t, wantValues)
	})

	t.Run("missing code returns 400", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodGet, "/v1/auth/callback", "")
		require.NoError(t, h.Callback(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Missing code parameter"}`, rec.Body.String())
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("rejected code maps to invalid grant", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().ExchangeCode(gomock.Any(), "stale-code").
			Return(nil, fmt.Errorf("exchange: %w", domain.ErrInvalidGrant))

		c, rec := newJSONContext(http.MethodGet, "/v1/auth/callback?code=stale-code", "")
		require.NoError(t, h.Callback(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Invalid grant or token."}`, rec.Body.String())
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("valid refresh token returns new bundle", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().Refresh(gomock.Any(), "old-refresh").Return(testBundle(), nil)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"old-refresh"}`)
		require.NoError(t, h.Refresh(c))

		assert.Equal(t, http.StatusOK, rec.Code)

		var bundle domain.TokenBundle
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
		assert.Equal(t, "new-access", bundle.AccessToken)
		assert.Equal(t, 300, bundle.ExpiresIn)
		assert.Equal(t, "new-refresh", bundle.RefreshToken)
		assert.Equal(t, 1800, bundle.RefreshExpiresIn)
		assert.Equal(t, "Bearer", bundle.TokenType)
	})

	t.Run("rejected refresh token returns 401", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().Refresh(gomock.Any(), "revoked").
			Return(nil, fmt.Errorf("refresh: %w", domain.ErrInvalidGrant))

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"revoked"}`)
		require.NoError(t, h.Refresh(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Invalid grant or token."}`, rec.Body.String())
	})

	t.Run("missing refresh token returns 400 without calling the idp", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh", `{}`)
		require.NoError(t, h.Refresh(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("idp failure returns 500 with detail", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().Refresh(gomock.Any(), "rt").
			Return(nil, fmt.Errorf("keycloak unreachable"))

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"rt"}`)
		require.NoError(t, h.Refresh(c))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail":"An unexpected error occurred","error":"keycloak unreachable"}`, rec.Body.String())
	})
}

func TestAuthHandler_UserInfo(t *testing.T) {
	identity := domain.NewUserIdentity("sub-123", map[string]any{
		"given_name":         "Ada",
		"family_name":        "Lovelace",
		"preferred_username": "ada",
		"email":              "ada@example.com",
	})

	t.Run("without profile the picture is null", func(t *testing.T) {
		h, _, profiles := newAuthHandler(t)
		profiles.EXPECT().GetBySubject(gomock.Any(), "sub-123").
			Return(nil, domain.ErrProfileNotFound)

		c, rec := newJSONContext(http.MethodGet, "/v1/auth/userinfo", "")
		setIdentity(c, identity)
		require.NoError(t, h.UserInfo(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"sub": "sub-123",
			"given_name": "Ada",
			"family_name": "Lovelace",
			"preferred_username": "ada",
			"email": "ada@example.com",
			"profile_picture": null
		}`, rec.Body.String())
	})

	t.Run("with stored picture the reference is included", func(t *testing.T) {
		h, _, profiles := newAuthHandler(t)
		profiles.EXPECT().GetBySubject(gomock.Any(), "sub-123").
			Return(&domain.UserProfile{
				UUID:               "sub-123",
				Email:              "ada@example.com",
				ProfilePicture:     []byte{0xff, 0xd8},
				PictureContentType: "image/jpeg",
			}, nil)

		c, rec := newJSONContext(http.MethodGet, "/v1/auth/userinfo", "")
		setIdentity(c, identity)
		require.NoError(t, h.UserInfo(c))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp handlers.UserInfoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.ProfilePicture)
		assert.Equal(t, "/v1/profile/picture", *resp.ProfilePicture)
	})

	t.Run("missing identity returns 401", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodGet, "/v1/auth/userinfo", "")
		require.NoError(t, h.UserInfo(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Authentication failed."}`, rec.Body.String())
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("successful logout returns 204", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().Logout(gomock.Any(), "refresh-token").Return(nil)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout", `{"refresh_token":"refresh-token"}`)
		require.NoError(t, h.Logout(c))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("rejected refresh token returns 401", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().Logout(gomock.Any(), "revoked").
			Return(fmt.Errorf("logout: %w", domain.ErrInvalidGrant))

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout", `{"refresh_token":"revoked"}`)
		require.NoError(t, h.Logout(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Invalid grant or token."}`, rec.Body.String())
	})

	t.Run("empty body returns 400", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/logout", `{}`)
		require.NoError(t, h.Logout(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_SimpleLogin(t *testing.T) {
	t.Run("valid credentials return a bundle", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().PasswordLogin(gomock.Any(), "ada@example.com", "secret", "").
			Return(testBundle(), nil)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/login-simple",
			`{"username_or_email":"ada@example.com","password":"secret"}`)
		require.NoError(t, h.SimpleLogin(c))

		assert.Equal(t, http.StatusOK, rec.Code)

		var bundle domain.TokenBundle
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
		assert.Equal(t, "new-access", bundle.AccessToken)
	})

	t.Run("totp code is forwarded", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().PasswordLogin(gomock.Any(), "ada", "secret", "123456").
			Return(testBundle(), nil)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/login-simple",
			`{"username_or_email":"ada","password":"secret","totp":"123456"}`)
		require.NoError(t, h.SimpleLogin(c))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		h, idp, _ := newAuthHandler(t)
		idp.EXPECT().PasswordLogin(gomock.Any(), "ada", "wrong", "").
			Return(nil, fmt.Errorf("password grant: %w", domain.ErrAuthenticationFailed))

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/login-simple",
			`{"username_or_email":"ada","password":"wrong"}`)
		require.NoError(t, h.SimpleLogin(c))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Authentication failed."}`, rec.Body.String())
	})

	t.Run("malformed totp returns 400 without calling the idp", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/login-simple",
			`{"username_or_email":"ada","password":"secret","totp":"12"}`)
		require.NoError(t, h.SimpleLogin(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp handlers.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "validation failed", resp.Error)
	})

	t.Run("missing credentials return 400", func(t *testing.T) {
		h, _, _ := newAuthHandler(t)

		c, rec := newJSONContext(http.MethodPost, "/v1/auth/login-simple", `{}`)
		require.NoError(t, h.SimpleLogin(c))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
