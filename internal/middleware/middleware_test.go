package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franciscosanchezn/gin-recipe-api/internal/auth"
	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeSessions struct {
	users map[string]uint
	err   error
}

func (f *fakeSessions) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Anonymous, f.err
	}
	if id, ok := f.users[token]; ok {
		return auth.Identity{UserID: id, Source: auth.SourceSession}, nil
	}
	return auth.Anonymous, nil
}

type fakeTokens struct {
	users map[string]uint
	err   error
}

func (f *fakeTokens) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Anonymous, f.err
	}
	if id, ok := f.users[token]; ok {
		return auth.Identity{UserID: id, Source: auth.SourceToken}, nil
	}
	return auth.Anonymous, nil
}

func setupRouter(sessions SessionResolver, tokens TokenResolver, protected bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Identify(sessions, tokens, "session-id"))

	handlers := []gin.HandlerFunc{}
	if protected {
		handlers = append(handlers, RequireIdentity())
	}
	handlers = append(handlers, func(c *gin.Context) {
		identity := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "source": identity.Source})
	})
	router.GET("/whoami", handlers...)
	return router
}

func TestIdentify(t *testing.T) {
	sessions := &fakeSessions{users: map[string]uint{"good-session": 7}}
	tokens := &fakeTokens{users: map[string]uint{"good-token": 9}}

	testCases := []struct {
		name          string
		authorization string
		cookie        string
		expectedBody  string
	}{
		{"anonymous", "", "", `{"source":"","user_id":0}`},
		{"session cookie", "", "good-session", `{"source":"session","user_id":7}`},
		{"unknown cookie", "", "stale", `{"source":"","user_id":0}`},
		{"bearer token", "Bearer good-token", "", `{"source":"token","user_id":9}`},
		{"bearer wins over cookie", "Bearer good-token", "good-session", `{"source":"token","user_id":9}`},
		{"invalid bearer is anonymous", "Bearer forged", "good-session", `{"source":"","user_id":0}`},
		{"non bearer scheme falls back to cookie", "Basic abc", "good-session", `{"source":"session","user_id":7}`},
	}

	router := setupRouter(sessions, tokens, false)
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session-id", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestIdentifyStorageFailureIs500(t *testing.T) {
	sessions := &fakeSessions{err: errors.Join(models.ErrStorage, errors.New("db down"))}
	router := setupRouter(sessions, &fakeTokens{}, false)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session-id", Value: "anything"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), models.CodeInternalServer)
}

func TestIdentifyTokenStorageFailureIs500(t *testing.T) {
	tokens := &fakeTokens{err: errors.Join(models.ErrStorage, errors.New("db down"))}
	router := setupRouter(&fakeSessions{}, tokens, false)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), models.CodeInternalServer)
}

func TestRequireIdentity(t *testing.T) {
	router := setupRouter(&fakeSessions{users: map[string]uint{"s": 1}}, &fakeTokens{}, true)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), models.CodeUnauthorized)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session-id", Value: "s"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentIdentityWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.True(t, CurrentIdentity(c).IsAnonymous())

	SetIdentity(c, auth.Identity{UserID: 3, Source: auth.SourceSession})
	assert.Equal(t, uint(3), CurrentIdentity(c).UserID)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name           string
		origins        []string
		origin         string
		expectedHeader string
	}{
		{"wildcard", []string{"*"}, "http://anywhere.test", "*"},
		{"listed origin", []string{"http://app.test"}, "http://app.test", "http://app.test"},
		{"unlisted origin", []string{"http://app.test"}, "http://evil.test", ""},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.origins))
			router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedHeader, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
