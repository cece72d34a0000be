package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-salon/internal/app"
)

type stubResolver struct{}

func (stubResolver) ResolveIdentity(_ context.Context, token string) (*app.Identity, error) {
	if token == "good" {
		return &app.Identity{UserID: "u1", Username: "lin"}, nil
	}
	return nil, app.ErrUnauthorized
}

func TestResolveIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		header   string
		query    string
		wantUser string
		wantErr  error
	}{
		{name: "anonymous"},
		{name: "bearer header", header: "Bearer good", wantUser: "u1"},
		{name: "lower-case scheme", header: "bearer good", wantUser: "u1"},
		{name: "query token", query: "?token=good", wantUser: "u1"},
		{name: "bad token", header: "Bearer bad", wantErr: app.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				gotIdent *app.Identity
				gotErr   error
			)
			router := gin.New()
			router.Use(ResolveIdentity(stubResolver{}))
			router.GET("/", func(c *gin.Context) {
				gotIdent, gotErr = Identity(c)
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(gotErr, tt.wantErr))
				assert.Nil(t, gotIdent)
				return
			}
			require.NoError(t, gotErr)
			if tt.wantUser == "" {
				assert.Nil(t, gotIdent)
				return
			}
			require.NotNil(t, gotIdent)
			assert.Equal(t, tt.wantUser, gotIdent.UserID)
		})
	}
}

func TestRequestIDPropagatesOrGenerates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Body.String())
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Body.String(), 36)
}

func TestRecoveryUsesRouteErrorCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.GET("/boom", ErrorCode("SALON_FAILED"), func(*gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"SALON_FAILED","message":"internal server error"}}`, rec.Body.String())
}
