package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type staticTokens map[string]primitive.ObjectID

func (s staticTokens) ParseToken(raw string) (primitive.ObjectID, error) {
	id, ok := s[raw]
	if !ok {
		return primitive.NilObjectID, errors.New("bad token")
	}
	return id, nil
}

func newRouter(log zerolog.Logger, tokens TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/me", UserAuth(tokens, zerolog.Nop()), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.Hex())
	})
	return r
}

func TestUserAuth(t *testing.T) {
	user := primitive.NewObjectID()
	r := newRouter(zerolog.Nop(), staticTokens{"good": user})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"no scheme", "good", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, user.Hex(), w.Body.String())
			}
		})
	}
}

func TestRequestLoggerWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	user := primitive.NewObjectID()
	r := newRouter(zerolog.New(&buf), staticTokens{"good": user})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, user.Hex(), entry["user_id"])
	assert.Equal(t, "/me", entry["path"])
	assert.EqualValues(t, 200, entry["status"])
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	r := newRouter(zerolog.Nop(), staticTokens{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
