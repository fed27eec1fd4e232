package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldhouse/coach-app/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "middleware-test-secret"

func signToken(t *testing.T, secret string, userID primitive.ObjectID, role domain.Role, expiresIn time.Duration) string {
	t.Helper()
	claims := &jwtClaims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		actor, err := getActorFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": actor.ID.Hex(), "role": actor.Role})
	})
	router.GET("/coach-only", AuthMiddleware(testSecret), RoleMiddleware(domain.RoleCoach), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router := newProtectedRouter()
	token := signToken(t, testSecret, primitive.NewObjectID(), domain.RoleAthlete, time.Hour)

	w := doRequest(router, "/protected", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	router := newProtectedRouter()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "NotBearer xyz"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", primitive.NewObjectID(), domain.RoleAthlete, time.Hour)},
		{"expired", "Bearer " + signToken(t, testSecret, primitive.NewObjectID(), domain.RoleAthlete, -time.Minute)},
	}
	for _, tc := range cases {
		w := doRequest(router, "/protected", tc.header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", tc.name, w.Code)
		}
	}
}

func TestRoleMiddleware(t *testing.T) {
	router := newProtectedRouter()

	coachToken := signToken(t, testSecret, primitive.NewObjectID(), domain.RoleCoach, time.Hour)
	if w := doRequest(router, "/coach-only", "Bearer "+coachToken); w.Code != http.StatusOK {
		t.Errorf("coach: status = %d, want 200", w.Code)
	}

	athleteToken := signToken(t, testSecret, primitive.NewObjectID(), domain.RoleAthlete, time.Hour)
	if w := doRequest(router, "/coach-only", "Bearer "+athleteToken); w.Code != http.StatusForbidden {
		t.Errorf("athlete: status = %d, want 403", w.Code)
	}
}
