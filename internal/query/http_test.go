package query

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"github.com/RezaEskandarii/scribeflow/internal/mocks"
	"github.com/RezaEskandarii/scribeflow/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPHandler_ExplicitUser(t *testing.T) {
	s := mocks.NewFakeJobRecordStore()
	require.NoError(t, s.Create(context.Background(), "alice", types.JobRecord{EventTime: "2024-01-01T00:00:00.000Z", JobID: "abc1234567"}))
	h := NewHTTPHandler(newRouter(s, &mocks.MockObjectStore{}, explicitUser(), zap.NewNop()), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/abc1234567?user=alice", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"job_id":"abc1234567","event_time":"2024-01-01T00:00:00.000Z","job_status":"SUBMITTED"}`, rec.Body.String())
}

func TestHTTPHandler_BearerTokenSuppliesClaims(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "k1",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer idp.Close()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"iss": idp.URL, "sub": "dave", "exp": time.Now().Add(time.Hour).Unix()})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	s := mocks.NewFakeJobRecordStore()
	require.NoError(t, s.Create(context.Background(), "dave", types.JobRecord{EventTime: "2024-01-01T00:00:00.000Z", JobID: "abc1234567"}))
	h := NewHTTPHandler(newRouter(s, &mocks.MockObjectStore{}, identity.ClaimResolver{}, zap.NewNop()), identity.NewTokenVerifier(time.Second), zap.NewNop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc1234567")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
