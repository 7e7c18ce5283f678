package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

// signHS256 builds a token by hand so keys the jwt library refuses to sign
// with, such as an empty one, can still be presented.
func signHS256(key []byte, payload string) string {
	enc := base64.RawURLEncoding
	unsigned := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." + enc.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(unsigned))
	return unsigned + "." + enc.EncodeToString(mac.Sum(nil))
}

func TestCorporateAuth_EmptySecretRejectsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", CorporateAuth("", ""), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(corporateAccountKey))
	})

	token := signHS256([]byte{}, `{"corporate_account":"acme"}`)
	w := doJSON(r, http.MethodGet, "/whoami", nil, http.Header{"Authorization": {"Bearer " + token}})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "acme")
}

func TestCorporateAuth_HandSignedTokenWithConfiguredSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", CorporateAuth(testSecret, ""), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(corporateAccountKey))
	})

	w := doJSON(r, http.MethodGet, "/whoami", nil, http.Header{"Authorization": {"Bearer " + signHS256([]byte(testSecret), `{"corporate_account":"acme"}`)}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acme", w.Body.String())

	w = doJSON(r, http.MethodGet, "/whoami", nil, http.Header{"Authorization": {"Bearer " + signHS256([]byte{}, `{"corporate_account":"acme"}`)}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewRouter_NoSecretLeavesCorporateRoutesUnmounted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	r := NewRouter(&config.Config{}, NewBookingHandler(&MockBookingUseCase{}, nil), NewCatalogueHandler(nil), logger)

	token := signHS256([]byte{}, `{"corporate_account":"acme"}`)
	w := doJSON(r, http.MethodPost, "/api/v1/corporate/drafts", nil, http.Header{"Authorization": {"Bearer " + token}})

	assert.Equal(t, http.StatusNotFound, w.Code)
	if assert.NotNil(t, hook.LastEntry()) {
		assert.Equal(t, "jwt secret not set, corporate routes are disabled", hook.LastEntry().Message)
	}
}
