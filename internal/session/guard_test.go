package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAudience = "client-123.apps.example.com"

var fixedNow = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func newTestGuard(audience string) *Guard {
	g := NewGuard(audience)
	g.SetClock(func() time.Time { return fixedNow })
	return g
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "cook@example.com",
		"aud":   testAudience,
		"iss":   "https://accounts.google.com",
		"exp":   fixedNow.Add(time.Hour).Unix(),
	}
}

func TestValidate(t *testing.T) {
	guard := newTestGuard(testAudience)

	t.Run("Valid", func(t *testing.T) {
		token := signed(t, validClaims())

		res := guard.Validate(token)
		require.True(t, res.Valid)
		assert.Equal(t, token, res.Token)
		assert.Equal(t, "user-1", res.Claims["sub"])
		assert.Empty(t, res.Reason)
	})

	t.Run("BearerPrefixAndWhitespace", func(t *testing.T) {
		token := signed(t, validClaims())

		for _, raw := range []string{"Bearer " + token, "  bearer   " + token + "\n", "BEARER " + token, "Bearer\t" + token, "bearer\n\t" + token} {
			res := guard.Validate(raw)
			require.True(t, res.Valid, raw)
			assert.Equal(t, token, res.Token)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "a.b", "a.b.c.d", "header.!!!.sig", "header." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"} {
			res := guard.Validate(raw)
			assert.False(t, res.Valid, raw)
			assert.Equal(t, ReasonMalformed, res.Reason, raw)
		}
	})

	t.Run("PaddedStandardAlphabetPayload", func(t *testing.T) {
		payload, err := json.Marshal(validClaims())
		require.NoError(t, err)

		raw := "h." + base64.StdEncoding.EncodeToString(payload) + ".s"
		res := guard.Validate(raw)
		assert.True(t, res.Valid)
	})

	t.Run("Expiry", func(t *testing.T) {
		cases := map[string]any{
			"Past":         fixedNow.Add(-time.Minute).Unix(),
			"WithinBuffer": fixedNow.Add(20 * time.Second).Unix(),
			"AtBuffer":     fixedNow.Add(ExpirySkew).Unix(),
			"NotNumeric":   "tomorrow",
		}
		for name, exp := range cases {
			t.Run(name, func(t *testing.T) {
				claims := validClaims()
				claims["exp"] = exp
				res := guard.Validate(signed(t, claims))
				assert.False(t, res.Valid)
				assert.Equal(t, ReasonExpired, res.Reason)
			})
		}

		t.Run("Missing", func(t *testing.T) {
			claims := validClaims()
			delete(claims, "exp")
			res := guard.Validate(signed(t, claims))
			assert.Equal(t, ReasonExpired, res.Reason)
		})

		t.Run("JustPastBuffer", func(t *testing.T) {
			claims := validClaims()
			claims["exp"] = fixedNow.Add(ExpirySkew + time.Second).Unix()
			assert.True(t, guard.Validate(signed(t, claims)).Valid)
		})
	})

	t.Run("AudienceMismatch", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "someone-else"
		res := guard.Validate(signed(t, claims))
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonAudienceMismatch, res.Reason)

		delete(claims, "aud")
		assert.Equal(t, ReasonAudienceMismatch, guard.Validate(signed(t, claims)).Reason)
	})

	t.Run("AudienceMustEqualExactly", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = []string{testAudience}
		assert.True(t, guard.Validate(signed(t, claims)).Valid)

		claims["aud"] = []string{testAudience, "someone-else"}
		assert.Equal(t, ReasonAudienceMismatch, guard.Validate(signed(t, claims)).Reason)
	})

	t.Run("AudienceUncheckedWhenUnconfigured", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "someone-else"
		assert.True(t, newTestGuard("").Validate(signed(t, claims)).Valid)
	})

	t.Run("Issuer", func(t *testing.T) {
		claims := validClaims()
		claims["iss"] = "accounts.google.com"
		assert.True(t, guard.Validate(signed(t, claims)).Valid)

		delete(claims, "iss")
		assert.True(t, guard.Validate(signed(t, claims)).Valid, "issuer is optional")

		claims["iss"] = "https://evil.example.com"
		res := guard.Validate(signed(t, claims))
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonBadIssuer, res.Reason)
	})

	t.Run("ExpiryCheckedBeforeAudience", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = fixedNow.Add(-time.Hour).Unix()
		claims["aud"] = "someone-else"
		claims["iss"] = "nope"
		assert.Equal(t, ReasonExpired, guard.Validate(signed(t, claims)).Reason)
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a.b.c", Normalize("Bearer a.b.c"))
	assert.Equal(t, "a.b.c", Normalize("\tbEaReR  a.b.c "))
	assert.Equal(t, "Bearera.b.c", Normalize("Bearera.b.c"))
	assert.Equal(t, "a.b.c", Normalize("Bearer\ta.b.c"))
	assert.Equal(t, "a.b.c", Normalize("bearer\r\n a.b.c"))
	assert.Equal(t, "Bearer", Normalize("Bearer "))
	assert.Equal(t, "", Normalize("   "))
	assert.False(t, strings.Contains(Normalize(" x "), " "))
}
