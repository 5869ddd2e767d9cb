// Package session guards the bearer credential handed over by the sign-in
// provider: it screens tokens locally, persists the accepted one, and exposes
// it to the gateway.
//
// Screening never verifies a signature. It only rejects tokens that are
// obviously unusable so the shell does not spend a round trip on them; the
// backend stays the authority on acceptance.
package session

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

// Reason explains why a credential was rejected.
type Reason string

const (
	ReasonMalformed        Reason = "malformed"
	ReasonExpired          Reason = "expired"
	ReasonAudienceMismatch Reason = "audience mismatch"
	ReasonBadIssuer        Reason = "bad issuer"
)

// ExpirySkew is the minimum remaining lifetime a token must have to be accepted.
const ExpirySkew = 30 * time.Second

// AcceptedIssuers are the two canonical forms of the identity provider's issuer.
var AcceptedIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Result is the outcome of Validate. Token and Claims are set only when Valid.
type Result struct {
	Valid  bool
	Token  string
	Claims jwt.MapClaims
	Reason Reason
}

// Guard screens raw credentials.
type Guard struct {
	audience string
	issuers  []string
	parser   *jwt.Parser
	now      func() time.Time
}

// NewGuard creates a Guard. An empty audience disables the audience check.
func NewGuard(audience string) *Guard {
	return &Guard{
		audience: strings.TrimSpace(audience),
		issuers:  AcceptedIssuers,
		parser:   jwt.NewParser(jwt.WithPaddingAllowed()),
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (g *Guard) SetClock(now func() time.Time) {
	g.now = now
}

// Validate checks structure, expiry, audience and issuer of raw, in that order.
func (g *Guard) Validate(raw string) Result {
	token := Normalize(raw)

	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return reject(ReasonMalformed)
	}

	claims, ok := g.decodeClaims(segments[1])
	if !ok {
		return reject(ReasonMalformed)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !exp.Time.After(g.now().Add(ExpirySkew)) {
		return reject(ReasonExpired)
	}

	if g.audience != "" {
		aud, err := claims.GetAudience()
		if err != nil || len(aud) != 1 || aud[0] != g.audience {
			return reject(ReasonAudienceMismatch)
		}
	}

	if _, present := claims["iss"]; present {
		iss, err := claims.GetIssuer()
		if err != nil || !slices.Contains(g.issuers, iss) {
			return reject(ReasonBadIssuer)
		}
	}

	return Result{Valid: true, Token: token, Claims: claims}
}

// Normalize strips surrounding whitespace and an optional case-insensitive
// "Bearer" scheme followed by any whitespace.
func Normalize(raw string) string {
	token := strings.TrimSpace(raw)
	const scheme = "bearer"
	if len(token) > len(scheme) && strings.EqualFold(token[:len(scheme)], scheme) {
		rest := token[len(scheme):]
		if trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace); len(trimmed) < len(rest) {
			token = trimmed
		}
	}
	return token
}

// decodeClaims base64url-decodes the payload segment. Standard-alphabet
// characters are folded into the URL-safe alphabet; the parser re-pads.
func (g *Guard) decodeClaims(segment string) (jwt.MapClaims, bool) {
	segment = strings.NewReplacer("+", "-", "/", "_").Replace(segment)

	payload, err := g.parser.DecodeSegment(segment)
	if err != nil {
		return nil, false
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

func reject(reason Reason) Result {
	return Result{Reason: reason}
}
