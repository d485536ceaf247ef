package v1

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
)

// AuthConfig enables HS256 bearer auth when Secret is set. Issuer and
// Audience are checked only when non-empty.
type AuthConfig struct {
    Secret   string
    Issuer   string
    Audience string
}

func parseBearerToken(r *http.Request) (string, bool) {
    h := r.Header.Get("Authorization")
    if len(h) < len("Bearer ") || !strings.EqualFold(h[:len("Bearer ")], "Bearer ") { return "", false }
    tok := strings.TrimSpace(h[len("Bearer "):])
    return tok, tok != ""
}

// publicPath reports whether path is served without a token.
func publicPath(path string) bool {
    switch path {
    case "/healthz", "/readyz", "/metrics":
        return true
    }
    return strings.HasPrefix(path, "/v1/dictionary/")
}

// authJWT returns a middleware that enforces Authorization: Bearer <JWT>, or
// nil when no secret is configured.
func authJWT(cfg AuthConfig) func(http.Handler) http.Handler {
    secret := []byte(strings.TrimSpace(cfg.Secret))
    if len(secret) == 0 { return nil }
    opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
    if cfg.Issuer != "" { opts = append(opts, jwt.WithIssuer(cfg.Issuer)) }
    if cfg.Audience != "" { opts = append(opts, jwt.WithAudience(cfg.Audience)) }
    parser := jwt.NewParser(opts...)

    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            if r.Method == http.MethodOptions || publicPath(r.URL.Path) {
                next.ServeHTTP(w, r)
                return
            }
            raw, ok := parseBearerToken(r)
            if !ok { writeErr(w, http.StatusUnauthorized, "missing bearer token", "unauthorized"); return }
            claims := &jwt.RegisteredClaims{}
            tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
                return secret, nil
            })
            if err != nil || !tok.Valid {
                writeErr(w, http.StatusUnauthorized, "invalid token", "unauthorized")
                return
            }
            next.ServeHTTP(w, r)
        })
    }
}
