package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/casadaesfiha/storefront-backend/api/responses"
	pkgerrors "github.com/casadaesfiha/storefront-backend/pkg/errors"
	"github.com/casadaesfiha/storefront-backend/pkg/logger"
)

type attemptCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy caps login/register attempts over a fixed window,
// counted per client IP and per submitted email. Either limit set to zero
// disables that dimension; both zero disables the policy.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// attemptDimension is one counted axis of a policy (ip or email).
type attemptDimension struct {
	scope string
	key   string
	limit int
}

// AuthRateLimit throttles an auth endpoint under the given policy. The email
// dimension hashes the address before it reaches redis so keys never hold
// plaintext emails.
func AuthRateLimit(policy AuthRateLimitPolicy, counter attemptCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || counter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			dims := make([]attemptDimension, 0, 2)
			if policy.ipLimit > 0 {
				if ip := clientIP(r); ip != "" {
					dims = append(dims, attemptDimension{
						scope: "ip",
						key:   fmt.Sprintf("rl:ip:%s:%s", policy.name, ip),
						limit: policy.ipLimit,
					})
				}
			}
			if policy.emailLimit > 0 {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := emailFromBody(body); email != "" {
					dims = append(dims, attemptDimension{
						scope: "email",
						key:   fmt.Sprintf("rl:email:%s:%s", policy.name, hashAttemptKey(email)),
						limit: policy.emailLimit,
					})
				}
			}

			for _, dim := range dims {
				count, err := counter.IncrWithTTL(ctx, dim.key, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(dim.limit) {
					if logg != nil {
						logCtx := logg.WithFields(ctx, map[string]any{
							"policy":         policy.name,
							"scope":          dim.scope,
							"attempts":       count,
							"limit":          dim.limit,
							"window_seconds": int(policy.window.Seconds()),
						})
						logg.Warn(logCtx, "auth.rate_limit.blocked")
					}
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(part); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// emailFromBody pulls the email field out of a login/register payload and
// normalizes it so casing and whitespace cannot dodge the counter.
func emailFromBody(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashAttemptKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
