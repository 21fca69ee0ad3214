package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

const (
	tokenHeader = "X-FireSense-Token"
	sessionTTL  = 24 * time.Hour
)

// TokenClaims represents the payload of the JWT-like token
// TokenClaims 代表类似 JWT 的令牌负载
type TokenClaims struct {
	Role string `json:"role"`
	Exp  int64  `json:"exp"`
	Iat  int64  `json:"iat"`
}

// signToken creates a signed token string
// signToken 创建一个已签名的令牌字符串
func signToken(claims TokenClaims, secret string) (string, error) {
	header := `{"alg":"HS256","typ":"JWT"}`
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(header))

	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := headerEnc + "." + base64.RawURLEncoding.EncodeToString(payloadBytes)
	return unsigned + "." + sign(unsigned, secret), nil
}

func sign(unsigned, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(unsigned))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// verifyToken checks the signature and expiration of the token
// verifyToken 检查令牌的签名和过期时间
func verifyToken(tokenString string, secret string, now time.Time) (*TokenClaims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid token format")
	}

	unsigned := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(sign(unsigned, secret))) {
		return nil, errors.New("invalid signature")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}
	var claims TokenClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, err
	}
	if now.Unix() > claims.Exp {
		return nil, errors.New("token expired")
	}
	return &claims, nil
}

func (s *Server) tokenMatches(token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

// withAuth accepts a session token or the master token as Bearer, or the
// master token in X-FireSense-Token / ?token=.
// withAuth 支持 Bearer 会话令牌或主令牌，以及请求头/查询参数中的主令牌。
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		// 1. Authorization: Bearer <token>
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token := strings.TrimPrefix(auth, "Bearer ")
			if s.tokenMatches(token) {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := verifyToken(token, s.token, time.Now()); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		// 2. Header or query parameter / 请求头或查询参数
		token := r.Header.Get(tokenHeader)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if s.tokenMatches(token) {
			next.ServeHTTP(w, r)
			return
		}

		writeError(w, http.StatusUnauthorized, "unauthorized")
	})
}

// handleLogin exchanges the master token for a session token
// handleLogin 将主令牌交换为会话令牌
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.token == "" {
		writeError(w, http.StatusNotFound, "authentication disabled")
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !s.tokenMatches(req.Token) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now()
	signed, err := signToken(TokenClaims{
		Role: "admin",
		Exp:  now.Add(sessionTTL).Unix(),
		Iat:  now.Unix(),
	}, s.token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}
