package session

import (
	"strconv"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/XxZARKx/lab-proyecto2/internal/domain"
	apperrors "github.com/XxZARKx/lab-proyecto2/pkg/util"
)

// Session carries the caller identity for one authenticated client instance.
// The token is issued and validated by the backend; the client only decodes
// the claims it needs for role gating and message authorship display, and is
// injected explicitly into every engine that needs it.
type Session struct {
	Token  string
	UserID int64
	Name   string
	Role   domain.Role
}

// Claims describes the JWT payload issued by the backend.
type Claims struct {
	UserID int64  `json:"uid"`
	Name   string `json:"nombre"`
	Role   string `json:"rol"`
	jwt.RegisteredClaims
}

// FromToken decodes identity claims from a bearer token. The signature is not
// verified here: the backend rejects forged tokens on every request, and the
// client holds no signing secret.
func FromToken(token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, apperrors.NewValidationError("bearer token required", nil)
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Session{}, apperrors.NewValidationError("malformed bearer token", map[string]any{
			"cause": err.Error(),
		})
	}

	userID := claims.UserID
	if userID == 0 && claims.Subject != "" {
		if parsed, err := strconv.ParseInt(claims.Subject, 10, 64); err == nil {
			userID = parsed
		}
	}

	role := domain.Role(claims.Role)
	switch role {
	case domain.RoleRequester, domain.RoleTechnician, domain.RoleAdministrator:
	default:
		return Session{}, apperrors.NewValidationError("token carries no usable role claim", map[string]any{
			"rol": claims.Role,
		})
	}

	return Session{
		Token:  token,
		UserID: userID,
		Name:   claims.Name,
		Role:   role,
	}, nil
}
