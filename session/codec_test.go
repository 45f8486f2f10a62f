package session

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/models"
)

const testSecret = "test-signing-secret-0123456789abcdef"

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodec_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec(testSecret, WithClock(fixedClock(now)))
	sub := uuid.New()

	token, exp, err := codec.Sign(sub, "alice@example.com", models.RoleManager, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), exp)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.True(t, claims.ExpiresAt.Equal(exp))
}

func TestCodec_Verify_Rejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec(testSecret, WithClock(fixedClock(now)))
	sub := uuid.New()

	valid, _, err := codec.Sign(sub, "a@example.com", models.RoleMember, time.Minute)
	require.NoError(t, err)

	signRaw := func(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{
			name:  "garbage",
			token: func(*testing.T) string { return "not-a-jwt" },
			want:  ErrInvalidToken,
		},
		{
			name: "tampered signature",
			token: func(*testing.T) string {
				parts := strings.Split(valid, ".")
				sig := []byte(parts[2])
				if sig[0] == 'A' {
					sig[0] = 'B'
				} else {
					sig[0] = 'A'
				}
				return parts[0] + "." + parts[1] + "." + string(sig)
			},
			want: ErrInvalidToken,
		},
		{
			name: "signed with another secret",
			token: func(*testing.T) string {
				other := NewCodec("another-secret-entirely-0123456789", WithClock(fixedClock(now)))
				s, _, err := other.Sign(sub, "a@example.com", models.RoleAdmin, time.Minute)
				require.NoError(t, err)
				return s
			},
			want: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func(t *testing.T) string {
				return signRaw(t, jwt.SigningMethodHS512, []byte(testSecret), &Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   sub.String(),
						ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
					},
					Role: "admin",
				})
			},
			want: ErrInvalidToken,
		},
		{
			name: "unsigned none algorithm",
			token: func(t *testing.T) string {
				return signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   sub.String(),
						ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
					},
					Role: "admin",
				})
			},
			want: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				past := NewCodec(testSecret, WithClock(fixedClock(now.Add(-time.Hour))))
				s, _, err := past.Sign(sub, "a@example.com", models.RoleMember, time.Minute)
				require.NoError(t, err)
				return s
			},
			want: ErrTokenExpired,
		},
		{
			name: "missing exp",
			token: func(t *testing.T) string {
				return signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: sub.String()},
					Role:             "member",
				})
			},
			want: ErrInvalidToken,
		},
		{
			name: "missing sub",
			token: func(t *testing.T) string {
				return signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
					RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))},
					Role:             "member",
				})
			},
			want: ErrMissingClaim,
		},
		{
			name: "unknown role",
			token: func(t *testing.T) string {
				return signRaw(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
					RegisteredClaims: jwt.RegisteredClaims{
						Subject:   sub.String(),
						ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
					},
					Role: "root",
				})
			},
			want: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Verify(tt.token(t))
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodec_Sign_Validates(t *testing.T) {
	codec := NewCodec(testSecret)

	_, _, err := codec.Sign(uuid.New(), "a@example.com", models.RoleInvalid, time.Minute)
	assert.ErrorIs(t, err, models.ErrInvalidRole)

	_, _, err = codec.Sign(uuid.New(), "a@example.com", models.RoleMember, 0)
	assert.Error(t, err)
}

func TestIssuer_Issue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec(testSecret, WithClock(fixedClock(now)))
	issuer := NewIssuer(codec, 30*time.Minute)
	user := models.NewUser("root", "admin@example.com", "hash", models.RoleMember)

	token, err := issuer.Issue(user, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, 1800, token.ExpiresIn)

	claims, err := codec.Verify(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role, "the assigned role is embedded, not the stale one")
}
