package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"guidesphere_backend/internal/config"
	"guidesphere_backend/internal/model"
	"guidesphere_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *UserService, testRepos) {
	t.Helper()
	repos := newTestRepos(newTestDB(t))
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	return NewAuthService(repos.user, cfg), NewUserService(repos.user), repos
}

func TestRegisterValidation(t *testing.T) {
	auth, _, _ := newAuthService(t)

	tests := []struct {
		name string
		in   RegisterInput
		err  error
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Username: "ana", Password: "1234"}, util.ErrMissingFields},
		{"bad email", RegisterInput{FullName: "Ana", Email: "nope", Username: "ana", Password: "1234"}, util.ErrInvalidEmail},
		{"username too long", RegisterInput{FullName: "Ana", Email: "a@b.com", Username: strings.Repeat("a", 65), Password: "1234"}, util.ErrInvalidUsername},
		{"short password", RegisterInput{FullName: "Ana", Email: "a@b.com", Username: "ana", Password: "123"}, util.ErrPasswordLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRegisterAcceptsFreeFormUsernames(t *testing.T) {
	auth, _, _ := newAuthService(t)

	for i, username := range []string{"bo", "José", "ana maria", "李雷"} {
		t.Run(username, func(t *testing.T) {
			user, err := auth.Register(RegisterInput{
				FullName: "Free Form",
				Email:    fmt.Sprintf("user%d@example.com", i),
				Username: username,
				Password: "1234",
			})
			require.NoError(t, err)
			assert.Equal(t, username, user.Username)
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _, _ := newAuthService(t)

	user, err := auth.Register(RegisterInput{
		NombreCompleto: "Ana María López",
		Email:          "  Ana@Example.com ",
		Username:       "ana",
		Password:       "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "Ana", user.FirstName)
	assert.Equal(t, "María López", user.LastName)
	assert.Equal(t, model.Student, user.Role)
	assert.Equal(t, model.DefaultAvatarURI, user.AvatarURI)
	assert.NotEqual(t, "secret", user.Password)

	_, err = auth.Register(RegisterInput{FullName: "Other", Email: "ana@example.com", Username: "other", Password: "secret"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
	_, err = auth.Register(RegisterInput{FullName: "Other", Email: "other@example.com", Username: "ana", Password: "secret"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	res, err := auth.Login("ANA@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	claims, err := util.ParseJWT(res.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, model.Student, claims.Role)

	_, err = auth.Login("ana@example.com", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = auth.Login("nobody@example.com", "secret")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, err = auth.Login("", "")
	assert.ErrorIs(t, err, util.ErrMissingFields)
}

func TestLoginDisabledAccount(t *testing.T) {
	auth, _, repos := newAuthService(t)
	user, err := auth.Register(RegisterInput{FullName: "Bo", Email: "bo@example.com", Username: "bo", Password: "secret"})
	require.NoError(t, err)

	_, err = repos.user.UpdateFields(user.ID, map[string]interface{}{"is_active": false})
	require.NoError(t, err)

	_, err = auth.Login("bo@example.com", "secret")
	assert.ErrorIs(t, err, util.ErrAccountDisabled)
}

func strPtr(s string) *string { return &s }

func TestUserServiceRules(t *testing.T) {
	auth, users, _ := newAuthService(t)
	ana, err := auth.Register(RegisterInput{FullName: "Ana", Email: "ana@example.com", Username: "ana", Password: "secret"})
	require.NoError(t, err)
	bo, err := auth.Register(RegisterInput{FullName: "Bo", Email: "bo@example.com", Username: "bo", Password: "secret"})
	require.NoError(t, err)

	anaClaims := claimsFor(ana.ID, model.Student)
	root := claimsFor("root", model.SuperAdmin)

	list, total, _, err := users.List(anaClaims, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, ana.ID, list[0].ID)

	_, total, _, err = users.List(root, "bo", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, err = users.Update(anaClaims, bo.ID, UpdateUserInput{FirstName: strPtr("X")})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	_, err = users.Update(anaClaims, ana.ID, UpdateUserInput{Role: strPtr("admin")})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	_, err = users.Update(root, ana.ID, UpdateUserInput{Role: strPtr("wizard")})
	assert.ErrorIs(t, err, util.ErrInvalidRole)

	n, err := users.Update(anaClaims, ana.ID, UpdateUserInput{})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = users.Update(anaClaims, ana.ID, UpdateUserInput{LastName: strPtr(" Pérez "), NewPassword: strPtr("newpass")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = auth.Login("ana@example.com", "newpass")
	require.NoError(t, err)

	_, err = users.Update(anaClaims, ana.ID, UpdateUserInput{Username: strPtr("   ")})
	assert.ErrorIs(t, err, util.ErrInvalidUsername)
	n, err = users.Update(anaClaims, ana.ID, UpdateUserInput{Username: strPtr(" Ana María ")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = users.Update(root, bo.ID, UpdateUserInput{Role: strPtr("professor")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	updated, err := users.GetByID(bo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Professor, updated.Role)

	require.NoError(t, users.UpdateAvatar(ana.ID, "/uploads/avatars/ana.png"))
	assert.ErrorIs(t, users.UpdateAvatar(ana.ID, " "), util.ErrAvatarRequired)
	assert.ErrorIs(t, users.UpdateAvatar("missing", "/x.png"), util.ErrUserNotFound)

	_, err = users.Delete(anaClaims, bo.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	_, err = users.Delete(claimsFor(bo.ID, model.SuperAdmin), bo.ID)
	assert.ErrorIs(t, err, util.ErrCannotDeleteSelf)
	n, err = users.Delete(root, bo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = users.GetByID(bo.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}
