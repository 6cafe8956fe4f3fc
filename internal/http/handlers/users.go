package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/auth"
	dbpkg "adpulse/internal/db"
)

// userView is the JSON shape of a user row; password hashes never
// leave the server.
type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	RoleID   *uint  `json:"role_id"`
	RoleName string `json:"role_name"`
}

// UserList returns every user with their resolved role name.
func UserList(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		var users []dbpkg.User
		if err := gdb.Order("username").Find(&users).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query users")
			return
		}

		out := make([]userView, 0, len(users))
		for _, u := range users {
			v := userView{ID: u.ID, Username: u.Username, FullName: u.FullName, RoleID: u.RoleID}
			if u.RoleID != nil {
				name, err := dbpkg.RoleName(gdb, *u.RoleID)
				if err != nil {
					errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
					return
				}
				v.RoleName = name
			}
			out = append(out, v)
		}
		jsonResponse(ctx, map[string]any{"users": out})
	}
}

// CreateUser adds a user with an optional role assignment.
func CreateUser(gdb *gorm.DB, verifier auth.CredentialVerifier) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		username := strings.TrimSpace(string(ctx.PostArgs().Peek("username")))
		password := string(ctx.PostArgs().Peek("password"))
		fullName := strings.TrimSpace(string(ctx.PostArgs().Peek("full_name")))
		if username == "" || password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "username and password are required")
			return
		}

		var roleID *uint
		if raw := string(ctx.PostArgs().Peek("role_id")); raw != "" {
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				errResponse(ctx, fasthttp.StatusBadRequest, "invalid role_id")
				return
			}
			var role dbpkg.Role
			if err := gdb.First(&role, uint(n)).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					errResponse(ctx, fasthttp.StatusBadRequest, "unknown role_id")
					return
				}
				errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
				return
			}
			roleID = &role.ID
		}

		hash, err := verifier.Hash(password)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}

		user := dbpkg.User{
			Username:     username,
			FullName:     fullName,
			PasswordHash: hash,
			RoleID:       roleID,
		}
		if err := gdb.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				errResponse(ctx, fasthttp.StatusConflict, "username already exists")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to create user")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, userView{ID: user.ID, Username: user.Username, FullName: user.FullName, RoleID: user.RoleID})
	}
}

// AssignUserRole changes (or clears) a user's role.
func AssignUserRole(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		var user dbpkg.User
		if err := gdb.First(&user, id).Error; err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown user")
			return
		}

		raw := string(ctx.PostArgs().Peek("role_id"))
		if raw == "" {
			if err := gdb.Model(&user).Update("role_id", nil).Error; err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update user")
				return
			}
			jsonResponse(ctx, map[string]any{"id": user.ID, "role_id": nil})
			return
		}

		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "invalid role_id")
			return
		}
		var role dbpkg.Role
		if err := gdb.First(&role, uint(n)).Error; err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "unknown role_id")
			return
		}
		if err := gdb.Model(&user).Update("role_id", role.ID).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update user")
			return
		}
		jsonResponse(ctx, map[string]any{"id": user.ID, "role_id": role.ID})
	}
}

// ResetUserPassword sets a new password for any user.
func ResetUserPassword(gdb *gorm.DB, verifier auth.CredentialVerifier) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		password := string(ctx.PostArgs().Peek("password"))
		if password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "password is required")
			return
		}
		var user dbpkg.User
		if err := gdb.First(&user, id).Error; err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown user")
			return
		}
		hash, err := verifier.Hash(password)
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to hash password")
			return
		}
		if err := gdb.Model(&user).Update("password_hash", hash).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update password")
			return
		}
		jsonResponse(ctx, map[string]any{"id": user.ID, "updated": true})
	}
}

// DeleteUser removes a user. Users may not delete their own account,
// which also protects the last admin from locking everyone out.
func DeleteUser(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		current, ok := MustUser(ctx)
		if !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		if current.ID == id {
			errResponse(ctx, fasthttp.StatusBadRequest, "cannot delete your own account")
			return
		}
		res := gdb.Delete(&dbpkg.User{}, id)
		if res.Error != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete user")
			return
		}
		if res.RowsAffected == 0 {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown user")
			return
		}
		jsonResponse(ctx, map[string]any{"id": id, "deleted": true})
	}
}
