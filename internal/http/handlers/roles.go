package handlers

import (
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"adpulse/internal/auth"
	dbpkg "adpulse/internal/db"
)

type roleView struct {
	ID       uint     `json:"id"`
	RoleName string   `json:"role_name"`
	Pages    []string `json:"pages"`
}

func rolePagesSorted(gdb *gorm.DB, roleID uint) ([]string, error) {
	pages, err := dbpkg.RolePages(gdb, roleID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(pages))
	for _, p := range auth.AllPages() {
		if pages[p] {
			out = append(out, p)
		}
	}
	return out, nil
}

// RoleList returns every role with its granted pages.
func RoleList(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		var roles []dbpkg.Role
		if err := gdb.Order("role_name").Find(&roles).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query roles")
			return
		}
		out := make([]roleView, 0, len(roles))
		for _, r := range roles {
			pages, err := rolePagesSorted(gdb, r.ID)
			if err != nil {
				errResponse(ctx, fasthttp.StatusInternalServerError, "database error")
				return
			}
			out = append(out, roleView{ID: r.ID, RoleName: r.RoleName, Pages: pages})
		}
		jsonResponse(ctx, map[string]any{"roles": out, "all_pages": auth.AllPages()})
	}
}

// CreateRole adds a role with the checked subset of pages.
func CreateRole(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		name := string(ctx.PostArgs().Peek("role_name"))
		if name == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "role_name is required")
			return
		}
		pages, ok := validPages(ctx)
		if !ok {
			return
		}

		role := dbpkg.Role{RoleName: name}
		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			for _, p := range pages {
				if err := tx.Create(&dbpkg.RolePermission{RoleID: role.ID, PageName: p}).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			if isUniqueViolation(err) {
				errResponse(ctx, fasthttp.StatusConflict, "role name already exists")
				return
			}
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to create role")
			return
		}

		ctx.SetStatusCode(fasthttp.StatusCreated)
		jsonResponse(ctx, roleView{ID: role.ID, RoleName: role.RoleName, Pages: pages})
	}
}

// UpdateRolePages replaces a role's page grants with the submitted
// set. The Admin role is authorized everywhere regardless, so edits to
// it are rejected to avoid a misleading permission list.
func UpdateRolePages(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		var role dbpkg.Role
		if err := gdb.First(&role, id).Error; err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown role")
			return
		}
		if role.RoleName == auth.SuperAdminRole {
			errResponse(ctx, fasthttp.StatusBadRequest, "the Admin role always has full access")
			return
		}
		pages, ok := validPages(ctx)
		if !ok {
			return
		}

		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("role_id = ?", role.ID).Delete(&dbpkg.RolePermission{}).Error; err != nil {
				return err
			}
			for _, p := range pages {
				if err := tx.Create(&dbpkg.RolePermission{RoleID: role.ID, PageName: p}).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to update role")
			return
		}
		jsonResponse(ctx, roleView{ID: role.ID, RoleName: role.RoleName, Pages: pages})
	}
}

// DeleteRole removes a role. Users still pointing at it lose all
// access until reassigned; the Admin role cannot be deleted.
func DeleteRole(gdb *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}
		id, ok := idParam(ctx)
		if !ok {
			return
		}
		var role dbpkg.Role
		if err := gdb.First(&role, id).Error; err != nil {
			errResponse(ctx, fasthttp.StatusNotFound, "unknown role")
			return
		}
		if role.RoleName == auth.SuperAdminRole {
			errResponse(ctx, fasthttp.StatusBadRequest, "the Admin role cannot be deleted")
			return
		}

		err := gdb.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("role_id = ?", role.ID).Delete(&dbpkg.RolePermission{}).Error; err != nil {
				return err
			}
			return tx.Delete(&role).Error
		})
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to delete role")
			return
		}
		jsonResponse(ctx, map[string]any{"id": id, "deleted": true})
	}
}

// validPages reads repeated page form values and rejects names outside
// the known page list.
func validPages(ctx *fasthttp.RequestCtx) ([]string, bool) {
	known := make(map[string]bool, len(auth.AllPages()))
	for _, p := range auth.AllPages() {
		known[p] = true
	}

	var pages []string
	bad := false
	ctx.PostArgs().VisitAll(func(key, value []byte) {
		if string(key) != "page" {
			return
		}
		p := string(value)
		if !known[p] {
			bad = true
			return
		}
		pages = append(pages, p)
	})
	if bad {
		errResponse(ctx, fasthttp.StatusBadRequest, "unknown page name")
		return nil, false
	}
	return pages, true
}
