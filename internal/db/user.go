package db

import (
	"time"

	"gorm.io/gorm"
)

// User represents a dashboard user that can sign in to the UI. A nil
// RoleID means the user has no permissions at all; the bootstrap admin
// user (from env) is created with the Admin role on startup.
type User struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null"`
	FullName     string `gorm:"size:128"`
	PasswordHash string `gorm:"size:255;not null"`

	RoleID *uint `gorm:"index"`
}

// Role names a permission set. "Admin" is the designated super-admin
// role: members are authorized for every page regardless of the
// role_permissions rows.
type Role struct {
	ID uint `gorm:"primaryKey"`

	RoleName string `gorm:"uniqueIndex;size:64;not null"`
}

// RolePermission grants one role access to one dashboard page. The
// unique pair index keeps grants idempotent.
type RolePermission struct {
	ID uint `gorm:"primaryKey"`

	RoleID   uint   `gorm:"uniqueIndex:idx_role_page_unique,priority:1;not null"`
	PageName string `gorm:"uniqueIndex:idx_role_page_unique,priority:2;size:64;not null"`

	Role Role `gorm:"foreignKey:RoleID"`
}

// RolePages returns the set of page names granted to a role.
func RolePages(gdb *gorm.DB, roleID uint) (map[string]bool, error) {
	var perms []RolePermission
	if err := gdb.Where("role_id = ?", roleID).Find(&perms).Error; err != nil {
		return nil, err
	}
	pages := make(map[string]bool, len(perms))
	for _, p := range perms {
		pages[p.PageName] = true
	}
	return pages, nil
}

// RoleName resolves a role ID to its name. Returns ("", nil) when the
// role row no longer exists, which callers treat as "no access".
func RoleName(gdb *gorm.DB, roleID uint) (string, error) {
	var role Role
	if err := gdb.First(&role, roleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return role.RoleName, nil
}
