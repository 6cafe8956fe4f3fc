// Package auth holds the credential verifier and the page-level
// authorization model. Both are pure: database lookups happen in the
// db package and results are handed in here.
package auth

import "golang.org/x/crypto/bcrypt"

// Dashboard page names as stored in role_permissions.page_name.
const (
	PageDashboard     = "Dashboard"
	PageSegmentation  = "Segmentation_Analysis"
	PageBenchmarking  = "Live_Benchmarking"
	PageCreative      = "Creative_Analysis"
	PageBudgetPacing  = "Budget_Pacing"
	PagePersona       = "Persona_Intelligence"
	PageABTesting     = "AB_Testing"
	PageExport        = "Export_Data"
	PageUpload        = "Upload_Data"
	PageAdmin         = "Admin"
)

// SuperAdminRole members are authorized for every page unconditionally.
const SuperAdminRole = "Admin"

// AllPages lists every known dashboard page, used by the role editor.
func AllPages() []string {
	return []string{
		PageDashboard, PageSegmentation, PageBenchmarking, PageCreative,
		PageBudgetPacing, PagePersona, PageABTesting, PageExport,
		PageUpload, PageAdmin,
	}
}

// Grants is the resolved capability set of one user: the role they hold
// and the pages that role may view. A nil *Grants means the user has no
// role (never assigned, or the role row was deleted afterwards) and is
// denied everywhere.
type Grants struct {
	RoleName string
	Pages    map[string]bool
}

// Allows reports whether the grant set covers the given page.
// Authorization is plain set membership; the super-admin role bypasses
// the set entirely.
func (g *Grants) Allows(page string) bool {
	if g == nil {
		return false
	}
	if g.RoleName == SuperAdminRole {
		return true
	}
	return g.Pages[page]
}

// CredentialVerifier abstracts the password hashing scheme so it can be
// swapped without touching calling code.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptCost is the fixed cost factor for stored password hashes.
const BcryptCost = 12

// BcryptVerifier implements CredentialVerifier with bcrypt. The zero
// value uses BcryptCost.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) cost() int {
	if v.Cost > 0 {
		return v.Cost
	}
	return BcryptCost
}

func (v BcryptVerifier) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), v.cost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (v BcryptVerifier) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
