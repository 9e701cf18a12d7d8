package model

// Role represents user roles in the system
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants. SUPER_ADMIN users are the partners who hold equity.
const (
	RoleSuperAdmin = "SUPER_ADMIN"
	RoleAdmin      = "ADMIN"
	RoleManager    = "MANAGER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleSuperAdmin,
		Name:        "Partner",
		Description: "Equity holder with full system access",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Runs day to day operations, no user management",
	},
	{
		Code:        RoleManager,
		Name:        "Manager",
		Description: "Records sales and write-offs",
	},
}
