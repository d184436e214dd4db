package models

import (
	"net/mail"
	"strings"
	"time"
)

// RoleAdmin is allowed every permission.
const RoleAdmin = "admin"

// Permissions checked by the back-office routes.
const (
	PermProductsWrite  = "products:write"
	PermBlogWrite      = "blog:write"
	PermOrdersRead     = "orders:read"
	PermOrdersWrite    = "orders:write"
	PermInquiriesWrite = "inquiries:write"
	PermMediaWrite     = "media:write"
	PermReviewsWrite   = "reviews:write"
	PermSettingsWrite  = "settings:write"
	PermUsersWrite     = "users:write"
	PermBackupsWrite   = "backups:write"
	PermAnalyticsRead  = "analytics:read"
)

// User is a back-office account.
type User struct {
	Base        `bson:",inline"`
	Name        string     `bson:"name" json:"name"`
	Email       string     `bson:"email" json:"email"`
	Password    string     `bson:"password,omitempty" json:"-"`
	Role        string     `bson:"role" json:"role"`
	Active      bool       `bson:"active" json:"active"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"lastLoginAt,omitempty"`
}

// UserInput is the payload for creating or updating a user. Password is
// optional on update.
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}

// Validate checks the input; requirePassword is set on create.
func (in *UserInput) Validate(requirePassword bool) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)
	if in.Name == "" {
		return invalid("name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return invalid("email is not a valid address")
	}
	if in.Role == "" {
		return invalid("role is required")
	}
	if requirePassword && in.Password == "" {
		return invalid("password is required")
	}
	if in.Password != "" && len(in.Password) < 8 {
		return invalid("password must be at least 8 characters")
	}
	return nil
}

// Role groups permissions granted to users.
type Role struct {
	Base        `bson:",inline"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
	Permissions []string `bson:"permissions" json:"permissions"`
}

func (r *Role) Validate() error {
	r.Name = strings.ToLower(strings.TrimSpace(r.Name))
	if r.Name == "" {
		return invalid("name is required")
	}
	if r.Permissions == nil {
		r.Permissions = []string{}
	}
	return nil
}

// Allows reports whether the role grants perm.
func (r *Role) Allows(perm string) bool {
	if r.Name == RoleAdmin {
		return true
	}
	for _, p := range r.Permissions {
		if p == perm || p == "*" {
			return true
		}
	}
	return false
}
