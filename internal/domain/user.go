package domain

import "time"

// UserRole enumerates account roles.
type UserRole string

const (
	UserRoleUser       UserRole = "user"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "super_admin"
)

// UserRoles lists every role in display order.
var UserRoles = []UserRole{UserRoleUser, UserRoleAdmin, UserRoleSuperAdmin}

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether the role may use the administration surface.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin || r == UserRoleSuperAdmin
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusInactive  UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusInactive:
		return true
	}
	return false
}

// User is a citizen or an administrator.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	NumberPlate     *string    `json:"numberPlate,omitempty"`
	Role            UserRole   `json:"role"`
	IsActive        bool       `json:"isActive"`
	Status          UserStatus `json:"status"`
	EmailVerified   bool       `json:"emailVerified"`
	PhoneVerified   bool       `json:"phoneVerified"`
	Phone           *string    `json:"phone,omitempty"`
	Address         *string    `json:"address,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	SuspendedAt     *time.Time `json:"suspendedAt,omitempty"`
	SuspendedReason *string    `json:"suspendedReason,omitempty"`
	SuspendedBy     *string    `json:"suspendedBy,omitempty"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// UserAction is a bulk-capable account state change.
type UserAction string

const (
	UserActionSuspend    UserAction = "suspend"
	UserActionActivate   UserAction = "activate"
	UserActionDeactivate UserAction = "deactivate"
	UserActionVerify     UserAction = "verify"
)

// ActionContext carries who applied an action and why.
type ActionContext struct {
	Actor  string
	Reason string
	At     time.Time
}

var userActions = map[UserAction]func(*User, ActionContext){
	UserActionSuspend: func(u *User, ac ActionContext) {
		at := ac.At
		u.Status = UserStatusSuspended
		u.IsActive = false
		u.SuspendedAt = &at
		u.SuspendedReason = optionalString(ac.Reason)
		u.SuspendedBy = optionalString(ac.Actor)
	},
	UserActionActivate: func(u *User, _ ActionContext) {
		u.Status = UserStatusActive
		u.IsActive = true
		u.clearSuspension()
	},
	UserActionDeactivate: func(u *User, _ ActionContext) {
		u.Status = UserStatusInactive
		u.IsActive = false
	},
	UserActionVerify: func(u *User, _ ActionContext) {
		u.EmailVerified = true
	},
}

func (a UserAction) Valid() bool {
	_, ok := userActions[a]
	return ok
}

// Apply runs the action against the user and refreshes UpdatedAt.
func (u *User) Apply(action UserAction, ac ActionContext) error {
	apply, ok := userActions[action]
	if !ok {
		return ErrUnknownAction
	}
	apply(u, ac)
	u.UpdatedAt = ac.At
	return nil
}

func (u *User) clearSuspension() {
	u.SuspendedAt = nil
	u.SuspendedReason = nil
	u.SuspendedBy = nil
}

// CanSignIn reports whether the account may authenticate.
func (u *User) CanSignIn() bool {
	return u.IsActive && u.Status == UserStatusActive
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
