package model

// Role collaborator role on a whiteboard
type Role string

const (
	RoleViewer    Role = "viewer"
	RoleEditor    Role = "editor"
	RolePresenter Role = "presenter"
)

func (r Role) String() string {
	return string(r)
}

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RolePresenter:
		return true
	}
	return false
}

// Permissions capability bundle attached to a collaborator role
type Permissions struct {
	CanDraw        bool `json:"canDraw"`
	CanEdit        bool `json:"canEdit"`
	CanManageUsers bool `json:"canManageUsers"`
	CanPresentMode bool `json:"canPresentMode"`
}

// rolePermissions is the fixed role -> capability table. Roles are a closed
// enumeration; permission bundles are never mutated per collaborator.
var rolePermissions = map[Role]Permissions{
	RoleViewer: {
		CanDraw:        false,
		CanEdit:        false,
		CanManageUsers: false,
		CanPresentMode: false,
	},
	RoleEditor: {
		CanDraw:        true,
		CanEdit:        true,
		CanManageUsers: false,
		CanPresentMode: false,
	},
	RolePresenter: {
		CanDraw:        true,
		CanEdit:        true,
		CanManageUsers: true,
		CanPresentMode: true,
	},
}

// PermissionsFor returns the capability bundle for a role
func (r Role) PermissionsFor() Permissions {
	return rolePermissions[r]
}

// DrawAction tag on a relayed canvas operation
type DrawAction string

const (
	DrawActionAdd    DrawAction = "add"
	DrawActionModify DrawAction = "modify"
	DrawActionRemove DrawAction = "remove"
)

func (a DrawAction) String() string {
	return string(a)
}

// Valid reports whether the action is one of the known values
func (a DrawAction) Valid() bool {
	switch a {
	case DrawActionAdd, DrawActionModify, DrawActionRemove:
		return true
	}
	return false
}

// Poll validation bounds (mirrored in the REST layer responses)
const (
	PollQuestionMinLen = 5
	PollQuestionMaxLen = 500
	PollOptionMinCount = 2
	PollOptionMaxCount = 10
	PollOptionMaxLen   = 200
	PollDurationMinMin = 1
	PollDurationMaxMin = 1440
)
