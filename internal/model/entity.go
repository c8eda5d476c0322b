package model

import "time"

// =============================================================================
// User
// =============================================================================

type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// =============================================================================
// Whiteboard
// =============================================================================

// Viewport presenter viewport dimensions
type Viewport struct {
	Width  int `gorm:"column:viewport_width" json:"width"`
	Height int `gorm:"column:viewport_height" json:"height"`
}

// ViewState presenter camera state shared with followers
type ViewState struct {
	Zoom     float64  `json:"zoom"`
	PanX     float64  `json:"panX"`
	PanY     float64  `json:"panY"`
	Viewport Viewport `gorm:"embedded" json:"viewport"`
}

// PresenterMode sub-state of a whiteboard. At most one presenter is active
// at a time; only the owner or the active presenter may end it.
type PresenterMode struct {
	IsActive    bool       `json:"isActive"`
	PresenterID *int64     `json:"presenterId,omitempty"`
	ViewState   ViewState  `gorm:"embedded;embeddedPrefix:view_" json:"viewState"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
}

// DefaultViewState initial presenter camera
func DefaultViewState() ViewState {
	return ViewState{
		Zoom: 1,
		Viewport: Viewport{
			Width:  1920,
			Height: 1080,
		},
	}
}

type Whiteboard struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`
	OwnerID       int64          `gorm:"not null;index" json:"owner_id"`
	CanvasData    string         `gorm:"type:text" json:"canvas_data"`
	IsPublic      bool           `gorm:"default:false" json:"is_public"`
	PresenterMode PresenterMode  `gorm:"embedded;embeddedPrefix:presenter_" json:"presenter_mode"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	Owner         *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Collaborators []Collaborator `gorm:"foreignKey:WhiteboardID" json:"collaborators,omitempty"`
}

func (Whiteboard) TableName() string {
	return "whiteboards"
}

// Collaborator a user granted access to a whiteboard, with a role-derived
// permission bundle snapshot taken at assignment time.
type Collaborator struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	WhiteboardID int64       `gorm:"not null;uniqueIndex:idx_collab_board_user" json:"whiteboard_id"`
	UserID       int64       `gorm:"not null;uniqueIndex:idx_collab_board_user" json:"user_id"`
	Role         Role        `gorm:"type:varchar(20);not null;default:'editor'" json:"role"`
	Permissions  Permissions `gorm:"embedded;embeddedPrefix:perm_" json:"permissions"`
	AssignedBy   int64       `gorm:"not null" json:"assigned_by"`
	AssignedAt   time.Time   `gorm:"autoCreateTime" json:"assigned_at"`
	User         *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Collaborator) TableName() string {
	return "collaborators"
}

// =============================================================================
// Poll / Vote
// =============================================================================

type Poll struct {
	ID                 int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	WhiteboardID       int64        `gorm:"not null;index:idx_polls_board_active" json:"whiteboard_id"`
	CreatedBy          int64        `gorm:"not null" json:"created_by"`
	Question           string       `gorm:"type:varchar(500);not null" json:"question"`
	Options            []PollOption `gorm:"foreignKey:PollID" json:"options"`
	IsActive           bool         `gorm:"default:true;index:idx_polls_board_active" json:"is_active"`
	AllowMultipleVotes bool         `gorm:"default:false" json:"allow_multiple_votes"`
	// Duration in minutes; ExpiresAt is fixed at creation and never recomputed.
	Duration   int       `gorm:"not null" json:"duration"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
	TotalVotes int64     `gorm:"default:0" json:"total_votes"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	Creator    *User     `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Poll) TableName() string {
	return "polls"
}

// PollOption a single choice; Index values are contiguous from zero.
type PollOption struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	PollID int64  `gorm:"not null;index" json:"-"`
	Index  int    `gorm:"column:option_index;not null" json:"index"`
	Text   string `gorm:"type:varchar(200);not null" json:"text"`
}

func (PollOption) TableName() string {
	return "poll_options"
}

// Vote append-only record of a cast vote; never mutated or deleted.
type Vote struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PollID       int64     `gorm:"not null;index:idx_votes_poll_user" json:"poll_id"`
	UserID       int64     `gorm:"not null;index:idx_votes_poll_user" json:"user_id"`
	WhiteboardID int64     `gorm:"not null;index" json:"whiteboard_id"`
	OptionIndex  int       `gorm:"not null" json:"option_index"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}
