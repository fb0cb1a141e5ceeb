package models

import (
	"time"

	"github.com/danielhkuo/jamhub/form"
)

// Event status constants
const (
	StatusDraft     = "draft"
	StatusOpen      = "open"
	StatusConcluded = "concluded"
)

// Ranking method constants
const (
	MethodBMJ = "bmj"
)

// Invite status constants
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// Request types

type CreateEventRequest struct {
	Title                string     `json:"title" validate:"required,max=120"`
	Summary              string     `json:"summary" validate:"max=5000"`
	OrganizerName        string     `json:"organizer_name" validate:"required,max=80"`
	TeamSizeMax          int        `json:"team_size_max" validate:"omitempty,min=1,max=20"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
}

type UpdateEventRequest struct {
	Title                string     `json:"title" validate:"required,max=120"`
	Summary              string     `json:"summary" validate:"max=5000"`
	TeamSizeMax          int        `json:"team_size_max" validate:"required,min=1,max=20"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
}

type UpdateFormRequest struct {
	Questions []form.Question `json:"questions" validate:"max=100"`
}

type RegisterRequest struct {
	DisplayName string         `json:"display_name" validate:"required,min=2,max=50"`
	Answers     form.Answers   `json:"answers"`
	OtherText   form.OtherText `json:"other_text"`
}

type UpdateRegistrationRequest struct {
	Answers   form.Answers   `json:"answers"`
	OtherText form.OtherText `json:"other_text"`
}

type SeekingRequest struct {
	Seeking bool `json:"seeking"`
}

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

type JoinTeamRequest struct {
	InviteCode string `json:"invite_code" validate:"required,alphanum,max=16"`
}

type InviteRequest struct {
	RegistrationID string `json:"registration_id" validate:"required"`
}

type RespondInviteRequest struct {
	Accept bool `json:"accept"`
}

type SubmissionRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
	Link        string `json:"link" validate:"required,url"`
}

type AddJudgeRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

// submission_id -> value01 (0.0 to 1.0)
type SubmitScoresRequest struct {
	Scores map[string]float64 `json:"scores" validate:"required,min=1,dive,gte=0,lte=1"`
}

// Response types

type CreateEventResponse struct {
	EventID  string `json:"event_id"`
	AdminKey string `json:"admin_key"`
}

type PublishEventResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type UpdateFormResponse struct {
	Questions []form.Question `json:"questions"`
}

type RegisterResponse struct {
	RegistrationID   string `json:"registration_id"`
	ParticipantToken string `json:"participant_token"`
}

type MyRegistrationResponse struct {
	Registration Registration    `json:"registration"`
	Questions    []form.Question `json:"questions"`
	Answers      form.Answers    `json:"answers"`
	OtherText    form.OtherText  `json:"other_text"`
	Unrecognized form.Response   `json:"unrecognized,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreateTeamResponse struct {
	TeamID     string `json:"team_id"`
	InviteCode string `json:"invite_code"`
}

type InviteResponse struct {
	InviteID string `json:"invite_id"`
}

type SubmissionResponse struct {
	SubmissionID string `json:"submission_id"`
	Message      string `json:"message"`
}

type AddJudgeResponse struct {
	JudgeToken string `json:"judge_token"`
}

type ConcludeEventResponse struct {
	ConcludedAt time.Time      `json:"concluded_at"`
	Snapshot    ResultSnapshot `json:"snapshot"`
}

// Domain types

type Event struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	OrganizerName        string     `json:"organizer_name"`
	Status               string     `json:"status"`
	ShareSlug            *string    `json:"share_slug,omitempty"`
	TeamSizeMax          int        `json:"team_size_max"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
	ConcludedAt          *time.Time `json:"concluded_at,omitempty"`
	FinalSnapshotID      *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// EventView is an event with its parsed description
type EventView struct {
	Event                Event           `json:"event"`
	Summary              string          `json:"summary"`
	Questions            []form.Question `json:"questions"`
	RegistrationOpen     bool            `json:"registration_open"`
	RegistrationClosesIn string          `json:"registration_closes_in,omitempty"`
	RegistrationCount    int             `json:"registration_count"`
}

type Registration struct {
	ID          string        `json:"id"`
	EventID     string        `json:"event_id"`
	DisplayName string        `json:"display_name"`
	Response    form.Response `json:"response"`
	SeekingTeam bool          `json:"seeking_team"`
	TeamID      *string       `json:"team_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Seeker struct {
	RegistrationID string `json:"registration_id"`
	DisplayName    string `json:"display_name"`
}

type TeamMember struct {
	RegistrationID string    `json:"registration_id"`
	DisplayName    string    `json:"display_name"`
	IsLeader       bool      `json:"is_leader"`
	JoinedAt       time.Time `json:"joined_at"`
}

type Team struct {
	ID         string       `json:"id"`
	EventID    string       `json:"event_id"`
	Name       string       `json:"name"`
	LeaderID   string       `json:"leader_id"`
	Members    []TeamMember `json:"members"`
	OpenSlots  int          `json:"open_slots"`
	InviteCode string       `json:"invite_code,omitempty"` // members only
	CreatedAt  time.Time    `json:"created_at"`
}

type Invite struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Submission struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	TeamID      string    `json:"team_id"`
	TeamName    string    `json:"team_name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BMJ Result Types

type SubmissionStats struct {
	SubmissionID string  `json:"submission_id"`
	Title        string  `json:"title"`
	TeamName     string  `json:"team_name"`
	Median       float64 `json:"median"`
	P10          float64 `json:"p10"`
	P90          float64 `json:"p90"`
	Mean         float64 `json:"mean"`
	NegShare     float64 `json:"neg_share"`
	Veto         bool    `json:"veto"`
	Rank         int     `json:"rank"` // 1-indexed ranking
}

type ResultSnapshot struct {
	ID         string            `json:"id"`
	EventID    string            `json:"event_id"`
	Method     string            `json:"method"`
	ComputedAt time.Time         `json:"computed_at"`
	Rankings   []SubmissionStats `json:"rankings"`
	InputsHash string            `json:"inputs_hash"` // Hash of all scores for verification
}

// Error response

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
