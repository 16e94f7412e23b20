package models

import "time"

type Role string

const (
	RoleMotorist Role = "motorist"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Identity is the resolved caller passed into core services.
// The HTTP layer produces it from a bearer token; core code never
// sees tokens.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type PresenceStatus string

const (
	PresenceOffline PresenceStatus = "offline"
	PresenceOnline  PresenceStatus = "online"
	PresenceBusy    PresenceStatus = "busy"
)

func (s PresenceStatus) Valid() bool {
	switch s {
	case PresenceOffline, PresenceOnline, PresenceBusy:
		return true
	}
	return false
}

// ProviderProfile is the presence record for a provider user.
// Location is nullable: a provider that has never reported a position
// is not a matching candidate.
type ProviderProfile struct {
	UserID        string         `json:"user_id"`
	Status        PresenceStatus `json:"status"`
	Location      *Coordinate    `json:"location,omitempty"`
	ServiceTypes  []string       `json:"service_types"`
	Rating        float64        `json:"rating"`
	JobsCompleted int            `json:"jobs_completed"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestAssigned   RequestStatus = "assigned"
	RequestEnroute    RequestStatus = "enroute"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

type ServiceRequest struct {
	ID          string        `json:"id"`
	MotoristID  string        `json:"motorist_id"`
	ServiceType string        `json:"service_type"`
	Description string        `json:"description,omitempty"`
	Pickup      Coordinate    `json:"pickup"`
	ProviderID  string        `json:"provider_id,omitempty"` // empty until assigned, never cleared after
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type ProviderApplication struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	CompanyName     string            `json:"company_name,omitempty"`
	ServiceTypes    []string          `json:"service_types"`
	LicenseNumber   string            `json:"license_number,omitempty"`
	InsurancePolicy string            `json:"insurance_policy,omitempty"`
	Status          ApplicationStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID               string        `json:"id"`
	RequestID        string        `json:"request_id"`
	MotoristID       string        `json:"motorist_id"`
	ProviderID       string        `json:"provider_id,omitempty"`
	Amount           float64       `json:"amount"`
	Currency         string        `json:"currency"`
	Status           PaymentStatus `json:"status"`
	GatewayReference string        `json:"gateway_reference,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type Review struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	MotoristID string    `json:"motorist_id"`
	ProviderID string    `json:"provider_id"`
	Rating     int       `json:"rating"` // 1..5
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Dispute struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	RaisedBy  Role      `json:"raised_by"`
	Reason    string    `json:"reason"`
	Details   string    `json:"details,omitempty"`
	Status    string    `json:"status"` // open, in_review, resolved, dismissed
	CreatedAt time.Time `json:"created_at"`
}

type NotificationToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"` // ios, android, web
	CreatedAt time.Time `json:"created_at"`
}

// Candidate is one row of a nearby-provider query result.
// DistanceKm is rounded to 2 decimals for display; radius filtering
// happens on the unrounded value before the row is built.
type Candidate struct {
	ProviderID string     `json:"user_id"`
	Location   Coordinate `json:"location"`
	DistanceKm float64    `json:"distance_km"`
}

// Match is the assignment outcome returned from request creation.
type Match struct {
	ProviderID string `json:"provider_id"`
	ETAMinutes int    `json:"eta_min"`
}
