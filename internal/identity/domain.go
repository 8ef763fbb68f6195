package identity

import "time"

// EmploymentType classifies the employment relationship.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FULL_TIME"
	EmploymentPartTime   EmploymentType = "PART_TIME"
	EmploymentContractor EmploymentType = "CONTRACTOR"
)

// OnboardingStatus tracks progress through the onboarding workflow, which
// itself lives outside this service.
type OnboardingStatus string

const (
	OnboardingPending    OnboardingStatus = "PENDING"
	OnboardingInProgress OnboardingStatus = "IN_PROGRESS"
	OnboardingCompleted  OnboardingStatus = "COMPLETED"
)

// PTOBalances holds paid-time-off balances in hours.
type PTOBalances struct {
	Vacation float64
	Sick     float64
	Personal float64
}

// Identity represents an employee account. Email uniquely identifies one
// identity. PasswordHash never leaves the verifier boundary.
type Identity struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	Role             string
	EmploymentType   EmploymentType
	OnboardingStatus OnboardingStatus
	PTO              PTOBalances
	IsActive         bool
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
