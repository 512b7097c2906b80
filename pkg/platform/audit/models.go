package audit

import "time"

// EventCategory classifies audit events by their primary purpose. Categories
// drive retention and routing: compliance events outlive operational ones.
type EventCategory string

const (
	// CategoryCompliance covers events with medical/legal significance:
	// donor registration, eligibility changes, emergency request outcomes.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication-relevant events.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// DonorID is the donor the action concerns, when there is one.
	DonorID string
	// EmergencyRequestID correlates events of a single SOS workflow.
	EmergencyRequestID string
	Action             string
	// Subject is free-form context: blood group, address, decision.
	Subject string
	Reason  string
	// RequestID is the HTTP correlation id from the request context.
	RequestID string
}

// Action names for the donor coordination domain.
type AuditEvent string

const (
	EventDonorRegistered     AuditEvent = "donor_registered"
	EventLoginFailed         AuditEvent = "login_failed"
	EventEligibilityUpdated  AuditEvent = "eligibility_updated"
	EventAvailabilityToggled AuditEvent = "availability_toggled"
	EventDonorListRemoval    AuditEvent = "donor_list_removal"
	EventRequestCreated      AuditEvent = "request_created"
	EventRequestAccepted     AuditEvent = "request_accepted"
	EventRequestDeclined     AuditEvent = "request_declined"
	EventNotificationFailed  AuditEvent = "notification_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDonorRegistered:    CategoryCompliance,
	EventEligibilityUpdated: CategoryCompliance,
	EventRequestCreated:     CategoryCompliance,
	EventRequestAccepted:    CategoryCompliance,
	EventRequestDeclined:    CategoryCompliance,

	EventLoginFailed: CategorySecurity,

	EventAvailabilityToggled: CategoryOperations,
	EventDonorListRemoval:    CategoryOperations,
	EventNotificationFailed:  CategoryOperations,
}

// Category returns the EventCategory for this action. Unknown actions default
// to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
