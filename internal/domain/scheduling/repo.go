package scheduling

import (
	"context"
)

type AppointmentRepository interface {
	// Save writes the appointment, replacing any stored value with its id.
	Save(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Appointment, error)
}

type AvailabilityRepository interface {
	Get(ctx context.Context, doctorID string) (*Availability, error)
	Put(ctx context.Context, doctorID string, a *Availability) error
	// All returns every availability record keyed by doctor id.
	All(ctx context.Context) (map[string]*Availability, error)
}
