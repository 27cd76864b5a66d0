package services

import (
	"context"

	"busbook/internal/domain"
	"busbook/internal/domain/models"
	"busbook/internal/pusher"
	"busbook/internal/repositories"

	log "github.com/sirupsen/logrus"
)

// BusService exposes availability lookups and the admin status switch.
// Seat counters are never written here; that is the inventory service's job.
type BusService struct {
	BusRepo    repositories.BusRepo
	Dispatcher *pusher.Dispatcher
}

func (s BusService) GetBus(ctx context.Context, id int64) (models.Bus, error) {
	return s.BusRepo.GetByID(ctx, id)
}

func (s BusService) ListBuses(ctx context.Context) ([]models.Bus, error) {
	return s.BusRepo.List(ctx)
}

// UpdateStatus moves a bus between active/inactive/maintenance and fans the
// change out to dashboards.
func (s BusService) UpdateStatus(ctx context.Context, principal domain.Principal, id int64, status string) (models.Bus, error) {
	if !principal.IsAdmin() {
		return models.Bus{}, domain.ForbiddenError{Role: principal.Role, Op: "change bus status"}
	}
	switch status {
	case models.BusActive, models.BusInactive, models.BusMaintenance:
	default:
		return models.Bus{}, domain.ValidationError{Field: "status", Msg: "must be active, inactive or maintenance"}
	}

	b, err := s.BusRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return models.Bus{}, err
	}
	log.WithFields(log.Fields{"bus": id, "status": status}).Info("bus status changed")
	if s.Dispatcher != nil {
		s.Dispatcher.Dispatch(pusher.BusStatusChanged(b))
	}
	return b, nil
}
