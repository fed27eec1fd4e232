package service

import (
	"context"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"
)

// DashboardMetrics are the admin dashboard headline counts.
type DashboardMetrics struct {
	Athletes            int64 `json:"athletes"`
	Coaches             int64 `json:"coaches"`
	ConfirmedBookings   int64 `json:"confirmedBookings"`
	FinishedBookings    int64 `json:"finishedBookings"`
	CancelledBookings   int64 `json:"cancelledBookings"`
	PendingReschedules  int64 `json:"pendingReschedules"`
	ActiveSubscriptions int64 `json:"activeSubscriptions"`
}

// --- Service Interface ---
type AdminService interface {
	Dashboard(ctx context.Context) (*DashboardMetrics, error)
}

// --- Service Implementation ---

type adminService struct {
	userRepo         repository.UserRepository
	bookingRepo      repository.BookingRepository
	subscriptionRepo repository.SubscriptionRepository
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(
	userRepo repository.UserRepository,
	bookingRepo repository.BookingRepository,
	subscriptionRepo repository.SubscriptionRepository,
) AdminService {
	return &adminService{
		userRepo:         userRepo,
		bookingRepo:      bookingRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

func (s *adminService) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	metrics := &DashboardMetrics{}

	counts := []struct {
		dst   *int64
		count func() (int64, error)
	}{
		{&metrics.Athletes, func() (int64, error) { return s.userRepo.CountByRole(ctx, domain.RoleAthlete) }},
		{&metrics.Coaches, func() (int64, error) { return s.userRepo.CountByRole(ctx, domain.RoleCoach) }},
		{&metrics.ConfirmedBookings, func() (int64, error) { return s.bookingRepo.CountByStatus(ctx, domain.BookingConfirmed) }},
		{&metrics.FinishedBookings, func() (int64, error) { return s.bookingRepo.CountByStatus(ctx, domain.BookingFinished) }},
		{&metrics.CancelledBookings, func() (int64, error) { return s.bookingRepo.CountByStatus(ctx, domain.BookingCancelled) }},
		{&metrics.PendingReschedules, func() (int64, error) { return s.bookingRepo.CountByStatus(ctx, domain.BookingRescheduleRequest) }},
		{&metrics.ActiveSubscriptions, func() (int64, error) { return s.subscriptionRepo.CountByStatus(ctx, domain.SubscriptionActive) }},
	}

	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return metrics, nil
}
