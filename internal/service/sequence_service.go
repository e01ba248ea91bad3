package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/booking-engine-api/internal/models"
)

const fallbackDisplayName = "USER"

type sequenceRepository interface {
	Next(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, day time.Time) (int, error)
}

type userReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, id string) (*models.User, error)
}

// SequenceService mints submission display ids of the form YYMMDD_LASTNAME_NNNN.
type SequenceService struct {
	counters sequenceRepository
	users    userReader
	location *time.Location
	now      func() time.Time
}

// NewSequenceService constructs SequenceService; loc decides which calendar day a submission belongs to.
func NewSequenceService(counters sequenceRepository, users userReader, loc *time.Location) *SequenceService {
	if loc == nil {
		loc = time.UTC
	}
	return &SequenceService{counters: counters, users: users, location: loc, now: time.Now}
}

// NextDisplayID increments the tenant's counter for today inside exec and
// formats the id. It must run in the same transaction as the reservation insert.
func (s *SequenceService) NextDisplayID(ctx context.Context, exec sqlx.ExtContext, tenant models.TenantScope, actorID string) (string, error) {
	today := s.now().In(s.location)

	name := fallbackDisplayName
	if s.users != nil {
		if user, err := s.users.FindByID(ctx, exec, tenant, actorID); err == nil && user != nil {
			name = displayName(user.LastName)
		}
	}

	next, err := s.counters.Next(ctx, exec, tenant, today)
	if err != nil {
		return "", storageError(err, "failed to allocate display id")
	}
	return FormatDisplayID(today, name, next), nil
}

// FormatDisplayID renders the display id for a date, owner name part and counter value.
func FormatDisplayID(day time.Time, name string, number int) string {
	return fmt.Sprintf("%s_%s_%04d", day.Format("060102"), name, number)
}

func displayName(lastName string) string {
	fields := strings.Fields(lastName)
	if len(fields) == 0 {
		return fallbackDisplayName
	}
	return strings.ToUpper(fields[0])
}
