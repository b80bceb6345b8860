package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/movakid/shop-backend/api/responses"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
	pkgerrors "github.com/movakid/shop-backend/pkg/errors"
	"github.com/movakid/shop-backend/pkg/logger"
)

type subscriberLister interface {
	List(ctx context.Context) ([]models.Subscriber, error)
}

type subscriberResponse struct {
	ID        uuid.UUID              `json:"id"`
	Email     string                 `json:"email"`
	Status    enums.SubscriberStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
}

// AdminListSubscribers returns the newsletter list for export.
func AdminListSubscribers(repo subscriberLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriber repository unavailable"))
			return
		}

		subscribers, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]subscriberResponse, len(subscribers))
		for i, sub := range subscribers {
			payload[i] = subscriberResponse{
				ID:        sub.ID,
				Email:     sub.Email,
				Status:    sub.Status,
				CreatedAt: sub.CreatedAt,
			}
		}
		responses.WriteSuccess(w, payload)
	}
}
