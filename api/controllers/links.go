package controllers

import (
	"net/http"

	"github.com/angelmondragon/medicarehub-backend/api/responses"
	"github.com/angelmondragon/medicarehub-backend/api/validators"
	"github.com/angelmondragon/medicarehub-backend/internal/messaging"
	"github.com/angelmondragon/medicarehub-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/medicarehub-backend/pkg/errors"
	"github.com/angelmondragon/medicarehub-backend/pkg/logger"
)

type chatLinkRequest struct {
	StoreID int    `json:"storeId" validate:"omitempty,gt=0"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
	Message string `json:"message" validate:"max=2000"`
}

// ChatLink renders a click-to-chat link to a store's number, or to an
// explicit phone such as a customer's.
func ChatLink(linker *messaging.Linker, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if linker == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messaging unavailable"))
			return
		}
		var body chatLinkRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		phone := body.Phone
		if body.StoreID > 0 {
			store, err := storeSvc.GetByID(r.Context(), body.StoreID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			phone = store.WhatsApp
		}
		link, err := linker.Link(phone, body.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": link})
	}
}
