package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/verdantmarket/cartsync/api/controllers/cart/dto"
	"github.com/verdantmarket/cartsync/api/middleware"
	"github.com/verdantmarket/cartsync/api/responses"
	"github.com/verdantmarket/cartsync/api/validators"
	cartsvc "github.com/verdantmarket/cartsync/internal/cart"
	"github.com/verdantmarket/cartsync/internal/catalog"
	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
)

// CartFetch returns the session's published cart.
func CartFetch(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), sess.Store().Cart()))
	}
}

// CartAddLine upserts one line; the catalog supplies the snapshot attached to
// a new line.
func CartAddLine(manager *cartsvc.Manager, catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload dto.AddLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := toAddLineInput(r.Context(), catalogSvc, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := sess.Store().AddLine(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), cart))
	}
}

// CartAddBatch applies several adds as one mutation.
func CartAddBatch(manager *cartsvc.Manager, catalogSvc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload dto.AddBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(payload.Items) != len(payload.Quantities) {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "items and quantities length mismatch"))
			return
		}

		inputs := make([]cartsvc.AddLineInput, 0, len(payload.Items))
		for _, item := range payload.Items {
			input, err := toAddLineInput(r.Context(), catalogSvc, item)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			inputs = append(inputs, input)
		}

		cart, err := sess.Store().AddMany(r.Context(), inputs, payload.Quantities)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), cart))
	}
}

// CartSetQuantity sets a line's quantity exactly; zero or below removes it.
func CartSetQuantity(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload dto.SetQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := sess.Store().SetQuantity(r.Context(), payload.ItemID, payload.VariantID, payload.BundleID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), cart))
	}
}

// CartRemoveLine deletes the matching line; removing a missing one succeeds.
func CartRemoveLine(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload dto.RemoveLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := sess.Store().RemoveLine(r.Context(), payload.ItemID, payload.VariantID, payload.BundleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), cart))
	}
}

// CartClear empties the session's cart.
func CartClear(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cart, err := sess.Store().Clear(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), cart))
	}
}

// CartMerge runs the guest-to-user transition. It needs both identities: the
// bearer token names the user, the guest token names the cart being absorbed.
// A failed merge keeps the guest cart persisted and reports a retryable error.
func CartMerge(manager *cartsvc.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		guestToken := middleware.GuestTokenFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "merge requires a signed-in user"))
			return
		}
		if guestToken == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "merge requires the guest token"))
			return
		}

		sess, err := manager.SignIn(r.Context(), guestToken, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Mode(), sess.Store().Cart()))
	}
}

func sessionFromRequest(manager *cartsvc.Manager, r *http.Request) (*cartsvc.Session, error) {
	if manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart manager unavailable")
	}
	ctx := r.Context()
	if userID := middleware.UserIDFromContext(ctx); userID != uuid.Nil {
		return manager.Authenticated(ctx, userID)
	}
	return manager.Guest(ctx, middleware.GuestTokenFromContext(ctx))
}
