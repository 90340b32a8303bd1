package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler/dto"
	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	farecalc "github.com/kompa2go/kommute-fare/internal/service/calculator"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/validator"
)

type AdminService interface {
	EstimateRevenue(ctx context.Context, jurisdiction string, tripsPerDay int64, avgFareExclTax decimal.Decimal) (models.RevenueEstimate, error)
	SettledRevenue(ctx context.Context, jurisdiction string, period types.Period) (models.SettledRevenue, error)
	GetSettlement(ctx context.Context, tripID string) (models.Settlement, error)
	ListTariffs(ctx context.Context) ([]models.Tariff, error)
	GetTariff(ctx context.Context, jurisdiction string) (models.Tariff, error)
	PutTariff(ctx context.Context, t models.Tariff) (models.Tariff, error)
}

type Admin struct {
	s AdminService
	l logger.Logger
}

func NewAdmin(s AdminService, l logger.Logger) *Admin {
	return &Admin{
		s: s,
		l: l,
	}
}

func readJurisdiction(v *validator.Validator, raw string) string {
	j := strings.ToUpper(strings.TrimSpace(raw))
	if j != "" {
		v.Check(validator.Matches(j, validator.JurisdictionRX), "jurisdiction", "must be an ISO 3166 code")
	}
	return j
}

// EstimateRevenue godoc
// @Summary      Revenue projection
// @Description  Projects commission, driver earnings and IVA for a daily trip volume
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        trips_per_day query int    true  "Trips per day"
// @Param        avg_fare      query string true  "Average fare before tax"
// @Param        jurisdiction  query string false "Jurisdiction code"
// @Success      200 {object} models.RevenueEstimate
// @Failure      422 {object} map[string]interface{} "Invalid or too large trips_per_day"
// @Router       /admin/revenue/estimate [get]
func (h *Admin) EstimateRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_estimate_revenue")

	v := validator.New()
	qs := r.URL.Query()

	tripsPerDay := readInt(qs, "trips_per_day", -1, v)
	avgFare := readDecimal(qs, "avg_fare", decimal.NewFromInt(-1), v)
	jurisdiction := readJurisdiction(v, qs.Get("jurisdiction"))

	v.Check(tripsPerDay >= 0, "trips_per_day", "must be provided and not negative")
	v.Check(validator.Between(tripsPerDay, 0, farecalc.MaxTripsPerDay), "trips_per_day", fmt.Sprintf("must not exceed %d", int64(farecalc.MaxTripsPerDay)))
	v.Check(!avgFare.IsNegative(), "avg_fare", "must be provided and not negative")
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	estimate, err := h.s.EstimateRevenue(ctx, jurisdiction, tripsPerDay, avgFare)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to estimate revenue", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, estimate, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// SettledRevenue godoc
// @Summary      Settled revenue
// @Description  Sums the settlements of the period that ends now
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        period       query string false "daily, weekly, monthly or annual" default(daily)
// @Param        jurisdiction query string false "Jurisdiction code"
// @Success      200 {object} models.SettledRevenue
// @Router       /admin/revenue/settled [get]
func (h *Admin) SettledRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_settled_revenue")

	v := validator.New()
	qs := r.URL.Query()

	period := types.Period(strings.ToLower(readString(qs, "period", string(types.Daily))))
	jurisdiction := readJurisdiction(v, qs.Get("jurisdiction"))
	v.Check(validator.PermittedValue(period, types.Periods()...), "period", "must be daily, weekly, monthly or annual")

	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	revenue, err := h.s.SettledRevenue(ctx, jurisdiction, period)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get settled revenue", err)
		serviceErrorResponse(w, err)
		return
	}

	h.l.Debug(ctx, "fetched settled revenue", "trips", revenue.Trips, "period", period)

	if err := writeJSON(w, http.StatusOK, revenue, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// GetSettlement godoc
// @Summary      Settlement of a trip
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        trip_id path string true "Trip ID"
// @Success      200 {object} models.Settlement
// @Failure      404 {object} map[string]interface{}
// @Router       /admin/settlements/{trip_id} [get]
func (h *Admin) GetSettlement(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_get_settlement")

	tripID := strings.TrimSpace(r.PathValue("trip_id"))
	if tripID == "" {
		badRequestResponse(w, "trip id must be provided")
		return
	}

	settlement, err := h.s.GetSettlement(ctx, tripID)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to get settlement", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, settlement, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// ListTariffs godoc
// @Summary      List tariffs
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{}
// @Router       /admin/tariffs [get]
func (h *Admin) ListTariffs(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_list_tariffs")

	tariffs, err := h.s.ListTariffs(ctx)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list tariffs", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"tariffs": tariffs}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// GetTariff godoc
// @Summary      Tariff of a jurisdiction
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        jurisdiction path string true "Jurisdiction code"
// @Success      200 {object} models.Tariff
// @Failure      404 {object} map[string]interface{}
// @Router       /admin/tariffs/{jurisdiction} [get]
func (h *Admin) GetTariff(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_get_tariff")

	v := validator.New()
	jurisdiction := readJurisdiction(v, r.PathValue("jurisdiction"))
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tariff, err := h.s.GetTariff(ctx, jurisdiction)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to get tariff", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, tariff, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// PutTariff godoc
// @Summary      Create or replace a tariff
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        jurisdiction path string        true "Jurisdiction code"
// @Param        request      body dto.TariffReq true "Tariff"
// @Success      200 {object} models.Tariff
// @Failure      422 {object} map[string]interface{}
// @Router       /admin/tariffs/{jurisdiction} [put]
func (h *Admin) PutTariff(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "admin_put_tariff")
	jurisdiction := r.PathValue("jurisdiction")

	var req dto.TariffReq
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v, jurisdiction)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tariff, err := h.s.PutTariff(ctx, req.ToModel(jurisdiction))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to store tariff", err)
		serviceErrorResponse(w, err)
		return
	}

	h.l.Info(ctx, "tariff stored", "jurisdiction", tariff.Jurisdiction)

	if err := writeJSON(w, http.StatusOK, tariff, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
