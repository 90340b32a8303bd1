package handler

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler/dto"
	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/validator"
)

type FareSplitter interface {
	Split(ctx context.Context, jurisdiction string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error)
}

type Split struct {
	s FareSplitter
	l logger.Logger
}

func NewSplit(s FareSplitter, l logger.Logger) *Split {
	return &Split{
		s: s,
		l: l,
	}
}

// SplitFare godoc
// @Summary      Split a fare
// @Description  Partitions a tax-inclusive fare into tax, platform commission and driver earnings
// @Tags         fares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.SplitReq true "Gross fare"
// @Success      200 {object} dto.SplitResp
// @Failure      422 {object} map[string]interface{}
// @Router       /fares/split [post]
func (h *Split) SplitFare(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "split_fare")

	var req dto.SplitReq
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	split, tariff, err := h.s.Split(ctx, req.Jurisdiction, *req.GrossFare)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to split fare", err)
		serviceErrorResponse(w, err)
		return
	}

	resp := dto.SplitResp{
		Jurisdiction: tariff.Jurisdiction,
		Currency:     tariff.Currency,
		FareSplit:    split,
	}
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
