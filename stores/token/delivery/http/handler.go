package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bCtx "github.com/coinacci/travelmint-api/base/ctx"
	"github.com/coinacci/travelmint-api/base/delivery"
	"github.com/coinacci/travelmint-api/domain"
	dToken "github.com/coinacci/travelmint-api/domain/token"
)

type handler struct {
	token           dToken.UseCase
	scanner         domain.ScannerUseCase
	purchase        domain.PurchaseUseCase
	chainId         domain.ChainId
	contractAddress domain.Address
}

func New(
	e *echo.Echo,
	token dToken.UseCase,
	scanner domain.ScannerUseCase,
	purchase domain.PurchaseUseCase,
	chainId domain.ChainId,
	contractAddress domain.Address,
) {
	h := &handler{token, scanner, purchase, chainId, contractAddress.ToLower()}
	e.GET("/tokens", h.getTokens)
	e.GET("/tokens/:tokenId", h.getToken)
	e.POST("/tokens/sync", h.syncTokens)
	e.POST("/purchases/verify", h.verifyPurchase)
}

func (h *handler) getTokens(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type params struct {
		Owner     *domain.Address `query:"owner"`
		IsForSale *bool           `query:"isForSale"`
		SortBy    *string         `query:"sortBy"`
		SortDir   *domain.SortDir `query:"sortDir"`
		Offset    int32           `query:"offset"`
		Limit     int32           `query:"limit"`
	}

	p := &params{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	opts := []dToken.FindAllOptionsFunc{
		dToken.WithPagination(p.Offset, p.Limit),
	}
	if p.Owner != nil {
		opts = append(opts, dToken.WithOwner(*p.Owner))
	}
	if p.IsForSale != nil {
		opts = append(opts, dToken.WithIsForSale(*p.IsForSale))
	}
	if p.SortBy != nil && p.SortDir != nil {
		opts = append(opts, dToken.WithSort(*p.SortBy, *p.SortDir))
	}

	items, err := h.token.FindAll(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	count, err := h.token.Count(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}

	type response struct {
		Items []*dToken.Token `json:"items"`
		Count int             `json:"count"`
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, response{items, count})
}

func (h *handler) getToken(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type params struct {
		TokenId domain.TokenId `param:"tokenId"`
	}

	p := &params{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	res, err := h.token.FindOne(ctx, &dToken.Id{
		ChainId:         h.chainId,
		ContractAddress: h.contractAddress,
		TokenId:         p.TokenId,
	})
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, res)
}

// syncTokens reconciles the store with chain state on demand: an event
// catch-up from the checkpoints plus an ownership probe over a token id
// range. With no range it probes open-ended from the configured start.
func (h *handler) syncTokens(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type params struct {
		StartId uint64 `json:"startId"`
		EndId   uint64 `json:"endId"`
	}

	p := &params{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}

	if err := h.scanner.CatchUp(ctx); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}

	found, err := h.scanner.ScanRange(ctx, p.StartId, p.EndId)
	if err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}

	type response struct {
		TokensFound int `json:"tokensFound"`
	}
	return delivery.MakeJsonResp(_ctx, http.StatusOK, response{found})
}

func (h *handler) verifyPurchase(_ctx echo.Context) error {
	ctx := _ctx.Get("ctx").(bCtx.Ctx)
	type params struct {
		TxHash  domain.TxHash  `json:"txHash" validate:"required"`
		TokenId domain.TokenId `json:"tokenId" validate:"required"`
		Buyer   domain.Address `json:"buyer" validate:"required"`
	}

	p := &params{}
	if err := _ctx.Bind(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, "invalid params")
	}
	if err := _ctx.Validate(p); err != nil {
		return delivery.MakeJsonResp(_ctx, http.StatusBadRequest, err)
	}

	details, err := h.purchase.VerifyPurchase(ctx, p.TxHash, p.TokenId, p.Buyer)
	if err != nil {
		if ve, ok := domain.AsVerificationError(err); ok {
			type rejection struct {
				Reason domain.VerifyReason `json:"reason"`
				Detail string              `json:"detail"`
			}
			return delivery.MakeJsonResp(_ctx, http.StatusUnprocessableEntity, rejection{ve.Reason, ve.Detail})
		}
		return delivery.MakeJsonResp(_ctx, http.StatusInternalServerError, err)
	}

	// successful verification refreshes the record's sale state
	if err := h.token.RefreshListing(ctx, p.TokenId); err != nil {
		ctx.WithField("err", err).Warn("listing refresh after verification failed")
	}

	return delivery.MakeJsonResp(_ctx, http.StatusOK, details)
}
