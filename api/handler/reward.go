package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/api/transport"
	"github.com/OmChannawar/Listify/pkg/httpcontext"
	rewardUC "github.com/OmChannawar/Listify/usecase/reward"
)

type RewardHandler struct {
	baseHandler
	uc *rewardUC.UseCase
}

func NewRewardHandler(uc *rewardUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *RewardHandler {
	return &RewardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Reward catalog
// @Tags rewards
// @Router /api/v1/rewards [get]
func (h *RewardHandler) Catalog(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.uc.Catalog())
}

// @Summary Purchase reward
// @Tags rewards
// @Router /api/v1/rewards/purchase [post]
func (h *RewardHandler) Purchase(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.PurchaseRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var price int
	if req.Price != nil {
		price = *req.Price
	} else {
		item, err := h.uc.Reward(req.RewardID)
		if err != nil {
			h.respondError(stdCtx, ctx, err)
			return
		}
		price = item.Price
	}

	profile, err := h.uc.Purchase(stdCtx, userID, req.RewardID, price)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, profile)
}
