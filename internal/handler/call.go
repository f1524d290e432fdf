package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oggyb/exotel-gateway/internal/request"
	"github.com/oggyb/exotel-gateway/internal/response"
	"github.com/oggyb/exotel-gateway/internal/service"
	"github.com/oggyb/exotel-gateway/pkg/exotel"
)

// CallHandler exposes synchronous call placement and lookup.
type CallHandler struct {
	calls service.CallService
}

func NewCallHandler(calls service.CallService) *CallHandler {
	return &CallHandler{calls: calls}
}

// ConnectNumbers godoc
// @Summary     Connect two numbers
// @Description Dials "from"; once answered dials "to" and bridges them. callerId is shown to both.
// @Tags        calls
// @Accept      json
// @Produce     json
// @Param       request body request.ConnectNumbersRequest true "Call legs"
// @Success     200 {object} response.ResourceResponse
// @Failure     400 {object} response.ErrorResponse
// @Failure     429 {object} response.ErrorResponse
// @Failure     502 {object} response.ErrorResponse
// @Router      /calls/connect [post]
func (h *CallHandler) ConnectNumbers(w http.ResponseWriter, r *http.Request) {
	var req request.ConnectNumbersRequest
	if err := request.Decode(r.Body, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.calls.ConnectNumbers(r.Context(), exotel.CallRequest{
		From:           req.From,
		To:             req.To,
		CallerID:       req.CallerID,
		TimeLimit:      req.TimeLimit,
		TimeOut:        req.TimeOut,
		StatusCallback: req.StatusCallback,
	})
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.ResourcePayload{Kind: "call", Resource: res})
}

// ConnectToFlow godoc
// @Summary     Connect a number to a flow
// @Description Dials "to"; once answered hands the call to the flow identified by appId.
// @Tags        calls
// @Accept      json
// @Produce     json
// @Param       request body request.ConnectFlowRequest true "Flow call"
// @Success     200 {object} response.ResourceResponse
// @Failure     400 {object} response.ErrorResponse
// @Failure     429 {object} response.ErrorResponse
// @Failure     502 {object} response.ErrorResponse
// @Router      /calls/flow [post]
func (h *CallHandler) ConnectToFlow(w http.ResponseWriter, r *http.Request) {
	var req request.ConnectFlowRequest
	if err := request.Decode(r.Body, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.calls.ConnectToFlow(r.Context(), exotel.FlowRequest{
		To:             req.To,
		AppID:          req.AppID,
		CallerID:       req.CallerID,
		TimeLimit:      req.TimeLimit,
		TimeOut:        req.TimeOut,
		StatusCallback: req.StatusCallback,
		CustomField:    req.CustomField,
	})
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.ResourcePayload{Kind: "call", Resource: res})
}

// CallDetails godoc
// @Summary     Call details
// @Description Fetches the Call object from Exotel.
// @Tags        calls
// @Produce     json
// @Param       sid path string true "Call SID"
// @Success     200 {object} response.ResourceResponse
// @Failure     404 {object} response.ErrorResponse
// @Failure     429 {object} response.ErrorResponse
// @Router      /calls/{sid} [get]
func (h *CallHandler) CallDetails(w http.ResponseWriter, r *http.Request) {
	res, err := h.calls.CallDetails(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.ResourcePayload{Kind: "call", Resource: res})
}
