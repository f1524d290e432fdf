package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	domain "github.com/oggyb/exotel-gateway/internal/domain/message"
	"github.com/oggyb/exotel-gateway/internal/request"
	"github.com/oggyb/exotel-gateway/internal/response"
	"github.com/oggyb/exotel-gateway/internal/scheduler"
	"github.com/oggyb/exotel-gateway/internal/service"
)

// MessageHandler wires HTTP endpoints to the outbox service
// and the background scheduler.
type MessageHandler struct {
	msgSvc service.MessageService
	schSvc scheduler.Scheduler
}

// NewMessageHandler constructs a new MessageHandler with its dependencies.
func NewMessageHandler(msgSvc service.MessageService, schSvc scheduler.Scheduler) *MessageHandler {
	return &MessageHandler{
		msgSvc: msgSvc,
		schSvc: schSvc,
	}
}

// StartStopScheduler godoc
// @Summary     Control scheduler
// @Description Starts or stops the background outbox scheduler.
// @Tags        scheduler
// @Accept      json
// @Produce     json
// @Param       request body request.SchedulerRequest true "Scheduler action (start|stop)"
// @Success     200 {object} response.SchedulerControlResponse
// @Failure     400 {object} response.ErrorResponse
// @Router      /scheduler [post]
func (h *MessageHandler) StartStopScheduler(w http.ResponseWriter, r *http.Request) {
	var req request.SchedulerRequest
	if err := request.Decode(r.Body, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := "scheduler started"
	control := h.schSvc.Start
	if req.Action == "stop" {
		msg = "scheduler stopped"
		control = h.schSvc.Stop
	}

	if err := control(); err != nil {
		response.RespondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, response.SchedulerControlPayload{
		Message: msg,
		Running: h.schSvc.IsRunning(),
	})
}

// SendMessage godoc
// @Summary     Queue an SMS
// @Description Puts an SMS in the outbox. The scheduler sends it through Exotel.
// @Tags        messages
// @Accept      json
// @Produce     json
// @Param       request body request.SendMessageRequest true "Message"
// @Success     202 {object} response.MessageResponse
// @Failure     400 {object} response.ErrorResponse
// @Router      /messages [post]
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req request.SendMessageRequest
	if err := request.Decode(r.Body, &req); err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.msgSvc.Enqueue(r.Context(), service.EnqueueInput{
		From:     req.From,
		To:       req.To,
		Body:     req.Body,
		Priority: req.Priority,
	})
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusAccepted, response.FromDomainMessage(msg))
}

// GetMessage godoc
// @Summary     Outbox message
// @Description Returns one outbox message by its gateway ID.
// @Tags        messages
// @Produce     json
// @Param       id path string true "Message ID (uuid)"
// @Success     200 {object} response.MessageResponse
// @Failure     400 {object} response.ErrorResponse
// @Failure     404 {object} response.ErrorResponse
// @Router      /messages/{id} [get]
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid message id")
		return
	}

	msg, err := h.msgSvc.Get(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.FromDomainMessage(msg))
}

// ListMessages godoc
// @Summary     List outbox messages
// @Description Returns a paginated list of outbox messages, optionally filtered by status.
// @Tags        messages
// @Produce     json
// @Param       status query string false "PENDING, SENT or FAILED"
// @Param       page   query int    false "Page number"         default(1)
// @Param       limit  query int    false "Page size (max 100)" default(20)
// @Success     200 {object} response.MessagesResponse
// @Failure     400 {object} response.ErrorResponse
// @Router      /messages [get]
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status, err := domain.ParseStatus(q.Get("status"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	page := 1
	limit := 20

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	items, total, err := h.msgSvc.List(r.Context(), status, page, limit)
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.MessagesPayload{
		Items: response.FromDomainMessages(items),
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// SMSDetails godoc
// @Summary     SMS details
// @Description Fetches the SMSMessage object from Exotel (cached briefly).
// @Tags        messages
// @Produce     json
// @Param       sid path string true "SMS SID"
// @Success     200 {object} response.ResourceResponse
// @Failure     404 {object} response.ErrorResponse
// @Failure     429 {object} response.ErrorResponse
// @Router      /sms/{sid} [get]
func (h *MessageHandler) SMSDetails(w http.ResponseWriter, r *http.Request) {
	res, err := h.msgSvc.SMSDetails(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		respondErr(w, err)
		return
	}

	response.RespondJSON(w, http.StatusOK, response.ResourcePayload{Kind: "sms", Resource: res})
}
