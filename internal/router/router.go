package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	_ "github.com/oggyb/exotel-gateway/internal/docs" // swagger docs
	"github.com/oggyb/exotel-gateway/internal/response"
	httpSwagger "github.com/swaggo/http-swagger"
)

type AppDeps struct {
	Home    HomeHandler
	Message MessageHandler
	Call    CallHandler
	Metrics http.Handler
}

type HomeHandler interface {
	Index(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type MessageHandler interface {
	SendMessage(w http.ResponseWriter, r *http.Request)
	ListMessages(w http.ResponseWriter, r *http.Request)
	GetMessage(w http.ResponseWriter, r *http.Request)
	SMSDetails(w http.ResponseWriter, r *http.Request)
	StartStopScheduler(w http.ResponseWriter, r *http.Request)
}

type CallHandler interface {
	ConnectNumbers(w http.ResponseWriter, r *http.Request)
	ConnectToFlow(w http.ResponseWriter, r *http.Request)
	CallDetails(w http.ResponseWriter, r *http.Request)
}

// Register mounts every route group whose handler is set. Home is required.
func Register(r chi.Router, d AppDeps) {
	r.Get("/", d.Home.Index)
	r.Get("/health", d.Home.Health)

	if d.Call != nil {
		r.Route("/calls", func(r chi.Router) {
			r.Post("/connect", d.Call.ConnectNumbers)
			r.Post("/flow", d.Call.ConnectToFlow)
			r.Get("/{sid}", d.Call.CallDetails)
		})
	}

	if d.Message != nil {
		r.Route("/messages", func(r chi.Router) {
			r.Post("/", d.Message.SendMessage)
			r.Get("/", d.Message.ListMessages)
			r.Get("/{id}", d.Message.GetMessage)
		})
		r.Get("/sms/{sid}", d.Message.SMSDetails)
		r.Post("/scheduler", d.Message.StartStopScheduler)
	}

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RespondError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}
