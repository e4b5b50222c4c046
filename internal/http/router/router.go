package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"volunteer-api/internal/db"
	"volunteer-api/internal/http/handlers"
	"volunteer-api/internal/http/middleware"
	"volunteer-api/internal/models"
	"volunteer-api/internal/security"
)

type Options struct {
	LoginPerMinute int
	CSRFKey        []byte // empty disables CSRF protection
	SecureCookies  bool
}

func Setup(pool db.Pool, sessionStore *security.SessionStore, opts Options) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.NotFound)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(pool, sessionStore, security.BcryptVerifier{})
	eventHandler := handlers.NewEventHandler(pool)
	mailListHandler := handlers.NewMailListHandler(pool)

	executive := middleware.RequireRole(sessionStore, models.RoleExecutive)
	limiter := middleware.NewRateLimiter(opts.LoginPerMinute)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = r.NotFoundHandler
	api.MethodNotAllowedHandler = r.MethodNotAllowedHandler

	api.HandleFunc("/user", authHandler.Current).Methods("GET")
	api.Handle("/user/login", limiter.Limit(http.HandlerFunc(authHandler.Login))).Methods("POST")
	api.HandleFunc("/user/logout", authHandler.Logout)

	api.HandleFunc("/events", eventHandler.List).Methods("GET")

	api.Handle("/mailing-list", executive(http.HandlerFunc(mailListHandler.List))).Methods("GET")
	api.Handle("/mailing-list/{id}", executive(http.HandlerFunc(mailListHandler.Save))).Methods("POST")
	api.Handle("/mailing-list/{id}", executive(http.HandlerFunc(mailListHandler.Delete))).Methods("DELETE")
	api.HandleFunc("/mailing-list/{id}/signup", mailListHandler.Signup).Methods("POST")

	var h http.Handler = r
	if len(opts.CSRFKey) > 0 {
		h = middleware.CSRF(opts.CSRFKey, opts.SecureCookies)(h)
	}
	return middleware.RequestLogger(h)
}
