package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/mbolis/opinio/app"
	"github.com/mbolis/opinio/log"
	"github.com/mbolis/opinio/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	requestLogger := middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.Logger,
		NoColor: true,
	})

	root := chi.NewRouter()
	root.Use(requestLogger, middleware.Recoverer)

	root.Get("/health", Health)
	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/register", Register(app))
	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))
	api.With(middlewares.Authenticated(app.TokenSecret)).Put("/profile", UpdateProfile(app))

	limiter := middlewares.NewRateLimiter(app.SubmitRate, app.SubmitBurst, 10*time.Minute)
	api.Route("/public/surveys/{id}", func(r chi.Router) {
		r.Get("/", PublicGetSurvey(app))
		r.With(middlewares.RateLimit(limiter, app.TrustProxy)).Post("/responses", PublicSubmitResponse(app))
	})

	api.Route("/surveys", func(r chi.Router) {
		r.Use(middlewares.Authenticated(app.TokenSecret))

		// CRUD survey
		r.Post("/", CreateSurvey(app))
		r.Get("/", ListSurveys(app))
		r.Put("/{id}", UpdateSurvey(app))
		r.Delete("/{id}", DeleteSurvey(app))

		r.Get("/{id}/results", GetResults(app))
		r.Get("/{id}/export", ExportResults(app))
	})

	return api
}

func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "ok",
	})
}
