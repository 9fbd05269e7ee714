package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/opinio/app"
	"github.com/mbolis/opinio/httpx"
	"github.com/mbolis/opinio/log"
	"github.com/mbolis/opinio/survey"
)

// PublicGetSurvey returns the definition of an open survey to anyone.
func PublicGetSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := app.Service.PublicSurvey(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "get_public_survey", err)
			return
		}

		render.JSON(w, r, s)
	}
}

type submissionBody struct {
	Answers survey.Submission `json:"answers"`
}

// PublicSubmitResponse stores an anonymous response to an open survey.
func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := submissionBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		resp, err := app.Service.Submit(r.Context(), chi.URLParam(r, "id"), body.Answers)
		if err != nil {
			httpx.WriteError(w, r, "submit_response", err)
			return
		}

		log.WithFields(log.Fields{"survey": resp.SurveyID, "response": resp.ID}).Debug("response submitted")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": resp.ID,
		})
	}
}
