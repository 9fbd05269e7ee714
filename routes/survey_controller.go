package routes

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/opinio/app"
	"github.com/mbolis/opinio/httpx"
	"github.com/mbolis/opinio/log"
	"github.com/mbolis/opinio/model"
	"github.com/mbolis/opinio/routes/middlewares"
	"github.com/mbolis/opinio/survey"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.SurveyInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s, err := app.Service.CreateSurvey(r.Context(), middlewares.CallerID(r), in)
		if err != nil {
			httpx.WriteError(w, r, "create_survey", err)
			return
		}

		log.WithFields(log.Fields{"survey": s.ID, "owner": s.OwnerID}).Debug("survey created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, s)
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := app.Service.ListSurveys(r.Context(), middlewares.CallerID(r))
		if err != nil {
			httpx.WriteError(w, r, "list_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := model.SurveyInput{}
		err := render.DecodeJSON(r.Body, &in)
		if err != nil {
			httpx.LogStatus(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		s, err := app.Service.UpdateSurvey(r.Context(), middlewares.CallerID(r), chi.URLParam(r, "id"), in)
		if err != nil {
			httpx.WriteError(w, r, "update_survey", err)
			return
		}

		render.JSON(w, r, s)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := app.Service.DeleteSurvey(r.Context(), middlewares.CallerID(r), id)
		if err != nil {
			httpx.WriteError(w, r, "delete_survey", err)
			return
		}

		log.WithFields(log.Fields{"survey": id}).Debug("survey deleted")
		render.JSON(w, r, map[string]any{
			"msg": "survey deleted",
		})
	}
}

func GetResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := app.Service.Results(r.Context(), middlewares.CallerID(r), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "get_results", err)
			return
		}

		render.JSON(w, r, results)
	}
}

type exportFormat struct {
	ext         string
	contentType string
	encode      func(io.Writer, model.Survey, []model.Response) error
}

var exportFormats = map[string]exportFormat{
	"csv":  {"csv", "text/csv; charset=utf-8", survey.EncodeCSV},
	"xlsx": {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", survey.EncodeXLSX},
}

// ExportResults sends every response of a survey as a file download.
// ?format= picks csv (the default) or xlsx.
func ExportResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("format")
		if name == "" {
			name = "csv"
		}
		format, ok := exportFormats[name]
		if !ok {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.export_format", "unsupported format %q", name)
			return
		}

		results, err := app.Service.Results(r.Context(), middlewares.CallerID(r), chi.URLParam(r, "id"))
		if err != nil {
			httpx.WriteError(w, r, "export_results", err)
			return
		}

		var buf bytes.Buffer
		err = format.encode(&buf, results.Survey, results.Responses)
		if err != nil {
			httpx.LogInternalError(w, r, "export_results.encode", err)
			return
		}

		w.Header().Set("Content-Type", format.contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": survey.ExportFilename(results.Survey, format.ext),
		}))
		w.Write(buf.Bytes())
	}
}
