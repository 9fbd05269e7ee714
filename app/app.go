package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/opinio/config"
	"github.com/mbolis/opinio/database"
	"github.com/mbolis/opinio/survey"
)

// App bundles what the controllers need.
type App struct {
	Store   *database.Store
	Service *survey.Service
	*oauth.BearerServer
	config.Config
}
