package di

import (
	"net/http"

	"go.uber.org/zap"

	"booklib-backend/application/ports"
	"booklib-backend/application/services"
	"booklib-backend/infrastructure/config"
	"booklib-backend/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      ports.Store
	Metadata   *services.MetadataService
	Dispatcher ports.MetadataDispatcher
	Accounts   *services.AccountService
	Library    *services.LibraryService
	Sessions   *auth.SessionManager
	Handler    http.Handler
}
