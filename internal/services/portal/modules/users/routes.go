package users

import (
	"net/http"

	"github.com/louisbranch/smsportal/internal/services/portal/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	mux.HandleFunc(http.MethodGet+" "+routepath.Users, h.handleIndex)
	mux.HandleFunc(http.MethodPost+" "+routepath.UsersActivate, h.handleActivate)
	mux.HandleFunc(http.MethodGet+" "+routepath.Users+"/{rest...}", h.handleNotFound)
}
