// Package routepath holds the canonical portal paths.
package routepath

const (
	Root          = "/"
	Login         = "/login"
	Logout        = "/logout"
	Health        = "/up"
	Dashboard     = "/dashboard"
	Departments   = "/departments"
	Users         = "/users"
	UsersActivate = "/users/activate"
)

// WithLanguage returns path with the lang query used to switch locales.
func WithLanguage(path, lang string) string {
	if lang == "" {
		return path
	}
	return path + "?lang=" + lang
}
