package public

import (
	"net/mail"
	"strings"

	"github.com/louisbranch/smsportal/internal/services/portal/templates"
)

// DemoPassword is shared by the seeded demo accounts.
const DemoPassword = "adminpass"

var demoAccounts = []templates.DemoAccount{
	{Label: "Admin", Email: "admin@gmail.com"},
	{Label: "HOD", Email: "hod.cse@gmail.com"},
	{Label: "Faculty", Email: "faculty.cse@gmail.com"},
}

// loginInput is a submitted sign-in form.
type loginInput struct {
	Email    string
	Password string
}

// fieldErrors holds localization keys per invalid field.
type fieldErrors struct {
	Email    string
	Password string
}

func (f fieldErrors) empty() bool { return f.Email == "" && f.Password == "" }

func validateLogin(input loginInput) fieldErrors {
	var errs fieldErrors
	if !validEmail(input.Email) {
		errs.Email = "auth.login.email_invalid"
	}
	if input.Password == "" {
		errs.Password = "auth.login.password_required"
	}
	return errs
}

// validEmail accepts a bare address whose domain has a dot.
func validEmail(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return false
	}
	at := strings.LastIndex(raw, "@")
	domain := raw[at+1:]
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
