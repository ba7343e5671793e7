package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/njprem/password-reset-api/internal/domain"
)

const resetEmailSubject = "Password Reset Request"

var resetEmailTemplate = template.Must(template.New("password-reset").Parse(`<p>You requested a password reset. Please click the link below to reset your password:</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>This link will expire in {{.ExpiresIn}}.</p>
<p>If you did not request this, please ignore this email.</p>
`))

func resetLink(frontendBaseURL, token string) string {
	return strings.TrimRight(frontendBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func buildResetEmail(to, link string, ttl time.Duration) (domain.EmailMessage, error) {
	var body bytes.Buffer
	data := struct {
		Link      string
		ExpiresIn string
	}{Link: link, ExpiresIn: humanizeTTL(ttl)}
	if err := resetEmailTemplate.Execute(&body, data); err != nil {
		return domain.EmailMessage{}, fmt.Errorf("render reset email: %w", err)
	}
	return domain.EmailMessage{To: to, Subject: resetEmailSubject, HTMLBody: body.String()}, nil
}

// humanizeTTL renders ttl in the largest whole unit that divides it exactly.
func humanizeTTL(ttl time.Duration) string {
	switch {
	case ttl >= time.Hour && ttl%time.Hour == 0:
		return plural(int64(ttl/time.Hour), "hour")
	case ttl >= time.Minute && ttl%time.Minute == 0:
		return plural(int64(ttl/time.Minute), "minute")
	default:
		return plural(int64(ttl/time.Second), "second")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
