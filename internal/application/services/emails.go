package services

import (
	"fmt"
	"html"
	"time"

	"ecodescarte-user-service/internal/domain/entities"
	"ecodescarte-user-service/internal/infrastructure"
)

func recoveryMessage(user *entities.User, link string, validFor time.Duration) infrastructure.Message {
	validity := formatValidity(validFor)
	return infrastructure.Message{
		To:      user.Email,
		Subject: "Recuperação de Senha",
		Text: fmt.Sprintf("Olá, %s.\n\nVocê solicitou a recuperação de senha. Para definir uma nova senha, acesse:\n%s\n\n"+
			"O link é válido por %s. Se você não fez esta solicitação, ignore este e-mail.\n",
			user.FullName, link, validity),
		HTML: fmt.Sprintf(`<h2>Recuperação de Senha</h2>
<p>Olá, %s.</p>
<p>Você solicitou a recuperação de senha. Clique no link abaixo para definir uma nova senha:</p>
<p><a href="%s">Redefinir senha</a></p>
<p>O link é válido por %s. Se você não fez esta solicitação, ignore este e-mail.</p>`,
			html.EscapeString(user.FullName), html.EscapeString(link), validity),
	}
}

// formatValidity renders a lifetime in Portuguese, in whole hours or minutes
// when it divides evenly.
func formatValidity(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hora", "horas")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minuto", "minutos")
	default:
		return plural(int((d+time.Second-1)/time.Second), "segundo", "segundos")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
