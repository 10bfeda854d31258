package mailer

import "fmt"

func VerificationEmail(frontendURL, username, token string) (subject, body string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", frontendURL, token)
	subject = "Verifica tu email - Pet HealthCare"
	body = fmt.Sprintf(`<h1>¡Bienvenido, %s! 🐾</h1>
<p>Gracias por registrarte en <strong>Pet HealthCare</strong>.</p>
<p>Para completar tu registro, verifica tu email:</p>
<p><a href="%s">Verificar Email</a></p>
<p>Si el botón no funciona, copia este enlace: %s</p>`, username, link, link)
	return subject, body
}

func PasswordResetEmail(frontendURL, username, token string) (subject, body string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, token)
	subject = "Restablece tu contraseña - Pet HealthCare"
	body = fmt.Sprintf(`<h1>Hola, %s</h1>
<p>Recibimos una solicitud para restablecer tu contraseña.</p>
<p><a href="%s">Restablecer contraseña</a></p>
<p>Si no fuiste tú, ignora este mensaje. El enlace expira en 1 hora.</p>`, username, link)
	return subject, body
}
