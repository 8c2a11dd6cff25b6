package mail

import "fmt"

// VerificationEmail builds the account verification message.
// The link points at the frontend, which posts the token back to the API.
func VerificationEmail(to, name, token, frontendURL string) Message {
	link := fmt.Sprintf("%s/verify-email/%s", frontendURL, token)

	text := fmt.Sprintf(`Hi %s,

Thank you for registering! Please verify your email address by visiting the link below:

%s

This link expires in 1 hour. If you did not create an account, you can safely ignore this email.
`, name, link)

	html := fmt.Sprintf(`<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Verify Your Email Address</h1>
  <p>Hi %s,</p>
  <p>Thank you for registering! Please verify your email address by clicking the button below:</p>
  <p><a href="%s" style="display: inline-block; padding: 12px 24px; background: #2d8a4e; color: #fff; text-decoration: none; border-radius: 4px;">Verify Email</a></p>
  <p>Or copy this link into your browser:</p>
  <p><a href="%s">%s</a></p>
  <p>This link expires in <strong>1 hour</strong>. If you did not create an account, you can safely ignore this email.</p>
</body>
</html>`, name, link, link, link)

	return Message{
		To:       to,
		Subject:  "Verify Your Email Address",
		TextBody: text,
		HTMLBody: html,
	}
}
