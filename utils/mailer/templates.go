package mailer

import "fmt"

// Layout wraps body content in the branded HTML shell.
func Layout(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
		.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
		.header { background-color: #1B1F3B; padding: 24px; text-align: center; color: #FFFFFF; }
		.content { padding: 32px 24px; color: #1B1F3B; line-height: 1.6; }
		.btn { display: inline-block; padding: 12px 24px; background-color: #F5A623; color: #FFFFFF; text-decoration: none; border-radius: 4px; }
		.footer { padding: 16px; text-align: center; font-size: 12px; color: #666666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>SHAMS ACADEMY</h1></div>
		<div class="content">
			<h2>%s</h2>
			%s
		</div>
		<div class="footer">&copy; Shams Academy</div>
	</div>
</body>
</html>`, title, body)
}

func VerificationEmail(name, link string) (subject, body string) {
	subject = "Verify your email"
	body = Layout("Welcome, "+name+"!", fmt.Sprintf(
		`<p>Please confirm your email address to activate your account.</p><a class="btn" href="%s">Verify email</a><p>The link is valid for 24 hours.</p>`,
		link))
	return subject, body
}

func PasswordResetEmail(name, link string) (subject, body string) {
	subject = "Reset your password"
	body = Layout("Password reset", fmt.Sprintf(
		`<p>Hi %s, we received a request to reset your password.</p><a class="btn" href="%s">Choose a new password</a><p>The link is valid for 1 hour. Ignore this email if you did not ask for it.</p>`,
		name, link))
	return subject, body
}

func PaymentCompletedEmail(name, item string, amount float64) (subject, body string) {
	subject = "Payment received"
	body = Layout("Thank you for your purchase", fmt.Sprintf(
		`<p>Hi %s, your payment of <b>%.2f</b> for <b>%s</b> was completed. You now have access.</p>`,
		name, amount, item))
	return subject, body
}
