package mailer

import (
	"fmt"
	"html"
	"time"
)

// 메일 본문은 프론트엔드 테마(수사 포털)와 톤을 맞춘 단순 HTML이다.

func welcomeBody(name, frontendURL string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #c53030;">SQL DETECTIVE</h1>
  <h2>Welcome, %s!</h2>
  <p>Your detective account has been created. Log in to access case files and start investigating.</p>
  <p><a href="%s/login" style="background-color: #c53030; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px;">Log In Now</a></p>
  <p style="color: #666; font-size: 12px;">&copy; %d SQL Detective. This is an automated message.</p>
</div>`,
		html.EscapeString(name), frontendURL, time.Now().Year())
}

func passwordResetBody(name, resetLink string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #c53030;">SQL DETECTIVE</h1>
  <h2>Hello, %s</h2>
  <p>We received a request to reset your password. The link below is valid for one hour.</p>
  <p><a href="%s" style="background-color: #c53030; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px;">Reset Password</a></p>
  <p>If you did not request this, you can safely ignore this email.</p>
  <p style="color: #666; font-size: 12px;">&copy; %d SQL Detective. This is an automated message.</p>
</div>`,
		html.EscapeString(name), resetLink, time.Now().Year())
}

func inactivityBody(name string, daysSinceLogin int, frontendURL string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #c53030;">SQL DETECTIVE</h1>
  <h2>Hello, %s</h2>
  <p>It has been %d days since your last investigation. New cases are waiting for you.</p>
  <p><a href="%s/login" style="background-color: #c53030; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px;">Return to Investigation</a></p>
  <p style="color: #666; font-size: 12px;">&copy; %d SQL Detective. This is an automated message.</p>
</div>`,
		html.EscapeString(name), daysSinceLogin, frontendURL, time.Now().Year())
}
