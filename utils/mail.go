package utils

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"os"
)

const smtpHost = "smtp.gmail.com"
const smtpPort = "465"

// SendMail delivers an HTML email through Gmail over implicit TLS.
// Credentials come from GMAIL_ADDRESS and GMAIL_APP_PASSWORD.
func SendMail(to string, subject string, html string) (bool, error) {
	sender := os.Getenv("GMAIL_ADDRESS")
	password := os.Getenv("GMAIL_APP_PASSWORD")

	if sender == "" || password == "" {
		log.Println("ERROR: Gmail credentials not found in environment")
		return false, nil
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("Krishimitra <%s>", sender),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=\"UTF-8\"",
	}

	body := ""
	for k, v := range headers {
		body += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	body += "\r\n" + html

	// Port 465 speaks TLS from the first byte, so smtp.SendMail (STARTTLS) does not apply
	conn, err := tls.Dial("tcp", smtpHost+":"+smtpPort, &tls.Config{ServerName: smtpHost})
	if err != nil {
		return false, err
	}

	client, err := smtp.NewClient(conn, smtpHost)
	if err != nil {
		conn.Close()
		return false, err
	}
	defer client.Close()

	auth := smtp.PlainAuth("", sender, password, smtpHost)
	if err := client.Auth(auth); err != nil {
		return false, err
	}
	if err := client.Mail(sender); err != nil {
		return false, err
	}
	if err := client.Rcpt(to); err != nil {
		return false, err
	}

	w, err := client.Data()
	if err != nil {
		return false, err
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return false, err
	}
	if err := w.Close(); err != nil {
		return false, err
	}

	client.Quit()
	return true, nil
}

// SendOTPEmail sends the password-reset OTP to the given address.
func SendOTPEmail(to string, otp string) (bool, error) {
	subject := "Your Krishimitra Password Reset OTP"
	html := fmt.Sprintf(`
	<html>
	  <body>
		<p>Hi,</p>
		<p>Your One-Time Password (OTP) for resetting your Krishimitra password is:</p>
		<h2 style="color: #2c5e3f; font-size: 24px; letter-spacing: 2px;">%s</h2>
		<p>This code will expire in 10 minutes.</p>
	  </body>
	</html>`, otp)

	sent, err := SendMail(to, subject, html)
	if err != nil {
		log.Printf("Failed to send OTP email to %s: %v", to, err)
		return false, err
	}
	return sent, nil
}
