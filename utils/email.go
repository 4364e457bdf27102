package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// SendRewardEmail notifies a customer that a scan unlocked a reward. Called
// from the dispatcher worker, never from the request path.
func SendRewardEmail(to, cardName string, availableRewards uint) error {
	host := os.Getenv("SMTP_HOST")
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}
	username := os.Getenv("SMTP_USERNAME")
	password := os.Getenv("SMTP_PASSWORD")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = username
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("You earned a reward on %s!", cardName))
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Congratulations! Your latest visit completed a stamp cycle on <b>%s</b>.</p>"+
			"<p>You now have <b>%d</b> reward(s) waiting. Show your card at the counter to redeem.</p>",
		cardName, availableRewards))

	d := gomail.NewDialer(host, port, username, password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reward email: %v", err)
	}
	return nil
}
