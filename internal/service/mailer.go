package service

import (
	"fmt"
	"net/smtp"

	"cssl-judging/internal/logging"
)

// MailService delivers account notifications to judges.
type MailService interface {
	SendTempPassword(email, password string) error
}

type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
}

func NewSMTPMailer(host, port, username, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

func (m *SMTPMailer) SendTempPassword(email, password string) error {
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your judging account\r\nMIME-version: 1.0;\r\nContent-Type: text/plain; charset=\"UTF-8\";\r\n\r\nA judge account was created for you.\r\nTemporary password: %s\r\nYou will be asked to change it at first login.",
		m.username,
		email,
		password,
	)
	err := smtp.SendMail(
		fmt.Sprintf("%s:%s", m.host, m.port),
		auth,
		m.username,
		[]string{email},
		[]byte(msg),
	)
	if err != nil {
		logging.Log.Errorf("MAILER: smtp error sending to %s: %v", email, err)
		return err
	}
	logging.Log.Infof("MAILER: temporary password sent to %s", email)
	return nil
}
