package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type OTPData struct {
	Brand        string
	Email        string
	Code         string
	ValidMinutes int
}

type EnquiryData struct {
	Name        string
	Phone       string
	Location    string
	Requirement string
	Property    string
	Subscribe   bool
	Email       string
	Source      string
	Received    string
}

type AlertData struct {
	Brand    string
	Region   string
	Title    string
	Location string
	Price    string
	Area     string
	Category string
	URL      string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

func OTPMessage(to string, data OTPData) (Message, error) {
	body, err := render("otp.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: data.Brand + " - Admin Login Verification",
		HTML:    body,
		Text:    fmt.Sprintf("Your %s admin verification code is %s. It is valid for %d minutes.", data.Brand, data.Code, data.ValidMinutes),
	}, nil
}

func EnquiryMessage(to, brand string, data EnquiryData) (Message, error) {
	body, err := render("enquiry.html", data)
	if err != nil {
		return Message{}, err
	}
	msg := Message{
		To:      []string{to},
		Subject: "New Property Enquiry - " + brand,
		HTML:    body,
	}
	if data.Email != "" && data.Email != "Not provided" {
		msg.ReplyTo = data.Email
	}
	return msg, nil
}

// AlertMessage addresses the alert to a placeholder and the subscribers as
// Bcc so they do not see each other's addresses.
func AlertMessage(placeholder string, subscribers []string, data AlertData) (Message, error) {
	body, err := render("alert.html", data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{placeholder},
		Bcc:     subscribers,
		Subject: "New property listed: " + data.Title,
		HTML:    body,
	}, nil
}
