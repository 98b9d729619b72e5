package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPMessage(t *testing.T) {
	msg, err := OTPMessage("admin@example.com", OTPData{Brand: "GS Infra", Email: "admin@example.com", Code: "042917", ValidMinutes: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{"admin@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, "Admin Login Verification")
	assert.Contains(t, msg.HTML, "042917")
	assert.Contains(t, msg.HTML, "Valid for 10 minutes only")
	assert.Contains(t, msg.Text, "042917")
}

func TestEnquiryMessageEscapesInput(t *testing.T) {
	msg, err := EnquiryMessage("owner@example.com", "GS Infra", EnquiryData{
		Name:        `<script>alert("x")</script>`,
		Phone:       "9876543210",
		Location:    "Rishikesh",
		Requirement: "2 BHK",
		Property:    "General Enquiry",
		Subscribe:   true,
		Email:       "buyer@example.com",
		Received:    "1/3/2026, 10:00:00 am",
	})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.HTML, "YES")
	assert.Equal(t, "buyer@example.com", msg.ReplyTo)
}

func TestEnquiryMessageWithoutEmail(t *testing.T) {
	msg, err := EnquiryMessage("owner@example.com", "GS Infra", EnquiryData{Name: "A", Email: "Not provided"})
	require.NoError(t, err)
	assert.Empty(t, msg.ReplyTo)
	assert.Contains(t, msg.HTML, "<strong>Subscribe:</strong> No")
}

func TestAlertMessageUsesBcc(t *testing.T) {
	subs := []string{"a@example.com", "b@example.com"}
	msg, err := AlertMessage("alerts@example.com", subs, AlertData{
		Brand:    "GS Infra",
		Region:   "Uttarakhand",
		Title:    "Riverside Villa",
		Location: "Tapovan, Rishikesh",
		Price:    "₹45,00,000",
		URL:      "https://example.com/property/riverside-villa-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alerts@example.com"}, msg.To)
	assert.Equal(t, subs, msg.Bcc)
	assert.Contains(t, msg.Subject, "Riverside Villa")
	assert.Contains(t, msg.HTML, "https://example.com/property/riverside-villa-1")
	assert.NotContains(t, msg.HTML, "sq.ft")
}
