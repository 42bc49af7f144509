package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

const baseStyle = `
      body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f9f9fa; }
      .container { background-color: white; padding: 40px; border-radius: 8px; box-shadow: 0 4px 6px rgba(0, 0, 0, 0.1); }
      .header { text-align: center; margin-bottom: 30px; }
      .title { color: #2c3e50; font-size: 28px; font-weight: bold; margin-bottom: 10px; }
      .subtitle { color: #7f8c8d; font-size: 16px; }
      .details { background-color: #f8f9fa; padding: 20px; border-radius: 6px; margin: 20px 0; }
      .detail-item { margin: 10px 0; display: flex; justify-content: space-between; align-items: center; }
      .detail-label { font-weight: 600; color: #34495e; }
      .invite-code { background-color: #e8f4fd; border: 1px solid #3498db; padding: 8px 12px; border-radius: 4px; font-family: 'Courier New', monospace; font-weight: bold; color: #2980b9; }
      .ticket-badge { background-color: #27ae60; color: white; padding: 4px 8px; border-radius: 12px; font-size: 12px; text-transform: uppercase; font-weight: bold; }
      .notice { background-color: #fff3cd; border: 1px solid #ffc107; padding: 20px; border-radius: 8px; margin: 20px 0; }
      .deadline { background-color: #f8d7da; border: 1px solid #f5c6cb; padding: 15px; border-radius: 6px; margin: 20px 0; text-align: center; color: #721c24; font-weight: bold; }
      .custom-content { font-size: 16px; line-height: 1.6; }
      .footer { text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #ecf0f1; color: #7f8c8d; font-size: 14px; }
`

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Heading}} - {{.EventTitle}}</title>
    <style>` + baseStyle + `</style>
  </head>
  <body>
    <div class="container">
      {{template "content" .}}
      <div class="footer">
        <p>Thank you for your registration!</p>
        <p><em>{{.EventTitle}} Team</em></p>
      </div>
    </div>
  </body>
</html>
{{end}}

{{define "details"}}
      <div class="details">
        <div class="detail-item"><span class="detail-label">Name:</span><span>{{.FullName}}</span></div>
        <div class="detail-item"><span class="detail-label">Invite Code:</span><span class="invite-code">{{.InviteCode}}</span></div>
        {{- if .TicketType}}
        <div class="detail-item"><span class="detail-label">Ticket Type:</span><span class="ticket-badge">{{.TicketType}}</span></div>
        {{- end}}
        <div class="detail-item"><span class="detail-label">Pairing Choice:</span><span>{{.Pairing}}</span></div>
        <div class="detail-item"><span class="detail-label">Event Date:</span><span>{{.EventDate}}</span></div>
        {{- if .ShowPaymentStatus}}
        <div class="detail-item"><span class="detail-label">Payment Status:</span><span style="color: #dc3545; font-weight: bold;">PENDING</span></div>
        {{- end}}
      </div>
{{end}}`

const eventReminderContent = `{{define "content"}}
      <div class="header">
        <h1 class="title">Event Reminder</h1>
        <p class="subtitle">{{.EventTitle}}</p>
      </div>
      <p>Dear {{.FullName}},</p>
      <p>This is a friendly reminder about your upcoming registration for <strong>{{.EventTitle}}</strong>.</p>
      {{template "details" .}}
      <div class="notice">
        <h3>📅 Important Reminders:</h3>
        <ul>
          <li>Please arrive 15 minutes before the event starts</li>
          <li>Bring your invite code for quick check-in</li>
          <li>If you have any allergies, please inform our staff upon arrival</li>
          <li>Smart casual dress code is recommended</li>
        </ul>
      </div>
      <p>We're excited to see you! If you have any questions or need to make changes to your registration, please contact us.</p>
{{end}}`

const paymentReminderContent = `{{define "content"}}
      <div class="header">
        <h1 class="title">Payment Reminder</h1>
        <p class="subtitle">{{.EventTitle}}</p>
      </div>
      <div class="notice" style="text-align: center;">
        <h3>⚠️ Payment Required</h3>
        <p>Your payment is still pending for this exclusive event</p>
      </div>
      <p>Dear {{.FullName}},</p>
      <p>We hope you're as excited as we are for <strong>{{.EventTitle}}</strong>! However, we notice that your payment is still pending.</p>
      <div class="deadline">⏰ The event is fast approaching - please complete your payment to secure your spot!</div>
      {{template "details" .}}
      <p><strong>Reference:</strong> Use your invite code <strong>{{.InviteCode}}</strong> as the payment reference.</p>
      <p><strong>Important:</strong> Due to limited seating, unpaid registrations may be released to ensure all confirmed guests can enjoy the experience.</p>
{{end}}`

const customContent = `{{define "content"}}
      <div class="custom-content">{{.Custom}}</div>
{{end}}`

var (
	eventTmpl   = template.Must(template.Must(template.New("event").Parse(layout)).Parse(eventReminderContent))
	paymentTmpl = template.Must(template.Must(template.New("payment").Parse(layout)).Parse(paymentReminderContent))
	customTmpl  = template.Must(template.Must(template.New("custom").Parse(layout)).Parse(customContent))

	markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))
)

type view struct {
	Heading           string
	EventTitle        string
	FullName          string
	InviteCode        string
	TicketType        string
	Pairing           string
	EventDate         string
	ShowPaymentStatus bool
	Custom            template.HTML
}

func heading(kind Kind) string {
	if kind == PaymentReminder {
		return "Payment Reminder"
	}
	return "Event Reminder"
}

// Render builds the HTML document for kind. A non-blank CustomContent is
// rendered as Markdown inside the bare wrapper and the generated detail
// sections are skipped.
func Render(kind Kind, eventTitle string, r Reminder) (string, error) {
	v := view{
		Heading:           heading(kind),
		EventTitle:        eventTitle,
		FullName:          r.FullName,
		InviteCode:        r.InviteCode,
		TicketType:        r.TicketType,
		Pairing:           models.PairingChoice(r.PairingChoice).Label(),
		EventDate:         r.EventDate,
		ShowPaymentStatus: kind == PaymentReminder,
	}

	tmpl := eventTmpl
	if kind == PaymentReminder {
		tmpl = paymentTmpl
	}

	if strings.TrimSpace(r.CustomContent) != "" {
		var md bytes.Buffer
		if err := markdown.Convert([]byte(r.CustomContent), &md); err != nil {
			return "", fmt.Errorf("render custom content: %w", err)
		}
		v.Custom = template.HTML(md.String())
		tmpl = customTmpl
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}

// PreviewText is the plain text an operator starts from when editing a
// reminder before sending it as custom content.
func PreviewText(kind Kind, eventTitle string, r Reminder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", r.FullName)
	if kind == PaymentReminder {
		fmt.Fprintf(&b, "We notice that your payment for %s is still pending. Please complete your payment to secure your spot.\n\n", eventTitle)
	} else {
		fmt.Fprintf(&b, "This is a friendly reminder about your upcoming registration for %s.\n\n", eventTitle)
	}
	fmt.Fprintf(&b, "Invite Code: %s\n", r.InviteCode)
	if r.TicketType != "" {
		fmt.Fprintf(&b, "Ticket Type: %s\n", r.TicketType)
	}
	fmt.Fprintf(&b, "Pairing Choice: %s\n", models.PairingChoice(r.PairingChoice).Label())
	fmt.Fprintf(&b, "Event Date: %s\n", r.EventDate)
	if kind == PaymentReminder {
		fmt.Fprintf(&b, "\nUse your invite code %s as the payment reference.\n", r.InviteCode)
	} else {
		b.WriteString("\nPlease bring your invite code for quick check-in.\n")
	}
	return b.String()
}
