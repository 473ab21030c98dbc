package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
	_ "time/tzdata"
)

const displayTimeLayout = "Monday, 2 January 2006 at 3:04 PM MST"

// emailView is the data every template renders from.
type emailView struct {
	RecipientName     string
	BookingID         string
	ServiceName       string
	Address           string
	ScheduledAt       string
	DurationMinutes   int
	CustomerName      string
	ProfessionalName  string
	ProfessionalPhone string
	ProfessionalEmail string
	Status            string
	StatusTitle       string
	StatusMessage     string
}

const layout = `<!DOCTYPE html>
<html>
<body style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333;">
<h2>{{template "title" .}}</h2>
<p>Hi {{.RecipientName}},</p>
{{template "body" .}}
<table>
<tr><td>Booking</td><td>#{{.BookingID}}</td></tr>
{{if .ServiceName}}<tr><td>Service</td><td>{{.ServiceName}}</td></tr>{{end}}
<tr><td>When</td><td>{{.ScheduledAt}}</td></tr>
<tr><td>Duration</td><td>{{.DurationMinutes}} minutes</td></tr>
<tr><td>Where</td><td>{{.Address}}</td></tr>
</table>
<p>CarWash Booking App</p>
</body>
</html>`

var emailBodies = map[string]string{
	templateCustomerAssigned: `{{define "title"}}Booking Confirmed{{end}}
{{define "body"}}<p>Your car wash service has been successfully booked.</p>
<p>Your professional is <strong>{{.ProfessionalName}}</strong>{{if .ProfessionalPhone}}, reachable at {{.ProfessionalPhone}}{{end}}{{if .ProfessionalEmail}} or {{.ProfessionalEmail}}{{end}}.</p>{{end}}`,

	templateCustomerUnavailable: `{{define "title"}}Booking Cancelled{{end}}
{{define "body"}}<p>We're sorry, but we had to cancel your booking because <strong>all professionals in your selected location were busy</strong> during your requested time slot.</p>
<p>Please try booking a different time.</p>{{end}}`,

	templateCustomerNotServiceable: `{{define "title"}}Location Not Serviced{{end}}
{{define "body"}}<p>We're sorry, but we do not have any professionals serving your selected location yet.</p>{{end}}`,

	templateProfessionalAssigned: `{{define "title"}}New Assignment{{end}}
{{define "body"}}<p>You have been assigned a new booking for <strong>{{.CustomerName}}</strong>. Please confirm it from your assignments page.</p>{{end}}`,

	templateStatusUpdate: `{{define "title"}}{{.StatusTitle}}{{end}}
{{define "body"}}<p>{{.StatusMessage}}</p>{{end}}`,
}

const (
	templateCustomerAssigned       = "customer_assigned"
	templateCustomerUnavailable    = "customer_unavailable"
	templateCustomerNotServiceable = "customer_not_serviceable"
	templateProfessionalAssigned   = "professional_assigned"
	templateStatusUpdate           = "status_update"
)

var statusCopy = map[string][2]string{
	"assigned":  {"Professional Assigned", "A professional has been assigned to your booking."},
	"confirmed": {"Booking Confirmed", "Your booking has been confirmed. Our professional will arrive at the scheduled time."},
	"completed": {"Service Completed", "Your car wash service has been completed successfully. Thank you for choosing us!"},
	"cancelled": {"Booking Cancelled", "Your booking has been cancelled. If you have any questions, please contact us."},
	"pending":   {"Finding A New Professional", "Your professional could not take this booking. We are looking for another one."},
}

type Templates struct {
	byName map[string]*template.Template
}

func NewTemplates() (*Templates, error) {
	t := &Templates{byName: make(map[string]*template.Template, len(emailBodies))}
	for name, body := range emailBodies {
		tmpl, err := template.New(name).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layout for %s: %w", name, err)
		}
		if _, err := tmpl.Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		t.byName[name] = tmpl
	}
	return t, nil
}

func (t *Templates) Render(name string, view emailView) (string, error) {
	tmpl, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

func subjectFor(name, bookingID string) string {
	switch name {
	case templateCustomerAssigned:
		return fmt.Sprintf("Booking Confirmation - CarWash Service #%s", bookingID)
	case templateCustomerUnavailable:
		return fmt.Sprintf("Booking Cancelled - Professionals Unavailable - CarWash Service #%s", bookingID)
	case templateCustomerNotServiceable:
		return fmt.Sprintf("Location Not Serviced - CarWash Service #%s", bookingID)
	case templateProfessionalAssigned:
		return fmt.Sprintf("New Assignment - Booking #%s", bookingID)
	default:
		return fmt.Sprintf("Booking Status Updated - #%s", bookingID)
	}
}

func statusText(status string) (title, message string) {
	if c, ok := statusCopy[status]; ok {
		return c[0], c[1]
	}
	return "Booking Updated", fmt.Sprintf("Your booking is now %s.", status)
}

// formatInZone renders t in the named IANA zone, falling back to UTC for unknown names.
func formatInZone(t time.Time, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format(displayTimeLayout)
}
