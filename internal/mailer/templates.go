package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h1>Order {{.ID}} received</h1>
<p>Thanks for your purchase. We are processing your order.</p>
<ul>{{range .Items}}<li>{{.Quantity}} x {{.Name}} ({{printf "%.2f" .Price}})</li>{{end}}</ul>
{{if .CouponCode}}<p>Coupon {{.CouponCode}}: -{{printf "%.2f" .DiscountAmount}}</p>{{end}}
<p>Total: {{printf "%.2f" .TotalPrice}}</p>`))

	statusTmpl = template.Must(template.New("status").Parse(`<h1>Order {{.ID}}</h1>
<p>Your order is now <strong>{{.Status}}</strong>.</p>`))
)

func OrderConfirmation(o *domain.Order) (Message, error) {
	return render(o, confirmationTmpl, fmt.Sprintf("Order %s confirmed", o.ID))
}

func OrderStatusUpdate(o *domain.Order) (Message, error) {
	return render(o, statusTmpl, fmt.Sprintf("Order %s: %s", o.ID, o.Status))
}

func render(o *domain.Order, tmpl *template.Template, subject string) (Message, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, o); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return Message{To: o.UserEmail, Subject: subject, Body: buf.String()}, nil
}
