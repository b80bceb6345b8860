package notifications

import (
	"html/template"
	"strings"

	"github.com/movakid/shop-backend/pkg/config"
	"github.com/movakid/shop-backend/pkg/db/models"
	"github.com/movakid/shop-backend/pkg/enums"
)

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Thank you for your order{{if .Customer}}, {{.Customer.FirstName}}{{end}}!</h2>
  <p>Your order <strong>{{.OrderNumber}}</strong> has been received.</p>
  <table cellpadding="6" cellspacing="0" border="0" width="100%">
    <tr style="border-bottom: 1px solid #ddd;">
      <th align="left">Product</th><th align="right">Qty</th><th align="right">Price</th>
    </tr>
    {{range .Items}}
    <tr>
      <td>{{.ProductName}}</td>
      <td align="right">{{.Quantity}}</td>
      <td align="right">{{.UnitPrice.StringFixed 2}} {{$.Currency}}</td>
    </tr>
    {{end}}
  </table>
  <p>
    Subtotal: {{.Subtotal.StringFixed 2}} {{.Currency}}<br>
    {{if .DiscountCode}}Discount ({{.DiscountCode}}): -{{.DiscountAmount.StringFixed 2}} {{.Currency}}<br>{{end}}
    VAT: {{.TaxAmount.StringFixed 2}} {{.Currency}}<br>
    Shipping: {{.ShippingCost.StringFixed 2}} {{.Currency}}<br>
    <strong>Total: {{.Total.StringFixed 2}} {{.Currency}}</strong>
  </p>
  <p>Shipping to: {{.ShippingAddress}}</p>
  {{if .Bank}}
  <h3>Payment by bank transfer</h3>
  <p>
    Please transfer <strong>{{.Total.StringFixed 2}} {{.Currency}}</strong> to:<br>
    {{.Bank.AccountHolder}}<br>
    IBAN: {{.Bank.IBAN}}<br>
    BIC: {{.Bank.BIC}}<br>
    Transfer title: {{.OrderNumber}}
  </p>
  <p>We will ship your order once the payment arrives.</p>
  {{else}}
  <p>We will let you know as soon as your order ships.</p>
  {{end}}
  <p>MovaKid</p>
</body>
</html>`))

// confirmationView flattens the optional discount code so the template
// never renders a pointer. Bank is set only while a transfer order is
// awaiting payment.
type confirmationView struct {
	*models.Order
	DiscountCode string
	Bank         *config.BankTransferConfig
}

func renderOrderConfirmation(order *models.Order, bank config.BankTransferConfig) (string, error) {
	view := confirmationView{Order: order}
	if order.DiscountCode != nil {
		view.DiscountCode = *order.DiscountCode
	}
	if order.PaymentMethod == enums.PaymentMethodBankTransfer &&
		order.PaymentStatus == enums.PaymentStatusPending && bank.IBAN != "" {
		view.Bank = &bank
	}
	var b strings.Builder
	if err := orderConfirmationTmpl.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
