package enums

// StatusDisplay carries the presentation metadata clients render for a status.
type StatusDisplay struct {
	Label string `json:"label"`
	Tone  string `json:"tone"`
}

var paymentStatusDisplays = map[PaymentStatus]StatusDisplay{
	PaymentStatusPending:  {Label: "Aguardando pagamento", Tone: "warning"},
	PaymentStatusPaid:     {Label: "Pago", Tone: "success"},
	PaymentStatusFailed:   {Label: "Pagamento recusado", Tone: "danger"},
	PaymentStatusRefunded: {Label: "Reembolsado", Tone: "neutral"},
}

// Display returns the canonical presentation metadata for the status.
func (p PaymentStatus) Display() StatusDisplay {
	if d, ok := paymentStatusDisplays[p]; ok {
		return d
	}
	return StatusDisplay{Label: string(p), Tone: "neutral"}
}

var fulfillmentStatusDisplays = map[FulfillmentStatus]StatusDisplay{
	FulfillmentStatusPending:    {Label: "Pendente", Tone: "warning"},
	FulfillmentStatusProcessing: {Label: "Em preparo", Tone: "info"},
	FulfillmentStatusDelivering: {Label: "Saiu para entrega", Tone: "info"},
	FulfillmentStatusDelivered:  {Label: "Entregue", Tone: "success"},
	FulfillmentStatusCancelled:  {Label: "Cancelado", Tone: "danger"},
}

// Display returns the canonical presentation metadata for the status.
func (f FulfillmentStatus) Display() StatusDisplay {
	if d, ok := fulfillmentStatusDisplays[f]; ok {
		return d
	}
	return StatusDisplay{Label: string(f), Tone: "neutral"}
}
