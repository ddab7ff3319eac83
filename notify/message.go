package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/dnldd/breakout/shared"
)

// title returns the capitalised direction used in message headings.
func title(direction shared.Direction) string {
	switch direction {
	case shared.Buy:
		return "Buy"
	case shared.Sell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// SignalMessage formats a breakout signal notification.
func SignalMessage(signal shared.Signal) string {
	return fmt.Sprintf("<b>%s Signal</b> for <b>%s</b> at <b>%v</b>\nSupport: %v\nResistance: %v",
		title(signal.Direction), html.EscapeString(signal.Market), signal.EntryPrice,
		signal.Support, signal.Resistance)
}

// OrderExecutedMessage formats an executed order notification.
func OrderExecutedMessage(req shared.OrderRequest) string {
	var b strings.Builder
	b.WriteString("<b>Order Executed</b>\n")
	fmt.Fprintf(&b, "Symbol: %s\n", html.EscapeString(req.Market))
	fmt.Fprintf(&b, "Type: %s\n", strings.ToUpper(req.Direction.String()))
	fmt.Fprintf(&b, "Entry Price: %v\n", req.EntryPrice)
	fmt.Fprintf(&b, "SL: %v\n", req.StopLoss)
	fmt.Fprintf(&b, "TP: %v\n", req.TakeProfit)
	fmt.Fprintf(&b, "Volume: %v", req.Volume)

	return b.String()
}

// OrderFailedMessage formats a failed order notification.
func OrderFailedMessage(req shared.OrderRequest, result shared.OrderResult) string {
	var b strings.Builder
	b.WriteString("<b>Order Failed</b>\n")
	fmt.Fprintf(&b, "Symbol: %s\n", html.EscapeString(req.Market))
	fmt.Fprintf(&b, "Type: %s\n", strings.ToUpper(req.Direction.String()))
	fmt.Fprintf(&b, "Reason: %d - %s", result.ReturnCode, html.EscapeString(result.Message))

	return b.String()
}
