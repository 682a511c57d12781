package notify

import "strings"

// 版面由前端設計維護，這裡只做 {{placeholder}} 取代。
const (
	templateUpper    = "price_alert_upper"
	templateLower    = "price_alert_lower"
	templateWelcome  = "welcome"
	templateNews     = "news_summary"
	templateInactive = "inactive_reminder"
)

const priceAlertUpperHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#050505;color:#ccdadc;">
<h1 style="color:#0fedbe;">Price Above Reached</h1>
<p>{{symbol}} ({{company}}) has risen above your target price.</p>
<table>
<tr><td>Current Price</td><td><strong>{{currentPrice}}</strong></td></tr>
<tr><td>Target Price</td><td>{{targetPrice}}</td></tr>
<tr><td>Alert Time</td><td>{{timestamp}}</td></tr>
</table>
</body></html>`

const priceAlertLowerHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#050505;color:#ccdadc;">
<h1 style="color:#ff495b;">Price Below Reached</h1>
<p>{{symbol}} ({{company}}) has dropped below your target price.</p>
<table>
<tr><td>Current Price</td><td><strong>{{currentPrice}}</strong></td></tr>
<tr><td>Target Price</td><td>{{targetPrice}}</td></tr>
<tr><td>Alert Time</td><td>{{timestamp}}</td></tr>
</table>
</body></html>`

const welcomeHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#050505;color:#ccdadc;">
<h1>Welcome aboard {{name}}</h1>
{{intro}}
<p>Set up your watchlist, create price alerts and get a daily market summary in your inbox.</p>
</body></html>`

const newsSummaryHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#050505;color:#ccdadc;">
<h1>Market News Summary Today</h1>
<p>{{date}}</p>
{{newsContent}}
</body></html>`

const inactiveReminderHTML = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;background:#050505;color:#ccdadc;">
<h1>We Miss You, {{name}}!</h1>
<p>The markets have been moving. Check what happened with the stocks you follow.</p>
<p><a href="{{dashboardUrl}}">Return to Dashboard</a></p>
<p style="font-size:12px;"><a href="{{dashboardUrl}}">Visit Signalist</a> | <a href="{{unsubscribeUrl}}">Unsubscribe</a></p>
</body></html>`

// render 依字面取代 {{key}}；所有出現位置都會取代。
func render(tpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
