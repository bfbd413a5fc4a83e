package telegram

import (
	"net/url"
	"strings"
)

// StartPayload is what a /start deep-link argument carries: either UTM tags
// (query-string form), a referral link slug, or nothing.
type StartPayload struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	LinkSlug    string
}

func (p StartPayload) HasUTM() bool {
	return p.UTMSource != "" || p.UTMMedium != "" || p.UTMCampaign != ""
}

// ParseStartPayload decodes the /start argument. A bare word is a referral
// slug; a query string may carry utm_* tags and a start=<slug> parameter.
func ParseStartPayload(args string) StartPayload {
	args = strings.TrimSpace(args)
	if args == "" {
		return StartPayload{}
	}
	args = strings.TrimPrefix(args, "?")

	if !strings.Contains(args, "=") {
		return StartPayload{LinkSlug: strings.ToLower(args)}
	}

	values, err := url.ParseQuery(args)
	if err != nil {
		return StartPayload{}
	}
	return StartPayload{
		UTMSource:   values.Get("utm_source"),
		UTMMedium:   values.Get("utm_medium"),
		UTMCampaign: values.Get("utm_campaign"),
		LinkSlug:    strings.ToLower(values.Get("start")),
	}
}
