package validation

import (
	"fmt"
	"net/netip"
	"net/url"
)

// WebsiteURL validates that the value is an absolute http(s) URL.
func WebsiteURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("website_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("website_url must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("website_url must use http or https")
	}
	return nil
}

// CollectedEvent validates the required fields of a submitted event.
func CollectedEvent(event, eventURL, ipAddress string) error {
	if event == "" || eventURL == "" || ipAddress == "" {
		return fmt.Errorf("event, url, and ipAddress are required")
	}
	if _, err := netip.ParseAddr(ipAddress); err != nil {
		return fmt.Errorf("ipAddress %q is not a valid IP address", ipAddress)
	}
	return nil
}
