package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/usecase/pipeline"
)

// validateURL rejects non-http(s) URLs and, when denyPrivateIPs is set,
// hosts resolving to loopback, private or link-local addresses.
func validateURL(ctx context.Context, urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", pipeline.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", pipeline.ErrInvalidURL, u.Scheme)
	}
	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", pipeline.ErrInvalidURL)
	}
	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", pipeline.ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if entity.IsPrivateIP(ip) {
			return fmt.Errorf("%w: hostname '%s' resolves to private IP %s", pipeline.ErrPrivateIP, hostname, ip.String())
		}
	}
	return nil
}
