// Package navigate hands a booking link over to the user. Navigation ends the
// worker's involvement with a search.
package navigate

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/cli/browser"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// Navigator opens a portal link for the user.
type Navigator interface {
	NavigateTo(ctx context.Context, link string) error
}

// Checker is implemented by navigators that can tell up front whether they
// would open a link.
type Checker interface {
	Check(link string) error
}

// Browser opens links in the system browser after checking that they stay on
// the portal's site.
type Browser struct {
	PortalURL string
	Out       io.Writer

	open func(string) error
}

func NewBrowser(portalURL string, out io.Writer) *Browser {
	return &Browser{PortalURL: portalURL, Out: out, open: browser.OpenURL}
}

func (b *Browser) Check(link string) error {
	return SameSite(b.PortalURL, link)
}

func (b *Browser) NavigateTo(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Check(link); err != nil {
		return err
	}
	if b.Out != nil {
		fmt.Fprintf(b.Out, "Opening %s\n", link)
	}
	return b.open(link)
}

// Printer only prints the link, for headless hosts.
type Printer struct {
	PortalURL string
	Out       io.Writer
}

func (p *Printer) Check(link string) error {
	return SameSite(p.PortalURL, link)
}

func (p *Printer) NavigateTo(ctx context.Context, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.Check(link); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.Out, "Book here: %s\n", link)
	return err
}

// SameSite fails unless link belongs to the same registrable domain as
// portalURL. An empty portalURL disables the check.
func SameSite(portalURL, link string) error {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an absolute url", link)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q: unsupported scheme %q", link, u.Scheme)
	}
	if portalURL == "" {
		return nil
	}
	p, err := url.Parse(portalURL)
	if err != nil {
		return fmt.Errorf("invalid portal url %q: %w", portalURL, err)
	}
	if site(p.Hostname()) != site(u.Hostname()) {
		return fmt.Errorf("refusing to open %q: not on the portal site %s", link, p.Hostname())
	}
	return nil
}

// site returns the registrable domain of host, or host itself for IPs and
// single-label names.
func site(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return host
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return host
	}
	return domain
}
