package host

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/ssdpd/internal/channel"
	"github.com/muurk/ssdpd/internal/logging"
	"github.com/muurk/ssdpd/internal/metrics"
)

const (
	methodSearch = "M-SEARCH"
	manDiscover  = `"ssdp:discover"`

	// maxResponseDelay caps the random MX delay before replying
	maxResponseDelay = time.Second

	// responseSpacing separates consecutive responses to one search
	responseSpacing = 50 * time.Millisecond
)

// serveSearch answers M-SEARCH requests read from the shared channel with one
// unicast response per matching target.
func (h *Host) serveSearch(w channel.ResponseWriter, r *http.Request) {
	if r.Method != methodSearch || r.Header.Get("MAN") != manDiscover {
		return
	}

	st := r.Header.Get("ST")
	matched := h.match(st)
	if len(matched) == 0 {
		return
	}

	delay := responseDelay(r.Header.Get("MX"))
	go func() {
		if delay > 0 {
			h.clock.Sleep(delay)
		}
		var peer net.IP
		if udp, ok := w.RemoteAddr().(*net.UDPAddr); ok {
			peer = udp.IP
		}
		for i, t := range matched {
			if i > 0 {
				h.clock.Sleep(responseSpacing)
			}
			if h.Port() == 0 {
				return
			}
			resp := h.buildResponse(st, t, peer)
			if err := w.Reply(resp); err != nil {
				logging.Warn("Failed to send M-SEARCH response",
					zap.Stringer("to", w.RemoteAddr()),
					zap.Error(err),
				)
				return
			}
			metrics.SearchResponsesTotal.Inc()
		}
	}()
}

// match returns the targets answering search target st
func (h *Host) match(st string) []target {
	if st == AllTarget {
		return h.targets
	}
	for _, t := range h.targets {
		if t.nt == st {
			return []target{t}
		}
	}
	return nil
}

// responseDelay picks a random delay within the requested MX window
func responseDelay(mx string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(mx))
	if err != nil || seconds <= 0 {
		return 0
	}
	window := min(time.Duration(seconds)*time.Second, maxResponseDelay)
	return rand.N(window)
}

// buildResponse renders one search response. For ssdp:all searches the ST
// header carries the target's own notification type.
func (h *Host) buildResponse(st string, t target, peer net.IP) []byte {
	if st == AllTarget {
		st = t.nt
	}
	var b bytes.Buffer
	b.WriteString("HTTP/1.1 200 OK\r\n")
	fmt.Fprintf(&b, "CACHE-CONTROL: max-age=%d\r\n", h.maxAge)
	fmt.Fprintf(&b, "DATE: %s\r\n", h.clock.Now().UTC().Format(http.TimeFormat))
	b.WriteString("EXT:\r\n")
	fmt.Fprintf(&b, "LOCATION: %s\r\n", h.locationFor(h.replyIP(peer)))
	fmt.Fprintf(&b, "SERVER: %s\r\n", h.server)
	fmt.Fprintf(&b, "ST: %s\r\n", st)
	fmt.Fprintf(&b, "USN: %s\r\n", t.usn)
	fmt.Fprintf(&b, "BOOTID.UPNP.ORG: %d\r\n", h.BootID())
	b.WriteString("CONFIGID.UPNP.ORG: 1\r\n")
	b.WriteString("\r\n")
	return b.Bytes()
}

func (h *Host) replyIP(peer net.IP) net.IP {
	if peer == nil {
		return nil
	}
	return localIPFor(peer)
}
