package modules

import (
	"fmt"
	"net"
)

// Listen is the host:port a server binds, empty or "off" disables the server
type Listen string

func (l Listen) Enabled() bool {
	return l != "" && l != "off"
}

func (l Listen) Validate() error {
	if !l.Enabled() {
		return nil
	}
	if _, _, err := net.SplitHostPort(string(l)); err != nil {
		return fmt.Errorf("invalid listen '%s': %s", l, err)
	}
	return nil
}

// URL is the address clients on this host reach the server at,
// wildcard hosts are replaced by the loopback address
func (l Listen) URL() string {
	if !l.Enabled() {
		return "disabled"
	}
	host, port, err := net.SplitHostPort(string(l))
	if err != nil {
		return "http://" + string(l)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
