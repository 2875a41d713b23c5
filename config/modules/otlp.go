package modules

import (
	"fmt"
	"net"
	"net/url"

	"github.com/eventatlas/eventatlas/config/types"
)

type OtlpProtocol string

const (
	OtlpProtocolGRPC OtlpProtocol = "grpc"
	OtlpProtocolHTTP OtlpProtocol = "http/protobuf"
)

func (p OtlpProtocol) Validate() error {
	switch p {
	case OtlpProtocolGRPC, OtlpProtocolHTTP:
		return nil
	}
	return fmt.Errorf("invalid protocol: %s", p)
}

// Collector is an OTLP endpoint. http/protobuf takes a URL, grpc takes host:port.
type Collector struct {
	Protocol OtlpProtocol `yaml:"protocol" json:"protocol" envconfig:"PROTOCOL"`
	Endpoint string       `yaml:"endpoint" json:"endpoint" envconfig:"ENDPOINT"`
	Headers  types.Map    `yaml:"headers" json:"headers" envconfig:"HEADERS"`
}

func (c Collector) Validate() error {
	if err := c.Protocol.Validate(); err != nil {
		return err
	}
	if c.Endpoint == "" {
		return nil
	}
	if c.Protocol == OtlpProtocolGRPC {
		if _, _, err := net.SplitHostPort(c.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint %q: %s", c.Endpoint, err)
		}
		return nil
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: must be an absolute URL", c.Endpoint)
	}
	return nil
}
