package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	validator "gopkg.in/go-playground/validator.v9"
)

const (
	// DefaultHost is the Pocket node used when no host is configured.
	DefaultHost = "https://ethereum.pokt.network"

	// DefaultNetworkID is the Ethereum subnetwork (Rinkeby) queried by default.
	DefaultNetworkID = NetworkID("4")

	// NoTimeout disables the request timeout. A value of 1 is treated the same way.
	NoTimeout = 0
)

// NetworkID is the Ethereum network identifier sent as the Pocket subnetwork.
// It decodes from either a JSON string or a JSON number and is always kept
// in its string form.
type NetworkID string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NetworkID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NetworkID(s)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("network id must be a string or a number: %w", err)
	}
	*n = NetworkID(num.String())
	return nil
}

// String returns the network id as sent on the wire.
func (n NetworkID) String() string {
	return string(n)
}

// ChainID parses the network id as an EIP-155 chain id.
func (n NetworkID) ChainID() (uint64, error) {
	return strconv.ParseUint(string(n), 10, 64)
}

// Header is a single custom HTTP header added to every request.
type Header struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// ParseHeader parses a "Name: Value" pair.
func ParseHeader(s string) (Header, error) {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return Header{}, fmt.Errorf("header '%s' must have the form name:value", s)
	}
	return Header{
		Name:  strings.TrimSpace(s[:idx]),
		Value: strings.TrimSpace(s[idx+1:]),
	}, nil
}

// ProviderConfig holds everything needed to talk to a Pocket node.
type ProviderConfig struct {
	// Host is the base URL of the Pocket node, without trailing slash.
	Host string `json:"host" validate:"required"`

	// NetworkID is sent as the subnetwork of every request.
	NetworkID NetworkID `json:"networkId" validate:"required"`

	// Timeout is the request timeout in milliseconds. 0 and 1 disable it.
	Timeout int64 `json:"timeout" validate:"min=0"`

	// Headers are added, in order, to every request after Content-Type.
	Headers []Header `json:"headers" validate:"dive"`

	// RequestsPerSecond limits outgoing sends. 0 means unlimited.
	RequestsPerSecond float64 `json:"requestsPerSecond" validate:"min=0"`
}

// NewProviderConfig returns a config pointing at host with default values
// for everything else. An empty host selects DefaultHost.
func NewProviderConfig(host string) *ProviderConfig {
	if host == "" {
		host = DefaultHost
	}
	return &ProviderConfig{
		Host:      strings.TrimRight(host, "/"),
		NetworkID: DefaultNetworkID,
		Timeout:   NoTimeout,
	}
}

// NewConfigFromJSON parses incoming JSON over the defaults and validates the result.
func NewConfigFromJSON(configJSON string) (*ProviderConfig, error) {
	config := NewProviderConfig("")

	if err := loadConfigFromJSON(configJSON, config); err != nil {
		return nil, err
	}
	config.Host = strings.TrimRight(config.Host, "/")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigFromFile reads a JSON config file, see NewConfigFromJSON.
func LoadConfigFromFile(path string) (*ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return NewConfigFromJSON(string(data))
}

func loadConfigFromJSON(configJSON string, config *ProviderConfig) error {
	decoder := json.NewDecoder(strings.NewReader(configJSON))
	decoder.DisallowUnknownFields()
	// override default configuration with values by JSON input
	return decoder.Decode(config)
}

// RequestTimeout converts Timeout into a duration. Zero means no timeout.
func (c *ProviderConfig) RequestTimeout() time.Duration {
	if c.Timeout == 0 || c.Timeout == 1 {
		return 0
	}
	return time.Duration(c.Timeout) * time.Millisecond
}

// QueryURL returns the full path to the /queries endpoint.
func (c *ProviderConfig) QueryURL() string {
	return c.Host + "/queries"
}

// TransactionURL returns the full path to the /transactions endpoint.
func (c *ProviderConfig) TransactionURL() string {
	return c.Host + "/transactions"
}

// Validate checks if ProviderConfig fields have valid values.
//
// All problems found are combined into the returned error.
func (c *ProviderConfig) Validate() error {
	var err error

	if verr := validator.New().Struct(c); verr != nil {
		err = multierr.Append(err, verr)
	}

	if c.Host != "" {
		u, perr := url.ParseRequestURI(c.Host)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("ProviderConfig.Host '%s' is invalid: %v", c.Host, perr))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			err = multierr.Append(err, fmt.Errorf("ProviderConfig.Host '%s' must use http or https", c.Host))
		}
	}

	return err
}

// String dumps config object as nicely indented JSON
func (c *ProviderConfig) String() string {
	data, _ := json.MarshalIndent(c, "", "    ") // nolint: gas
	return string(data)
}
