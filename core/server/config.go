package server

import "strings"

// Config holds configuration for the HTTP listener.
// Field names follow the keys of the settings file.
type Config struct {
	// Scheme is either http or https.
	Scheme string `mapstructure:"scheme" default:"http"`
	// Host is the host name the listener binds to. "*" and "+" bind every interface.
	Host string `mapstructure:"host_name" default:"localhost"`
	// Port is the TCP port, kept as a string as it is in the settings file.
	Port string `mapstructure:"port_no" default:"8080"`
	// Path is the URL prefix every request must live under.
	Path string `mapstructure:"path" default:"api"`
	// AuthenticationMethod is "Basic" or anything else for anonymous access.
	AuthenticationMethod string `mapstructure:"authentication_method" default:"Anonymous"`
	// User is the expected Basic auth user.
	User string `mapstructure:"user" default:""`
	// Password is the expected Basic auth password.
	Password string `mapstructure:"password" default:""`
	// Realm is announced in the WWW-Authenticate challenge.
	Realm string `mapstructure:"realm" default:"stub-server"`
	// ResponseFile is the static JSON payload returned for every request.
	ResponseFile string `mapstructure:"response_file" default:"response.json"`
	// TLSCertFile and TLSKeyFile are required when Scheme is https.
	TLSCertFile string `mapstructure:"tls_cert_file" default:""`
	TLSKeyFile  string `mapstructure:"tls_key_file" default:""`
	// MetricsEnabled exposes /metrics next to the prefix.
	MetricsEnabled bool `mapstructure:"metrics_enabled" default:"false"`
	// SwaggerEnabled exposes /swagger/* next to the prefix.
	SwaggerEnabled bool `mapstructure:"swagger_enabled" default:"false"`
}

const (
	AuthBasic     = "Basic"
	AuthAnonymous = "Anonymous"

	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// IsBasicAuth reports whether requests must carry Basic credentials.
func (c Config) IsBasicAuth() bool {
	return strings.EqualFold(strings.TrimSpace(c.AuthenticationMethod), AuthBasic)
}

// RequiresRebind reports whether switching from c to next only takes effect
// after the listener is bound again. Credentials, realm and the response file
// are read per request and never require it.
func (c Config) RequiresRebind(next Config) bool {
	return c.Scheme != next.Scheme ||
		c.Host != next.Host ||
		c.Port != next.Port ||
		c.Path != next.Path ||
		c.TLSCertFile != next.TLSCertFile ||
		c.TLSKeyFile != next.TLSKeyFile ||
		c.MetricsEnabled != next.MetricsEnabled ||
		c.SwaggerEnabled != next.SwaggerEnabled
}
