package datastore

import (
	"fmt"
	"net"

	"github.com/openbatchproject/openbatch/internal/datastore/configuration"
)

// escapeSecret escapes a secret for embedding in the descriptor grammar:
// backslash and single-quote are each prefixed with a backslash.
// https://www.postgresql.org/docs/current/libpq-connect.html
//
// The destination is sized 2*len(src)+1 so no input can overflow it.
func escapeSecret(src []byte) []byte {
	dst := make([]byte, 0, 2*len(src)+1)
	for _, b := range src {
		if b == '\'' || b == '\\' {
			dst = append(dst, '\\')
		}
		dst = append(dst, b)
	}
	return dst
}

// resolveHostIPv4 resolves host to a numeric IPv4 address. The descriptor
// embeds the address rather than the hostname so the backend does not
// repeat the lookup.
func resolveHostIPv4(host string) (string, error) {
	addrs, err := net.LookupIP(host)
	if err != nil {
		return "", failf(FailHostResolution, "could not resolve dataservice host %s: %v", host, err)
	}
	for _, a := range addrs {
		if v4 := a.To4(); v4 != nil {
			return v4.String(), nil
		}
	}
	return "", failf(FailHostResolution, "no IPv4 address for dataservice host %s", host)
}

// buildDescriptor assembles the immutable connection descriptor for the
// configured data service. If cfg.Host is empty the hostaddr field is
// omitted, letting the backend default to its implicit local target.
//
// The descriptor embeds the escaped account secret. All intermediate
// secret buffers are scrubbed here before return; the caller owns the
// returned buffer and must scrub it after use.
func buildDescriptor(cfg configuration.DatastoreConfig) ([]byte, error) {
	secret, err := loadSecret(cfg.HomePath, cfg.User)
	if err != nil {
		return nil, err
	}
	escaped := escapeSecret(secret)

	var desc []byte
	if cfg.Host == "" {
		desc = []byte(fmt.Sprintf("port=%d dbname='%s' user='%s' password='%s' connect_timeout=%d",
			cfg.Port, cfg.Database, cfg.User, escaped, cfg.ConnectTimeout))
	} else {
		addr, rerr := resolveHostIPv4(cfg.Host)
		if rerr != nil {
			scrub(secret)
			scrub(escaped)
			return nil, rerr
		}
		desc = []byte(fmt.Sprintf("hostaddr='%s' port=%d dbname='%s' user='%s' password='%s' connect_timeout=%d",
			addr, cfg.Port, cfg.Database, cfg.User, escaped, cfg.ConnectTimeout))
	}
	scrub(secret)
	scrub(escaped)
	return desc, nil
}
