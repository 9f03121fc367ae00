package ldap

import (
	"context"
	"fmt"
	"net"
	"sort"
)

// serverInfo is one discovered domain controller endpoint.
type serverInfo struct {
	Host     string
	Port     int
	UseTLS   bool
	Priority int
	Weight   int
}

// URL renders the endpoint as a dialable LDAP URL.
func (s *serverInfo) URL() string {
	scheme := "ldap"
	if s.UseTLS {
		scheme = "ldaps"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Host, s.Port)
}

// discoverServers resolves the domain controllers of a domain through DNS
// SRV records, LDAPS first, plain LDAP as fallback. Results are ordered
// by SRV priority (lower first), then weight (higher first).
func discoverServers(ctx context.Context, resolver *net.Resolver, domain string) ([]*serverInfo, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	services := []struct {
		name   string
		useTLS bool
	}{
		{"_ldaps._tcp." + domain, true},
		{"_ldap._tcp." + domain, false},
	}

	var servers []*serverInfo
	for _, svc := range services {
		_, addrs, err := resolver.LookupSRV(ctx, "", "", svc.name)
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			host := addr.Target
			if len(host) > 0 && host[len(host)-1] == '.' {
				host = host[:len(host)-1]
			}
			servers = append(servers, &serverInfo{
				Host:     host,
				Port:     int(addr.Port),
				UseTLS:   svc.useTLS,
				Priority: int(addr.Priority),
				Weight:   int(addr.Weight),
			})
		}
		if len(servers) > 0 {
			break
		}
	}

	if len(servers) == 0 {
		return nil, fmt.Errorf("no SRV records found for domain %q", domain)
	}

	sort.SliceStable(servers, func(i, j int) bool {
		if servers[i].Priority != servers[j].Priority {
			return servers[i].Priority < servers[j].Priority
		}
		return servers[i].Weight > servers[j].Weight
	})

	return servers, nil
}
