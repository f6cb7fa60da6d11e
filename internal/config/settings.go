package config

import (
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
)

type SettingsType struct {
	m    map[string]SettingType
	keys []string
}

type SettingType struct {
	Description string
	Value       string
	Secret      bool
}

func NewSettingType() *SettingsType {
	s := &SettingsType{m: make(map[string]SettingType)}

	s.Set(LISTEN_ADDR, "Server listen address", ":8443")
	s.Set(TLS_CERT, "TLS certificate path, generated when missing", "certs/server.crt")
	s.Set(TLS_KEY, "TLS private key path, generated when missing", "certs/server.key")
	s.Set(SESSION_TTL, "Session lifetime", "30m")
	s.Set(SESSION_COOKIE_SECURE, "Only send the session cookie over TLS", "true")
	s.Set(LOG_LEVEL, "Log level (debug, info, warn, error)", "info")
	s.Set(LOG_FORMAT, "Log format (text or json)", "text")
	s.Set(DEFAULT_CONTROLLER, "Controller used when none is selected", "http://127.0.0.1:8181")
	s.Set(AVAILABLE_CONTROLLERS, "Comma separated value=label controller choices", "")
	s.Set(CONTROLLERS_FILE, "YAML file with controller choices, overrides AVAILABLE_CONTROLLERS", "")
	s.Set(OPENSTACK_KEYSTONE_MULTIDOMAIN_SUPPORT, "Multi-domain identity support (currently no effect)", "false")
	s.Set(AUTH_BACKEND, "Authentication backend (controller, ldap or static)", "controller")
	s.Set(HTTP_CLIENT_TIMEOUT, "Timeout for calls to the controller", "10s")
	s.Set(NEUTRON_CACHE_TTL, "How long neutron listings are cached, 0 disables the cache", "30s")
	s.Set(LDAP_URL, "LDAP server url", "ldaps://ldap:389")
	s.Set(LDAP_BASE_DN, "LDAP base DN", "dc=glauth,dc=com")
	s.Set(LDAP_USER_FILTER, "LDAP user filter", "(mail=%s)")
	s.Set(LDAP_USER_DOMAIN, "LDAP user mail domain", "@example.com")
	s.Set(LDAP_STARTTLS, "Use StartTLS when connecting to LDAP", "false")
	s.Set(LDAP_SKIP_TLS_VERIFY, "Skip TLS verification when connecting to LDAP", "false")
	s.SetSecret(STATIC_USERS, "Comma separated user:hash pairs for the static backend", "")

	return s
}

// Print writes the settings table, hiding secret values.
func (s *SettingsType) Print(w io.Writer) {
	table := tablewriter.NewWriter(w)

	table.Header("KEY", "Description", "value")
	for _, key := range s.keys {
		setting := s.m[key]
		value := setting.Value
		if setting.Secret && value != "" {
			value = "********"
		}
		table.Append([]string{key, setting.Description, value})
	}
	table.Render()
}

func (s *SettingsType) Get(id string) string {
	return s.m[id].Value
}

func (s *SettingsType) Has(id string) bool {
	return len(strings.TrimSpace(s.m[id].Value)) > 0
}

func (s *SettingsType) IsTrue(id string) bool {
	v := strings.ToLower(strings.TrimSpace(s.m[id].Value))
	return v == "1" || v == "true" || v == "yes"
}

func (s *SettingsType) Set(id string, description string, defaultValue string) {
	s.set(id, description, defaultValue, false)
}

func (s *SettingsType) SetSecret(id string, description string, defaultValue string) {
	s.set(id, description, defaultValue, true)
}

func (s *SettingsType) set(id, description, defaultValue string, secret bool) {
	if _, ok := s.m[id]; !ok {
		s.keys = append(s.keys, id)
	}
	value := defaultValue
	if v, ok := os.LookupEnv(id); ok {
		value = v
	}
	s.m[id] = SettingType{Description: description, Value: value, Secret: secret}
}

const (
	LISTEN_ADDR                            = "LISTEN_ADDR"
	TLS_CERT                               = "TLS_CERT"
	TLS_KEY                                = "TLS_KEY"
	SESSION_TTL                            = "SESSION_TTL"
	SESSION_COOKIE_SECURE                  = "SESSION_COOKIE_SECURE"
	LOG_LEVEL                              = "LOG_LEVEL"
	LOG_FORMAT                             = "LOG_FORMAT"
	DEFAULT_CONTROLLER                     = "DEFAULT_CONTROLLER"
	AVAILABLE_CONTROLLERS                  = "AVAILABLE_CONTROLLERS"
	CONTROLLERS_FILE                       = "CONTROLLERS_FILE"
	OPENSTACK_KEYSTONE_MULTIDOMAIN_SUPPORT = "OPENSTACK_KEYSTONE_MULTIDOMAIN_SUPPORT"
	AUTH_BACKEND                           = "AUTH_BACKEND"
	HTTP_CLIENT_TIMEOUT                    = "HTTP_CLIENT_TIMEOUT"
	NEUTRON_CACHE_TTL                      = "NEUTRON_CACHE_TTL"
	LDAP_URL                               = "LDAP_URL"
	LDAP_BASE_DN                           = "LDAP_BASE_DN"
	LDAP_USER_FILTER                       = "LDAP_USER_FILTER"
	LDAP_USER_DOMAIN                       = "LDAP_USER_DOMAIN"
	LDAP_STARTTLS                          = "LDAP_STARTTLS"
	LDAP_SKIP_TLS_VERIFY                   = "LDAP_SKIP_TLS_VERIFY"
	STATIC_USERS                           = "STATIC_USERS"
)
