package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrNoDefaultController = errors.New("DEFAULT_CONTROLLER must be set")

// ControllerChoice is one selectable controller endpoint on the login form.
type ControllerChoice struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// Login holds everything the login form reads at construction time.
type Login struct {
	DefaultController    string
	AvailableControllers []ControllerChoice
	// MultidomainSupport is read for parity with keystone deployments but
	// does not change the form.
	MultidomainSupport bool
}

// ControllerChoices returns the configured choices, or the default
// controller alone when no list is configured. The result is a copy.
func (l Login) ControllerChoices() []ControllerChoice {
	if len(l.AvailableControllers) == 0 {
		return []ControllerChoice{{Value: l.DefaultController, Label: l.DefaultController}}
	}
	out := make([]ControllerChoice, len(l.AvailableControllers))
	copy(out, l.AvailableControllers)
	return out
}

type LDAP struct {
	URL            string
	BaseDN         string
	UserFilter     string
	UserMailDomain string
	StartTLS       bool
	SkipTLSVerify  bool
}

type Server struct {
	ListenAddr    string
	TLSCert       string
	TLSKey        string
	SessionTTL    time.Duration
	CookieSecure  bool
	ClientTimeout time.Duration
	CacheTTL      time.Duration
	AuthBackend   string
	StaticUsers   string
	LogLevel      string
	LogFormat     string
}

func LoadLogin(settings *SettingsType) (Login, error) {
	def := strings.TrimSpace(settings.Get(DEFAULT_CONTROLLER))
	if def == "" {
		return Login{}, ErrNoDefaultController
	}

	choices := ParseControllers(settings.Get(AVAILABLE_CONTROLLERS))
	if settings.Has(CONTROLLERS_FILE) {
		fromFile, err := LoadControllersFile(settings.Get(CONTROLLERS_FILE))
		if err != nil {
			return Login{}, err
		}
		choices = fromFile
	}

	return Login{
		DefaultController:    def,
		AvailableControllers: choices,
		MultidomainSupport:   settings.IsTrue(OPENSTACK_KEYSTONE_MULTIDOMAIN_SUPPORT),
	}, nil
}

// ParseControllers reads "value=label,value=label". A missing label falls
// back to the value; empty entries are skipped.
func ParseControllers(raw string) []ControllerChoice {
	var choices []ControllerChoice
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, label, _ := strings.Cut(part, "=")
		value = strings.TrimSpace(value)
		label = strings.TrimSpace(label)
		if value == "" {
			continue
		}
		if label == "" {
			label = value
		}
		choices = append(choices, ControllerChoice{Value: value, Label: label})
	}
	return choices
}

func LoadControllersFile(path string) ([]ControllerChoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read controllers file: %w", err)
	}
	var doc struct {
		Controllers []ControllerChoice `yaml:"controllers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse controllers file %s: %w", path, err)
	}
	choices := make([]ControllerChoice, 0, len(doc.Controllers))
	for i, c := range doc.Controllers {
		c.Value = strings.TrimSpace(c.Value)
		if c.Value == "" {
			return nil, fmt.Errorf("controllers file %s: entry %d has no value", path, i)
		}
		if strings.TrimSpace(c.Label) == "" {
			c.Label = c.Value
		}
		choices = append(choices, c)
	}
	return choices, nil
}

func LoadLDAP(settings *SettingsType) LDAP {
	return LDAP{
		URL:            settings.Get(LDAP_URL),
		BaseDN:         settings.Get(LDAP_BASE_DN),
		UserFilter:     settings.Get(LDAP_USER_FILTER),
		UserMailDomain: settings.Get(LDAP_USER_DOMAIN),
		StartTLS:       settings.IsTrue(LDAP_STARTTLS),
		SkipTLSVerify:  settings.IsTrue(LDAP_SKIP_TLS_VERIFY),
	}
}

func LoadServer(settings *SettingsType) (Server, error) {
	sessionTTL, err := parseDuration(settings, SESSION_TTL)
	if err != nil {
		return Server{}, err
	}
	clientTimeout, err := parseDuration(settings, HTTP_CLIENT_TIMEOUT)
	if err != nil {
		return Server{}, err
	}
	cacheTTL, err := parseDuration(settings, NEUTRON_CACHE_TTL)
	if err != nil {
		return Server{}, err
	}
	return Server{
		ListenAddr:    settings.Get(LISTEN_ADDR),
		TLSCert:       settings.Get(TLS_CERT),
		TLSKey:        settings.Get(TLS_KEY),
		SessionTTL:    sessionTTL,
		CookieSecure:  settings.IsTrue(SESSION_COOKIE_SECURE),
		ClientTimeout: clientTimeout,
		CacheTTL:      cacheTTL,
		AuthBackend:   strings.ToLower(strings.TrimSpace(settings.Get(AUTH_BACKEND))),
		StaticUsers:   settings.Get(STATIC_USERS),
		LogLevel:      settings.Get(LOG_LEVEL),
		LogFormat:     settings.Get(LOG_FORMAT),
	}, nil
}

func parseDuration(settings *SettingsType, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(settings.Get(key)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
