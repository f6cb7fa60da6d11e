package ldap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"dlux/internal/auth"
	"dlux/internal/config"
	"dlux/internal/types"

	"github.com/go-ldap/ldap/v3"
	"github.com/sirupsen/logrus"
)

const (
	MsgDirectoryUnreachable = "Unable to connect to the directory."
	dialTimeout             = 10 * time.Second
)

// Authenticator binds as the user and then looks the user up with the
// configured filter.
type Authenticator struct {
	cfg    config.LDAP
	logger logrus.FieldLogger
}

func NewAuthenticator(cfg config.LDAP, logger logrus.FieldLogger) *Authenticator {
	return &Authenticator{cfg: cfg, logger: logger}
}

func (a *Authenticator) Authenticate(ctx context.Context, username, password, controller string) (*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, auth.NewError(auth.MsgInvalidCredentials, errors.New("empty password"))
	}

	conn, err := dialLDAP(a.cfg)
	if err != nil {
		return nil, auth.NewError(MsgDirectoryUnreachable, fmt.Errorf("ldap dial: %w", err))
	}
	defer conn.Close()

	// Closing the connection unblocks a pending Bind or Search.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	normalizedUser, domain := splitUserDomain(username, a.cfg.UserMailDomain)
	if normalizedUser == "" {
		normalizedUser = username
	}
	mail := mailAddress(username, a.cfg.UserMailDomain)
	a.logger.WithFields(logrus.Fields{
		"input":  username,
		"user":   normalizedUser,
		"domain": domain,
	}).Debug("ldap login mapping")

	// Bind as the user using only the mail/UPN form.
	if err := conn.Bind(mail, password); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, auth.NewError(auth.MsgInvalidCredentials, fmt.Errorf("ldap bind failed: %w", err))
		}
		return nil, auth.NewError(auth.MsgAuthenticationFailed, fmt.Errorf("ldap bind failed: %w", err))
	}

	filter := fmt.Sprintf(a.cfg.UserFilter, ldap.EscapeFilter(mail))
	searchReq := ldap.NewSearchRequest(
		a.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases, 1, 0, false,
		filter,
		[]string{"dn"},
		nil,
	)

	sr, err := conn.Search(searchReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if len(sr.Entries) == 0 {
		return nil, auth.NewError(auth.MsgInvalidCredentials, fmt.Errorf("user %s not found", mail))
	}

	return types.NewUser(normalizedUser, controller, ""), nil
}

func mailAddress(username, userMailDomain string) string {
	if strings.Contains(username, "@") || userMailDomain == "" {
		return username
	}
	domain := userMailDomain
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	return username + domain
}

func dialLDAP(cfg config.LDAP) (*ldap.Conn, error) {
	// #nosec G402 -- skip TLS verification if configured
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.SkipTLSVerify}

	conn, err := ldap.DialURL(cfg.URL,
		ldap.DialWithTLSConfig(tlsConfig),
		ldap.DialWithDialer(&net.Dialer{Timeout: dialTimeout}),
	)
	if err != nil {
		return nil, err
	}

	if cfg.StartTLS && strings.HasPrefix(cfg.URL, "ldap://") {
		if err := conn.StartTLS(tlsConfig); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// splitUserDomain accepts DOMAIN\user, user@domain or a bare user name.
func splitUserDomain(username, fallbackDomain string) (string, string) {
	user := strings.TrimSpace(username)
	if user == "" {
		return "", ""
	}
	if idx := strings.LastIndex(user, "\\"); idx >= 0 {
		domain := strings.TrimSpace(user[:idx])
		trimmed := strings.TrimSpace(user[idx+1:])
		if trimmed != "" {
			return trimmed, domain
		}
	}
	if idx := strings.LastIndex(user, "@"); idx >= 0 {
		domain := strings.TrimSpace(user[idx+1:])
		trimmed := strings.TrimSpace(user[:idx])
		if trimmed != "" {
			return trimmed, domain
		}
	}
	fallback := strings.TrimSpace(fallbackDomain)
	fallback = strings.TrimPrefix(fallback, "@")
	return user, fallback
}
