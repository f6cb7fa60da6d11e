package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"dlux/internal/auth"
	"dlux/internal/network"
	"dlux/internal/neutron"
)

func testPorts() *stubPorts {
	return &stubPorts{
		ports: []neutron.Port{
			{ID: "p1", Name: "tap-one", NetworkID: "n1", Status: "ACTIVE", AdminStateUp: true},
			{ID: "p2", Name: "tap-two", NetworkID: "n1", Status: "DOWN"},
		},
		networks: map[string]neutron.Network{
			"n1": {ID: "n1", Name: "private", Status: "ACTIVE", Subnets: []string{"s1"}},
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("expected cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("expected body: %v", err)
	}
	return string(b)
}

func login(t *testing.T, srv *httptest.Server, client *http.Client, password string) *http.Response {
	t.Helper()
	resp, err := client.Get(srv.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	readBody(t, resp)

	resp, err = client.PostForm(srv.URL+"/login", url.Values{
		auth.FieldUsername: {"alice"},
		auth.FieldPassword: {password},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	return resp
}

func TestLoginPageRendersForm(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))

	resp, err := client.Get(srv.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := resp.Header.Get("Cache-Control"); got != cacheControlValue {
		t.Fatalf("expected no-cache headers, got %q", got)
	}
	for _, want := range []string{`name="username"`, `name="password"`, `type="hidden" name="controller" value="http://odl.example.com:8181"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in login page", want)
		}
	}
	if len(resp.Cookies()) == 0 {
		t.Fatalf("expected the session cookie to be set for the cookie check")
	}
}

func TestLoginSuccessRedirectsToPorts(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))

	resp := login(t, srv, client, "pw")
	readBody(t, resp)

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != network.PortsIndexPath {
		t.Fatalf("expected redirect to %s, got %q", network.PortsIndexPath, loc)
	}

	resp, err := client.Get(srv.URL + "/login")
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected logged in user to be redirected away from /login, got %d", resp.StatusCode)
	}
}

func TestLoginFailureShowsMessage(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))

	resp := login(t, srv, client, "wrong")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(body, auth.MsgInvalidCredentials) {
		t.Fatalf("expected %q in page", auth.MsgInvalidCredentials)
	}
	if strings.Contains(body, "wrong") {
		t.Fatalf("expected password to be omitted from the page")
	}

	resp, err := client.Get(srv.URL + network.PortsIndexPath)
	if err != nil {
		t.Fatalf("GET ports: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected failed login to leave the user anonymous, got %d", resp.StatusCode)
	}

	// A retry after a failure still passes the cookie check.
	resp, err = client.PostForm(srv.URL+"/login", url.Values{
		auth.FieldUsername: {"alice"},
		auth.FieldPassword: {"pw"},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected retry to succeed, got %d", resp.StatusCode)
	}
}

func TestLoginWithoutCookieCheck(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))

	resp, err := client.PostForm(srv.URL+"/login", url.Values{
		auth.FieldUsername: {"alice"},
		auth.FieldPassword: {"pw"},
	})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(body, "Cookies are required for logging in.") {
		t.Fatalf("expected cookie error in page")
	}
}

func TestLoginMissingFields(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))

	resp, err := client.PostForm(srv.URL+"/login", url.Values{auth.FieldUsername: {"alice"}})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(body, "This field is required.") {
		t.Fatalf("expected required field error in page")
	}
	if !strings.Contains(body, `value="alice"`) {
		t.Fatalf("expected username to be kept")
	}
}

func TestPortsPagesAfterLogin(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))
	readBody(t, login(t, srv, client, "pw"))

	resp, err := client.Get(srv.URL + network.PortsIndexPath)
	if err != nil {
		t.Fatalf("GET ports: %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	for _, want := range []string{`href="/network/ports/p1/"`, `href="/network/networks/n1/"`, "tap-two", "alice"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in ports page", want)
		}
	}

	resp, err = client.Get(srv.URL + "/network/ports/p1/")
	if err != nil {
		t.Fatalf("GET port: %v", err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "tap-one") {
		t.Fatalf("expected port detail page, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/network/networks/n1/")
	if err != nil {
		t.Fatalf("GET network: %v", err)
	}
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "private") {
		t.Fatalf("expected network detail page, got %d", resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + "/network/ports/missing/")
	if err != nil {
		t.Fatalf("GET port: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestPortsPageWithoutNetworkFails(t *testing.T) {
	source := &stubPorts{ports: []neutron.Port{{ID: "p1"}}}
	srv, client := newTestClient(t, newTestHandler(t, source))
	readBody(t, login(t, srv, client, "pw"))

	resp, err := client.Get(srv.URL + network.PortsIndexPath)
	if err != nil {
		t.Fatalf("GET ports: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, resp.StatusCode)
	}
}

func TestPortsPageControllerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "unreachable", err: errors.New("dial tcp: refused"), status: http.StatusBadGateway},
		{name: "unauthorized", err: neutron.ErrUnauthorized, status: http.StatusSeeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := testPorts()
			srv, client := newTestClient(t, newTestHandler(t, source))
			readBody(t, login(t, srv, client, "pw"))
			source.err = tt.err

			resp, err := client.Get(srv.URL + network.PortsIndexPath)
			if err != nil {
				t.Fatalf("GET ports: %v", err)
			}
			readBody(t, resp)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestAPIPortsAfterLogin(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))
	readBody(t, login(t, srv, client, "pw"))

	resp, err := client.Get(srv.URL + "/api/ports")
	if err != nil {
		t.Fatalf("GET /api/ports: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var out struct {
		Name string `json:"name"`
		Rows []struct {
			Cells []struct {
				Column string `json:"column"`
				Value  string `json:"value"`
				Link   string `json:"link"`
			} `json:"cells"`
		} `json:"rows"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &out); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if out.Name != network.PortsTableName {
		t.Fatalf("expected table %q, got %q", network.PortsTableName, out.Name)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out.Rows))
	}
	if cell := out.Rows[0].Cells[0]; cell.Value != "p1" || cell.Link != "/network/ports/p1/" {
		t.Fatalf("unexpected first cell: %+v", cell)
	}

	resp, err = client.Get(srv.URL + "/api/networks/missing")
	if err != nil {
		t.Fatalf("GET /api/networks: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestLogoutEndsSession(t *testing.T) {
	srv, client := newTestClient(t, newTestHandler(t, testPorts()))
	readBody(t, login(t, srv, client, "pw"))

	resp, err := client.Get(srv.URL + "/logout")
	if err != nil {
		t.Fatalf("GET /logout: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, resp.StatusCode)
	}

	resp, err = client.Get(srv.URL + network.PortsIndexPath)
	if err != nil {
		t.Fatalf("GET ports: %v", err)
	}
	readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected logout to end the session, got %d", resp.StatusCode)
	}
}
