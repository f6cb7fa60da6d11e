package main

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"
)

const (
	cacheControlValue = "no-store, no-cache, must-revalidate, max-age=0"
	pragmaValue       = "no-cache"
	expiresValue      = "0"
)

const layoutHTML = `{{define "head"}}<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - DLUX</title>
  <style>
    :root { --bg:#0b1224; --panel:#0f172a; --accent:#38bdf8; --muted:#94a3b8; --line:rgba(255,255,255,0.1); }
    body { margin:0; font-family: "Space Grotesk", "Segoe UI", sans-serif; background:
      radial-gradient(circle at 15% 15%, rgba(56,189,248,0.18), transparent 40%),
      radial-gradient(circle at 85% 5%, rgba(14,165,233,0.12), transparent 35%),
      var(--bg);
      color:#e2e8f0; min-height:100vh; }
    .center { display:flex; align-items:center; justify-content:center; min-height:100vh; padding:24px; box-sizing:border-box; }
    .card { background:linear-gradient(160deg, rgba(15,23,42,0.96), rgba(2,6,23,0.96)); border:1px solid var(--line); border-radius:18px; padding:36px 40px; max-width:520px; width:100%; box-shadow:0 24px 70px rgba(0,0,0,0.4); }
    .page { max-width:1100px; margin:0 auto; padding:32px 24px; }
    nav { display:flex; justify-content:space-between; align-items:center; margin-bottom:24px; color:var(--muted); }
    h1 { margin:0 0 12px; font-size:30px; color:var(--accent); }
    h2 { margin:0 0 16px; font-size:22px; color:var(--accent); }
    p { margin:8px 0; line-height:1.5; color:var(--muted); }
    a { color:var(--accent); }
    form { display:grid; gap:14px; margin-top:18px; width:100%; justify-items:stretch; }
    .field { width:100%; }
    label { display:block; margin-bottom:6px; font-size:13px; color:var(--muted); letter-spacing:0.3px; text-transform:uppercase; }
    input, select { display:block; width:100%; box-sizing:border-box; background:#0b1224; border:1px solid var(--line); color:#e2e8f0; border-radius:10px; padding:10px 12px; font-size:15px; }
    button { width:100%; box-sizing:border-box; border:0; border-radius:10px; padding:12px 14px; font-weight:600; background:var(--accent); color:#062238; cursor:pointer; }
    .error { margin-top:12px; padding:10px 12px; border-radius:10px; border:1px solid rgba(248,113,113,0.4); background:rgba(248,113,113,0.12); color:#fecaca; font-size:13px; }
    .field-error { margin-top:6px; color:#fecaca; font-size:12px; }
    table { width:100%; border-collapse:collapse; background:var(--panel); border:1px solid var(--line); border-radius:12px; overflow:hidden; }
    th, td { text-align:left; padding:10px 14px; border-bottom:1px solid var(--line); font-size:14px; }
    th { color:var(--muted); text-transform:uppercase; font-size:12px; letter-spacing:0.3px; }
    dl { display:grid; grid-template-columns:200px 1fr; gap:8px 16px; }
    dt { color:var(--muted); }
  </style>
</head>
<body>{{end}}
{{define "nav"}}<nav><strong>DLUX</strong><span>{{.User}} @ {{.Controller}} &middot; <a href="/logout">Sign out</a></span></nav>{{end}}
{{define "foot"}}</body>
</html>{{end}}`

const loginHTML = `{{define "login"}}{{template "head" .}}
  <div class="center"><div class="card">
    <h1>DLUX</h1>
    <p>Sign in with your controller credentials.</p>
    {{range .Errors}}<div class="error">{{.}}</div>{{end}}
    <form method="post" action="/login">
      {{range .Fields}}{{if .IsHidden}}
      <input type="hidden" name="{{.Name}}" value="{{.Current}}">
      {{else}}<div class="field">
        <label for="{{.Name}}">{{.Label}}</label>
        {{if eq .Widget "select"}}{{$cur := .Current}}<select id="{{.Name}}" name="{{.Name}}"{{if .Required}} required{{end}}>
          <option value="">---------</option>
          {{range .Choices}}<option value="{{.Value}}"{{if eq .Value $cur}} selected{{end}}>{{.Label}}</option>
          {{end}}</select>
        {{else if eq .Widget "password"}}<input id="{{.Name}}" name="{{.Name}}" type="password" autocomplete="current-password" required>
        {{else}}<input id="{{.Name}}" name="{{.Name}}" value="{{.Current}}" autocomplete="username" required>
        {{end}}{{range .Errors}}<div class="field-error">{{.}}</div>{{end}}
      </div>{{end}}{{end}}
      <button type="submit">Sign In</button>
    </form>
  </div></div>
{{template "foot" .}}{{end}}`

const tableHTML = `{{define "table"}}{{template "head" .}}
  <div class="page">
    {{template "nav" .}}
    <h2>{{.Table.VerboseName}}</h2>
    <table id="{{.Table.Name}}">
      <thead><tr>{{range .Table.Headers}}<th>{{.VerboseName}}</th>{{end}}</tr></thead>
      <tbody>
      {{range .Rows}}<tr>{{range .Cells}}<td>{{if .Link}}<a href="{{.Link}}">{{.Value}}</a>{{else}}{{.Value | default "-"}}{{end}}</td>{{end}}</tr>
      {{else}}<tr><td colspan="{{len .Table.Headers}}">No items to display.</td></tr>
      {{end}}</tbody>
    </table>
  </div>
{{template "foot" .}}{{end}}`

const portDetailHTML = `{{define "port"}}{{template "head" .}}
  <div class="page">
    {{template "nav" .}}
    <h2>Port: {{.Port.Name | default .Port.ID}}</h2>
    <dl>
      <dt>ID</dt><dd>{{.Port.ID}}</dd>
      <dt>Name</dt><dd>{{.Port.Name | default "-"}}</dd>
      <dt>Network</dt><dd>{{if .NetworkLink}}<a href="{{.NetworkLink}}">{{.Port.NetworkID}}</a>{{else}}{{.Port.NetworkID | default "-"}}{{end}}</dd>
      <dt>Tenant</dt><dd>{{.Port.TenantID | default "-"}}</dd>
      <dt>Status</dt><dd>{{.Port.Status | default "-"}}</dd>
      <dt>Admin State</dt><dd>{{if .Port.AdminStateUp}}UP{{else}}DOWN{{end}}</dd>
      <dt>MAC Address</dt><dd>{{.Port.MACAddress | default "-"}}</dd>
      <dt>Device</dt><dd>{{.Port.DeviceOwner | default "-"}} {{.Port.DeviceID}}</dd>
      <dt>Fixed IPs</dt><dd>{{range .Port.FixedIPs}}{{.IPAddress}} ({{.SubnetID | trunc 8}})<br>{{else}}-{{end}}</dd>
    </dl>
    <p><a href="{{.BackLink}}">Back to ports</a></p>
  </div>
{{template "foot" .}}{{end}}`

const networkDetailHTML = `{{define "network"}}{{template "head" .}}
  <div class="page">
    {{template "nav" .}}
    <h2>Network: {{.Network.Name | default .Network.ID}}</h2>
    <dl>
      <dt>ID</dt><dd>{{.Network.ID}}</dd>
      <dt>Name</dt><dd>{{.Network.Name | default "-"}}</dd>
      <dt>Tenant</dt><dd>{{.Network.TenantID | default "-"}}</dd>
      <dt>Status</dt><dd>{{.Network.Status | default "-"}}</dd>
      <dt>Shared</dt><dd>{{if .Network.Shared}}Yes{{else}}No{{end}}</dd>
      <dt>Admin State</dt><dd>{{if .Network.AdminStateUp}}UP{{else}}DOWN{{end}}</dd>
      <dt>Subnets</dt><dd>{{join ", " .Network.Subnets | default "-"}}</dd>
    </dl>
    <p><a href="{{.BackLink}}">Back to ports</a></p>
  </div>
{{template "foot" .}}{{end}}`

var pageTemplates = template.Must(
	template.New("pages").
		Funcs(sprig.FuncMap()).
		Parse(layoutHTML + loginHTML + tableHTML + portDetailHTML + networkDetailHTML),
)

func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", cacheControlValue)
	w.Header().Set("Pragma", pragmaValue)
	w.Header().Set("Expires", expiresValue)
}

// renderPage executes name into a buffer so a template failure never
// leaves a half-written page.
func (a *app) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		a.logger.WithError(err).WithField("template", name).Error("render page failed")
		http.Error(w, "Page unavailable.", http.StatusInternalServerError)
		return
	}
	setNoCacheHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		a.logger.WithError(err).WithField("template", name).Warn("write page failed")
	}
}
