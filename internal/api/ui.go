package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

var uiTemplates = template.Must(template.New("layout").Parse(`{{define "login"}}
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Newsposter</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;max-width:420px;margin:96px auto;padding:0 16px;color:#0b0b0b;background:#fafafa}
    h1{font-size:22px;margin:0 0 16px}
    .card{background:#fff;border:1px solid #e9e9e9;border-radius:10px;padding:16px}
    .btn{display:inline-block;background:#0b63e5;color:#fff;border:none;padding:10px 14px;border-radius:8px;cursor:pointer}
    input[type=password]{padding:9px 10px;border:1px solid #dcdcdc;border-radius:8px;width:100%;margin-bottom:12px;box-sizing:border-box}
    .muted{color:#666;font-size:13px}
    .error{color:#b3261e;margin-bottom:12px}
  </style>
</head>
<body>
  <h1>Newsposter</h1>
  <div class="card">
    {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
    <form method="post" action="/ui/login">
      <input type="password" name="password" placeholder="Password" required autofocus />
      <button class="btn" type="submit">Sign in</button>
    </form>
    <div class="muted" style="margin-top:12px">API clients use the X-Auth-Key header</div>
  </div>
</body>
</html>
{{end}}

{{define "dashboard"}}
<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta http-equiv="refresh" content="3"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Newsposter · Dashboard</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Cantarell,Noto Sans,sans-serif;max-width:980px;margin:32px auto;padding:0 16px;color:#0b0b0b;background:#fafafa}
    header{margin-bottom:24px;display:flex;justify-content:space-between;align-items:center}
    h1{font-size:22px;margin:0}
    .card{background:#fff;border:1px solid #e9e9e9;border-radius:10px;padding:16px;margin:12px 0}
    .btn{display:inline-block;background:#0b63e5;color:#fff;border:none;padding:10px 14px;border-radius:8px;cursor:pointer}
    .btn[disabled]{background:#9db8dd;cursor:default}
    .muted{color:#666}
    .mono{font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,monospace;font-size:13px}
    .grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(280px,1fr));gap:12px}
    .status{display:inline-block;padding:4px 8px;border-radius:6px;background:#efefef;font-size:12px}
    .status.done{background:#d9f2df;color:#135c26}
    .status.error{background:#fde5e3;color:#b3261e}
    .taskerr{color:#b3261e;font-size:13px;margin-top:8px}
    .result{font-size:13px;margin-top:8px}
    .logbox{max-height:360px;overflow-y:auto;font-size:13px}
    .logline{padding:3px 0;border-bottom:1px solid #f2f2f2}
    .sev{display:inline-block;width:68px;font-weight:600}
    .sev.ERROR{color:#b3261e}
    .sev.SUCCESS{color:#135c26}
    .sev.INFO{color:#666}
  </style>
</head>
<body>
  <header>
    <h1>Newsposter</h1>
    <form method="post" action="/ui/batch">
      {{if .State.Running}}
        <button class="btn" type="submit" disabled>Batch running…</button>
      {{else}}
        <button class="btn" type="submit">Start batch</button>
      {{end}}
    </form>
  </header>

  <div class="card">
    {{if .State.BatchID}}
      <div>Batch <span class="mono">{{.State.BatchID}}</span></div>
      <div class="muted">{{.State.Completed}} of {{len .State.Tasks}} posts published</div>
    {{else}}
      <div class="muted">No batch has run yet</div>
    {{end}}
  </div>

  <div class="grid">
    {{range .State.Tasks}}
    <div class="card">
      <div><strong>{{.CategoryName}}</strong></div>
      <div style="margin-top:6px"><span class="status {{if eq .Status "done"}}done{{end}}{{if eq .Status "error"}}error{{end}}">{{.Status}}</span></div>
      {{if .Result}}
      <div class="result">
        <div>{{.Result.Headline}}</div>
        <div><a href="{{.Result.ImageURL}}" target="_blank">image</a> · <a href="{{.Result.SourceURL}}" target="_blank">source</a></div>
      </div>
      {{end}}
      {{if .Error}}<div class="taskerr">{{.Error}}</div>{{end}}
    </div>
    {{end}}
  </div>

  <div class="card">
    <h3 style="margin-top:0">Log</h3>
    <div class="logbox">
      {{range .Entries}}
      <div class="logline">
        <span class="muted mono">{{.Time.Format "15:04:05"}}</span>
        <span class="sev {{.Severity}}">{{.Severity}}</span>
        {{if .Category}}<span class="mono">[{{.Category}}]</span>{{end}}
        {{.Message}}
      </div>
      {{end}}
      {{if not .Entries}}<div class="muted">Empty</div>{{end}}
    </div>
  </div>
</body>
</html>
{{end}}
`))

// RegisterUIRoutes registers the minimal no-JS HTML UI
func (a *API) RegisterUIRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(uiTemplates)
	router.GET("/", a.UILogin)
	router.POST("/ui/login", a.UIDoLogin)

	ui := router.Group("/ui", PasswordGate(a.password))
	{
		ui.GET("", a.UIDashboard)
		ui.POST("/batch", a.UIStartBatch)
	}
}

// UILogin renders the login form, or goes straight to the dashboard when
// the client is already authenticated (or no password is configured).
func (a *API) UILogin(c *gin.Context) {
	if a.password == "" {
		c.Redirect(http.StatusFound, "/ui")
		return
	}
	if cookie, err := c.Cookie(authCookieName); err == nil && cookie == a.password {
		c.Redirect(http.StatusFound, "/ui")
		return
	}
	c.HTML(http.StatusOK, "login", gin.H{})
}

// UIDoLogin checks the password and sets the auth cookie
func (a *API) UIDoLogin(c *gin.Context) {
	if a.password != "" && c.PostForm("password") != a.password {
		c.HTML(http.StatusUnauthorized, "login", gin.H{"Error": "wrong password"})
		return
	}
	c.SetCookie(authCookieName, a.password, authCookieMaxAge, "/", "", false, true)
	c.Redirect(http.StatusFound, "/ui")
}

// UIDashboard renders the batch dashboard
func (a *API) UIDashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard", gin.H{
		"State":   a.runner.State(),
		"Entries": a.log.Snapshot(),
	})
}

// UIStartBatch triggers a batch from the dashboard button
func (a *API) UIStartBatch(c *gin.Context) {
	a.runner.TryStart()
	c.Redirect(http.StatusFound, "/ui")
}
