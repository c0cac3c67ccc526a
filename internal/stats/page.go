package stats

import "html/template"

var statsPage = template.Must(template.New("stats").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Chat Server Statistics</title>
<meta http-equiv="refresh" content="5">
<style>
body { font-family: 'Segoe UI', Arial, sans-serif; background: linear-gradient(to bottom right, #40486c, #859398); color: white; margin: 0; padding: 20px; }
.container { max-width: 800px; margin: 0 auto; background-color: rgba(255, 255, 255, 0.1); border-radius: 10px; padding: 20px; }
.stat-box { background-color: rgba(255, 255, 255, 0.2); border-radius: 5px; padding: 15px; margin-bottom: 15px; }
.list { background-color: white; color: #40486c; border-radius: 5px; padding: 10px; max-height: 300px; overflow-y: auto; }
.item { padding: 5px 10px; border-bottom: 1px solid #eee; }
</style>
</head>
<body>
<div class="container">
<h1>Chat Server Statistics</h1>
<div class="stat-box">
<h2>Server Status</h2>
<p>Status: {{if .Running}}Running{{else}}Stopped{{end}}</p>
<p>Listening on: {{.Address}}</p>
<p>Current time: {{.Now.Format "2006-01-02 15:04:05"}}</p>
{{if .Uptime}}<p>Uptime: {{.Uptime}}</p>{{end}}
<p>Goroutines: {{.Goroutines}}{{if .Threads}}, threads: {{.Threads}}{{end}}</p>
</div>
<div class="stat-box">
<h2>User Statistics</h2>
<p>Users online: {{.UsersOnline}}</p>
<p>Total messages sent: {{.Messages}}</p>
<h3>Connected Users:</h3>
<div class="list">
{{range .Users}}<div class="item">{{.}}</div>
{{else}}<div class="item">No users connected</div>
{{end}}</div>
</div>
<div class="stat-box">
<h2>Banned Words</h2>
<div class="list">
{{range .BannedWords}}<div class="item">{{.}}</div>
{{else}}<div class="item">No banned words</div>
{{end}}</div>
</div>
</div>
</body>
</html>
`))
