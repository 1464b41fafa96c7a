package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/button-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ms": func(d time.Duration) int64 { return d.Milliseconds() },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Button Sensor</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.down { color: green; font-weight: bold; }
.up { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
#log { height: 12em; overflow-y: auto; background: #f6f6f6; padding: 4px 8px; }
</style>
</head>
<body>
<h1>Button Sensor</h1>

<h2>Buttons</h2>
<table>
<tr><th>Name</th><th>Pin</th><th>State</th><th>Holds</th><th>Cycle</th><th>Press</th><th>Click</th><th>Hold</th></tr>
{{range .Buttons}}<tr>
<td>{{.Name}}</td><td>{{.Channel}}</td>
<td id="state-{{.Name}}" class="{{if .Pressed}}down{{else}}up{{end}}">{{if .Held}}HELD {{ms .HeldFor}}ms{{else if .Pressed}}DOWN{{else}}UP{{end}}</td>
<td>{{.Holds}}</td><td>{{if .Cycle}}{{.Cycle}}{{if .On}} on{{else}} off{{end}}{{else}}-{{end}}</td>
<td>{{.Counts.Press}}</td><td>{{.Counts.Click}}</td><td>{{.Counts.Hold}}</td>
</tr>{{else}}<tr><td colspan="8">no samples yet</td></tr>{{end}}
</table>

<h2>Live events</h2>
<div id="log"></div>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic prefix</th><td>{{.Config.TopicPrefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
{{range .Config.Buttons}}<tr><th>{{.Name}}</th><td>{{.Wiring}}, debounce {{.DebounceMs}}ms, hold {{.HoldThresholdMs}}ms{{if .HoldRepeats}} repeating{{end}}</td></tr>
{{end}}</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var log = document.getElementById("log");
  var proto = location.protocol === "https:" ? "wss://" : "ws://";

  function connect() {
    var ws = new WebSocket(proto + location.host + "/events");
    ws.onmessage = function(m) {
      try {
        var b = JSON.parse(m.data).button;
        var line = document.createElement("div");
        line.textContent = b.timestamp + " " + b.name + " " + b.event +
          (b.event === "HOLD" ? " #" + b.holds : "");
        log.insertBefore(line, log.firstChild);
        var el = document.getElementById("state-" + b.name);
        if (el) {
          var down = b.event === "PRESS" || b.event === "HOLD";
          el.textContent = b.event === "HOLD" ? "HELD" : down ? "DOWN" : "UP";
          el.className = down ? "down" : "up";
        }
      } catch (e) {}
    };
    ws.onclose = function() { setTimeout(connect, 5000); };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
