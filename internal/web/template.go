package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/macropad/internal/status"
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
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Macropad</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.active { color: green; font-weight: bold; }
.selected { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Macropad{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Display</h2>
<table>
<tr><th>Layer</th><td id="label" class="active">{{.Pad.Label}}</td></tr>
<tr><th>Encoder</th><td id="mode">{{.Pad.Mode}}</td></tr>
<tr><th>Macro</th><td id="macro">{{if .Pad.Macro}}{{.Pad.Macro}} ({{.Pad.MacroStep}}/{{.Pad.MacroSteps}}){{else}}idle{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Pad.Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Layers</h2>
<table id="layers">
{{range $i, $name := .Pad.Labels}}<tr><th>{{$i}}</th><td class="{{if eq $i $.Pad.Layer}}active{{else if and (eq (printf "%s" $.Pad.Mode) "LAYER_SCROLL") (eq $i $.Pad.Selected)}}selected{{end}}">{{$name}}</td></tr>
{{end}}</table>

{{if .Pad.Toggles}}<h2>Toggles</h2>
<table>
{{range $id, $on := .Pad.Toggles}}<tr><th>{{$id}}</th><td>{{onOff $on}}</td></tr>
{{end}}</table>
{{end}}
<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Buffered</th><td>{{.MQTTBuffered}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Key down</th><td>{{.Pad.Counts.KeyDown}}</td></tr>
<tr><th>Key up</th><td>{{.Pad.Counts.KeyUp}}</td></tr>
<tr><th>Encoder turns</th><td>{{.Pad.Counts.Turns}}</td></tr>
<tr><th>Layer changes</th><td>{{.Pad.Counts.LayerChanges}}</td></tr>
<tr><th>Macros started</th><td>{{.Pad.Counts.MacroStarts}}</td></tr>
<tr><th>Macros rejected</th><td>{{.Pad.Counts.MacroBusy}}</td></tr>
<tr><th>Edges dropped</th><td>{{.Pad.Counts.QueueDropped}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceSamples}} samples</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Input</th><td>{{.Config.InputDriver}}</td></tr>
<tr><th>Output</th><td>{{.Config.OutputDriver}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Live}}
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var label = document.getElementById("label");
  var mode = document.getElementById("mode");
  var macro = document.getElementById("macro");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (!msg.data) return;
        label.textContent = msg.data.label;
        mode.textContent = msg.data.mode;
        macro.textContent = msg.data.macro ? msg.data.macro.name + " (" + msg.data.macro.step + "/" + msg.data.macro.steps + ")" : "idle";
      } catch (e) {}
    };
  }
  connect();
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, live bool) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Live   bool
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Live:     live,
	}
	return indexTmpl.Execute(w, data)
}
