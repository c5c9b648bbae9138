package webui

// indexHTML is the whole dashboard: a table of current leases plus the list
// of past clients, refreshed over the websocket. Kept embedded so the binary
// needs no assets on disk.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>DHCP Leases</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #999; padding: 4px 10px; text-align: left; }
th { background: #eee; }
.meta { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>DHCP Leases</h1>
<p class="meta">Lease file: {{.LeaseFile}} &mdash; pool size: {{.PoolSize}} &mdash; refresh: {{.RefreshInterval}}</p>

<h2>Current clients</h2>
<table id="current">
<thead><tr>
<th>IP Address</th><th>MAC Address</th><th>Hostname</th><th>Friendly Name</th>
<th>Expires In</th><th>Static</th><th>In Pool</th>
</tr></thead>
<tbody></tbody>
</table>

<h2>Past clients</h2>
<table id="past">
<thead><tr>
<th>MAC Address</th><th>Hostname</th><th>Friendly Name</th><th>Last IP</th><th>Last Seen</th>
</tr></thead>
<tbody></tbody>
</table>

<script>
const proto = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(proto + location.host + "{{.WebSocketURI}}");

function cell(v) { const td = document.createElement("td"); td.textContent = v; return td; }

ws.onmessage = (ev) => {
	const msg = JSON.parse(ev.data);

	const cur = document.querySelector("#current tbody");
	cur.innerHTML = "";
	for (const c of msg.current_clients) {
		const tr = document.createElement("tr");
		tr.append(cell(c.ip_addr), cell(c.mac_addr), cell(c.hostname), cell(c.friendly_name),
			cell(c.expires_in), cell(c.is_static ? "yes" : ""),
			cell(c.is_inside_dhcp_pool ? "yes" : ""));
		cur.append(tr);
	}

	const past = document.querySelector("#past tbody");
	past.innerHTML = "";
	for (const p of msg.past_clients) {
		const tr = document.createElement("tr");
		tr.append(cell(p.past_info.mac_addr), cell(p.past_info.hostname), cell(p.friendly_name),
			cell(p.past_info.last_ip),
			cell(new Date(p.past_info.last_seen * 1000).toISOString()));
		past.append(tr);
	}
};
</script>
</body>
</html>
`
