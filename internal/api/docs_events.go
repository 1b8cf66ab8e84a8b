package api

const eventsDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Event Stream · Vue Devtools Enabler</title>
  <style>
    *, *::before, *::after { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
    }
    a { color: #58a6ff; text-decoration: none; }
    a:hover { text-decoration: underline; }
    nav {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
    }
    nav .brand { font-weight: 600; font-size: 15px; color: #e6edf3; }
    nav .sep { color: #484f58; }
    main { max-width: 900px; margin: 0 auto; padding: 32px 16px 64px; }
    h1 { margin: 0 0 8px; font-size: 28px; font-weight: 600; color: #e6edf3; }
    h2 {
      margin: 40px 0 12px;
      font-size: 18px;
      font-weight: 600;
      color: #e6edf3;
      padding-bottom: 8px;
      border-bottom: 1px solid #21262d;
    }
    .endpoint {
      display: inline-flex;
      gap: 10px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      padding: 10px 16px;
      margin-bottom: 20px;
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
    }
    .method { background: #1f6feb; color: #fff; font-weight: 700; font-size: 11px; padding: 2px 7px; border-radius: 4px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 20px; font-size: 13px; }
    th { text-align: left; padding: 8px 12px; background: #161b22; color: #8b949e; border-bottom: 1px solid #30363d; }
    td { padding: 8px 12px; border-bottom: 1px solid #21262d; vertical-align: top; }
    code {
      font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
      font-size: 12px;
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 3px;
      padding: 1px 5px;
      color: #e6edf3;
    }
    pre { background: #161b22; border: 1px solid #30363d; border-radius: 6px; padding: 16px; overflow-x: auto; }
    pre code { background: none; border: none; padding: 0; font-size: 13px; }
  </style>
</head>
<body>
  <nav>
    <span class="brand">Vue Devtools Enabler</span>
    <span class="sep">/</span>
    <span>Event Stream</span>
    <a href="/docs">← API reference</a>
  </nav>
  <main>
    <h1>Event Stream</h1>
    <p>Server-sent events for indicator changes, settled detections and activation outcomes.</p>

    <div class="endpoint"><span class="method">GET</span><span>/api/v1/events?feeds=icon,detection,injected</span></div>

    <h2>Feeds</h2>
    <table>
      <tr><th>Feed</th><th>Published when</th><th>Payload</th></tr>
      <tr><td><code>icon</code></td><td>the foreground tab's indicator is recomputed</td><td><code>{"tab_id","icon","at"}</code></td></tr>
      <tr><td><code>detection</code></td><td>a detection probe settles</td><td><code>{"tab_id","result","family","at"}</code></td></tr>
      <tr><td><code>injected</code></td><td>an activation finishes and INJECTED was sent to the bridge</td><td><code>{"tab_id","request_id","family","selector","result","at"}</code></td></tr>
    </table>
    <p>Omit <code>feeds</code> to receive everything. Unknown feed names are rejected with 400.
    Idle streams get a <code>: ping</code> comment every 15 seconds.</p>

    <h2>Example</h2>
<pre><code>$ curl -N 'http://127.0.0.1:8190/api/v1/events?feeds=injected'

id: 7
event: injected
data: {"tab_id":"8F3A...","request_id":"3b1f...","family":"modern","selector":"div#app","result":{"success":true},"at":"2026-01-02T03:04:05Z"}
</code></pre>

    <h2>Correlating inspection requests</h2>
    <p><code>POST /api/v1/tabs/{tab_id}/inspection</code> answers 202 with a <code>request_id</code>.
    Exactly one <code>injected</code> event carries the same id once the activation settles.
    A tab without a detected runtime gets no event; its bridge shows an error toast instead.</p>
  </main>
</body>
</html>`
