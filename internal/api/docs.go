package api

// docsHTML renders /openapi.json with Stoplight Elements and links the pages
// the OpenAPI document cannot describe.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Vue Devtools Enabler API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    .enabler-nav {
      position: fixed;
      top: 12px;
      right: 16px;
      z-index: 9999;
      display: flex;
      gap: 8px;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      font-size: 12px;
    }
    .enabler-nav a, .enabler-nav span {
      background: #161b22;
      border: 1px solid #30363d;
      border-radius: 6px;
      color: #58a6ff;
      padding: 5px 12px;
      text-decoration: none;
    }
    .enabler-nav span { color: #8b949e; }
  </style>
</head>
<body style="height: 100vh; margin: 0; position: relative;">
  <nav class="enabler-nav">
    <a href="/docs/events">Event feeds</a>
    <span>MCP: POST /mcp</span>
  </nav>
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    tryItCredentialsPolicy="same-origin"
    darkMode
  />
</body>
</html>`
