package auth

// baseCSSVars and footerCSS are shared by the callback pages.
const baseCSSVars = `
        :root {
            --bg-deep: #06060a;
            --bg-card: #0d0d14;
            --border: #1a1a2e;
            --text: #e4e4eb;
            --text-muted: #6b6b7a;
            --text-dim: #3d3d4a;
            --spotify-green: #1ed760;
            --error: #ef4444;
        }
`

const footerCSS = `
        .footer {
            text-align: center;
            margin-top: 2rem;
            font-size: 0.8125rem;
            color: var(--text-dim);
        }
`

const pageCSS = baseCSSVars + `
        * { margin: 0; padding: 0; box-sizing: border-box; }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
            background: var(--bg-deep);
            color: var(--text);
            min-height: 100vh;
            display: flex;
            align-items: center;
            justify-content: center;
            padding: 2rem;
        }

        .card {
            width: 100%;
            max-width: 440px;
            background: var(--bg-card);
            border: 1px solid var(--border);
            border-radius: 12px;
            padding: 2.5rem 2rem;
            text-align: center;
            animation: fadeUp 0.4s ease-out;
        }

        h1 { font-size: 1.5rem; font-weight: 600; margin-bottom: 0.75rem; }
        p { color: var(--text-muted); line-height: 1.5; }
        code { font-family: ui-monospace, monospace; color: var(--text); }
        .ok h1 { color: var(--spotify-green); }
        .failed h1 { color: var(--error); }

        @keyframes fadeUp {
            from { opacity: 0; transform: translateY(10px); }
            to { opacity: 1; transform: translateY(0); }
        }
` + footerCSS

const successTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authorized - Spotify CLI</title>
    <style>{{.CSS}}</style>
</head>
<body>
    <div class="card ok">
        <h1>You're signed in</h1>
        <p>The Spotify CLI received your authorization. You can close this tab and return to the terminal.</p>
    </div>
    <div class="footer">spotify-cli</div>
</body>
</html>`

const failureTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authorization failed - Spotify CLI</title>
    <style>{{.CSS}}</style>
</head>
<body>
    <div class="card failed">
        <h1>Authorization failed</h1>
        <p>Spotify returned <code>{{.Reason}}</code>. Run <code>spotify auth login</code> to try again.</p>
    </div>
    <div class="footer">spotify-cli</div>
</body>
</html>`
