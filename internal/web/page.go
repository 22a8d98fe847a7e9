// Package web holds the page served at the session URL. The page has no
// state of its own: it polls the bridge, drives the NIP-07 extension and
// posts results back.
package web

// Page is the interactive signing page. It expects a NIP-07 extension to
// have injected window.nostr.
const Page = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>nip07-signer</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; background: #14121f; color: #e8e6f0;
         display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
  .card { background: #1e1b2e; border-radius: 12px; padding: 2.5rem 3rem; max-width: 28rem; text-align: center; }
  h1 { font-size: 1.2rem; margin: 0 0 1rem; }
  #status { color: #a89fd8; min-height: 2rem; }
  #error { color: #ff7b72; white-space: pre-wrap; }
  .spinner { margin: 1rem auto; width: 28px; height: 28px; border: 3px solid #3d3660;
             border-top-color: #a89fd8; border-radius: 50%; animation: spin 0.9s linear infinite; }
  @keyframes spin { to { transform: rotate(360deg); } }
</style>
</head>
<body>
<div class="card">
  <h1>nip07-signer</h1>
  <div class="spinner" id="spinner"></div>
  <p id="status">Waiting for a request from the CLI&hellip;</p>
  <p id="error"></p>
</div>
<script>
(function () {
  'use strict';

  var POLL_MS = 1000;
  var sessionId = null;
  var busy = false;

  function setStatus(text) { document.getElementById('status').textContent = text; }
  function setError(text) { document.getElementById('error').textContent = text; }

  function post(path, body) {
    return fetch(path, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json', 'X-Session-Id': sessionId },
      body: JSON.stringify(body)
    });
  }

  function requireNostr() {
    if (!window.nostr) {
      throw new Error('No NIP-07 extension found. Install a Nostr signing extension and reload this page.');
    }
    return window.nostr;
  }

  async function handle(state) {
    switch (state.mode) {
      case 'publicKey': {
        setStatus('Requesting public key…');
        var pk = await requireNostr().getPublicKey();
        await post('/public-key', { publicKey: pk });
        setStatus('Public key sent. You can close this tab.');
        break;
      }
      case 'sign': {
        var events = (state.data && state.data.events) || [];
        setStatus('Signing ' + events.length + ' event(s)… approve in your extension.');
        var signed = [];
        for (var i = 0; i < events.length; i++) {
          signed.push(await requireNostr().signEvent(events[i]));
        }
        await post('/signed-events', signed);
        setStatus('Signed events sent. You can close this tab.');
        break;
      }
      case 'nip04Encrypt':
      case 'nip04Decrypt':
      case 'nip44Encrypt':
      case 'nip44Decrypt': {
        var nostr = requireNostr();
        var ns = state.mode.slice(0, 5) === 'nip04' ? nostr.nip04 : nostr.nip44;
        if (!ns) throw new Error('Extension does not support ' + state.mode.slice(0, 5));
        setStatus('Running ' + state.mode + '… approve in your extension.');
        var result;
        if (state.mode.slice(5) === 'Encrypt') {
          result = await ns.encrypt(state.data.pubkey, state.data.plaintext);
        } else {
          result = await ns.decrypt(state.data.pubkey, state.data.ciphertext);
        }
        await post('/encryption-result', { result: result });
        setStatus('Result sent. You can close this tab.');
        break;
      }
    }
  }

  async function reportError(mode, err) {
    var message = err && err.message ? err.message : String(err);
    setError(message);
    if (mode.slice(0, 5) === 'nip04' || mode.slice(0, 5) === 'nip44') {
      try { await post('/encryption-result', { error: message }); } catch (e) { /* server gone */ }
    }
  }

  async function pollState() {
    try {
      var resp = await fetch('/api/state');
      if (!resp.ok) return;
      var state = await resp.json();

      if (sessionId === null) {
        sessionId = state.sessionId;
      } else if (sessionId !== state.sessionId) {
        // A newer bridge run owns this port now.
        window.close();
        return;
      }

      if (state.mode === 'idle' || busy) return;
      busy = true;
      setError('');
      try {
        await handle(state);
      } catch (err) {
        await reportError(state.mode, err);
      } finally {
        busy = false;
      }
    } catch (e) { /* bridge not reachable; keep polling */ }
  }

  async function pollShutdown() {
    try {
      var resp = await fetch('/api/shutdown');
      if (!resp.ok) return;
      var body = await resp.json();
      if (body.shouldClose) {
        setStatus('Done. Closing…');
        window.close();
      }
    } catch (e) { /* ignore */ }
  }

  setInterval(pollState, POLL_MS);
  setInterval(pollShutdown, POLL_MS);
  pollState();
})();
</script>
</body>
</html>
`
