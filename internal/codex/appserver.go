package codex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

const threadListLimit = 1

var codexSourceKinds = []string{"cli", "vscode", "exec", "appServer"}

// appServerClient is a long-lived `codex app-server --listen stdio://`
// subprocess speaking line-delimited JSON-RPC over stdin/stdout.
type appServerClient struct {
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      *bufio.Reader
	nextID      uint64
	initialized bool
}

func startAppServerClient() (*appServerClient, error) {
	cmd := exec.Command("codex", "app-server", "--listen", "stdio://")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("codex app-server stdin unavailable: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("codex app-server stdout unavailable: %w", err)
	}
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start codex app-server: %w", err)
	}
	return &appServerClient{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		nextID: 1,
	}, nil
}

func (c *appServerClient) stop() {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	_ = c.cmd.Wait()
}

func (c *appServerClient) ensureInitialized() error {
	if c.initialized {
		return nil
	}
	params := map[string]any{
		"clientInfo": map[string]any{
			"name":    "herd",
			"version": "0.1.0",
		},
		"capabilities": map[string]any{
			"experimentalApi": true,
		},
	}
	if _, err := c.request("initialize", params); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

type threadSummary struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updatedAt"`
}

type threadListResponse struct {
	Data []threadSummary `json:"data"`
}

type turn struct {
	Status string `json:"status"`
}

type thread struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updatedAt"`
	Turns     []turn `json:"turns"`
}

type threadReadResponse struct {
	Thread thread `json:"thread"`
}

func (c *appServerClient) threadListLatestForCwd(cwd string) (*threadSummary, error) {
	params := map[string]any{
		"archived":    false,
		"limit":       threadListLimit,
		"sortKey":     "updated_at",
		"sourceKinds": codexSourceKinds,
		"cwd":         cwd,
	}
	raw, err := c.request("thread/list", params)
	if err != nil {
		return nil, err
	}
	var resp threadListResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid codex thread/list response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return &resp.Data[0], nil
}

func (c *appServerClient) threadRead(threadID string) (*thread, error) {
	params := map[string]any{
		"threadId":     threadID,
		"includeTurns": true,
	}
	raw, err := c.request("thread/read", params)
	if err != nil {
		return nil, err
	}
	var resp threadReadResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid codex thread/read response: %w", err)
	}
	return &resp.Thread, nil
}

type jsonRPCResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func (c *appServerClient) request(method string, params any) (json.RawMessage, error) {
	id := c.nextID
	c.nextID++

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed encoding app-server request %s: %w", method, err)
	}
	if _, err := c.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("failed writing app-server request %s: %w", method, err)
	}

	for {
		line, err := c.stdout.ReadString('\n')
		if len(line) == 0 && err != nil {
			return nil, fmt.Errorf("codex app-server closed while waiting for response to %s: %w", method, err)
		}
		var resp jsonRPCResponse
		if jsonErr := json.Unmarshal([]byte(line), &resp); jsonErr != nil {
			if err != nil {
				return nil, fmt.Errorf("codex app-server closed while waiting for response to %s", method)
			}
			continue
		}
		if !idMatches(resp.ID, id) {
			if err != nil {
				return nil, fmt.Errorf("codex app-server closed while waiting for response to %s", method)
			}
			continue
		}
		if len(resp.Error) > 0 && string(resp.Error) != "null" {
			return nil, fmt.Errorf("app-server %s error: %s", method, resp.Error)
		}
		if len(resp.Result) == 0 {
			return nil, fmt.Errorf("app-server %s response missing result", method)
		}
		return resp.Result, nil
	}
}

func idMatches(raw json.RawMessage, expected uint64) bool {
	if len(raw) == 0 {
		return false
	}
	var asNumber uint64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber == expected
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString == strconv.FormatUint(expected, 10)
	}
	return false
}
