// Package hyprland talks to the Hyprland compositor over its UNIX sockets and
// builds workspace snapshots for the bar.
package hyprland

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrNoSignature    = errors.New("HYPRLAND_INSTANCE_SIGNATURE is not set")
	ErrNoMainKeyboard = errors.New("no main keyboard found")
)

const (
	requestSocket = ".socket.sock"
	eventSocket   = ".socket2.sock"
)

// SocketDir returns the directory holding the sockets of the running
// Hyprland instance.
func SocketDir() (string, error) {
	signature := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if signature == "" {
		return "", ErrNoSignature
	}

	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		dir := filepath.Join(runtime, "hypr", signature)
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	return filepath.Join("/tmp", "hypr", signature), nil
}

// WorkspaceRef is the short workspace reference embedded in other objects.
type WorkspaceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// WorkspaceInfo is a workspace as reported by j/workspaces.
type WorkspaceInfo struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Monitor   string `json:"monitor"`
	MonitorID *int   `json:"monitorID"`
	Windows   int    `json:"windows"`
}

// ClientInfo is a window as reported by j/clients.
type ClientInfo struct {
	Address      string       `json:"address"`
	Class        string       `json:"class"`
	Title        string       `json:"title"`
	InitialClass string       `json:"initialClass"`
	InitialTitle string       `json:"initialTitle"`
	Workspace    WorkspaceRef `json:"workspace"`
	PID          int          `json:"pid"`
}

// Keyboard is a keyboard as reported by j/devices.
type Keyboard struct {
	Address      string `json:"address"`
	Name         string `json:"name"`
	Layout       string `json:"layout"`
	ActiveKeymap string `json:"active_keymap"`
	Main         bool   `json:"main"`
}

// Devices is the reply of j/devices. Only keyboards are decoded.
type Devices struct {
	Keyboards []Keyboard `json:"keyboards"`
}

// Client issues requests to the Hyprland request socket. Every request opens
// a new connection, as Hyprland closes it after replying.
type Client struct {
	dir    string
	dialer net.Dialer
}

// NewClient returns a client for the running Hyprland instance.
func NewClient() (*Client, error) {
	dir, err := SocketDir()
	if err != nil {
		return nil, err
	}

	return NewClientAt(dir), nil
}

// NewClientAt returns a client for the sockets in dir.
func NewClientAt(dir string) *Client {
	return &Client{dir: dir}
}

// Request sends a raw command and returns the raw reply.
func (c *Client) Request(ctx context.Context, command string) ([]byte, error) {
	conn, err := c.dialer.DialContext(ctx, "unix", filepath.Join(c.dir, requestSocket))
	if err != nil {
		return nil, fmt.Errorf("hyprland %q: %w", command, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, command); err != nil {
		return nil, fmt.Errorf("hyprland %q: %w", command, err)
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("hyprland %q: %w", command, err)
	}

	return reply, nil
}

func (c *Client) query(ctx context.Context, command string, out any) error {
	reply, err := c.Request(ctx, command)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(reply, out); err != nil {
		return fmt.Errorf("hyprland %q: decode reply: %w", command, err)
	}

	return nil
}

func (c *Client) Workspaces(ctx context.Context) ([]WorkspaceInfo, error) {
	var workspaces []WorkspaceInfo
	if err := c.query(ctx, "j/workspaces", &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

func (c *Client) Clients(ctx context.Context) ([]ClientInfo, error) {
	var clients []ClientInfo
	if err := c.query(ctx, "j/clients", &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (c *Client) ActiveWorkspace(ctx context.Context) (WorkspaceInfo, error) {
	var workspace WorkspaceInfo
	if err := c.query(ctx, "j/activeworkspace", &workspace); err != nil {
		return WorkspaceInfo{}, err
	}
	return workspace, nil
}

func (c *Client) Devices(ctx context.Context) (*Devices, error) {
	var devices Devices
	if err := c.query(ctx, "j/devices", &devices); err != nil {
		return nil, err
	}
	return &devices, nil
}

// MainKeymap returns the active keymap of the main keyboard.
func (c *Client) MainKeymap(ctx context.Context) (string, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return "", err
	}

	for _, keyboard := range devices.Keyboards {
		if keyboard.Main {
			return keyboard.ActiveKeymap, nil
		}
	}

	return "", ErrNoMainKeyboard
}

// SwitchWorkspace makes workspace id active.
func (c *Client) SwitchWorkspace(ctx context.Context, id int) error {
	reply, err := c.Request(ctx, "dispatch workspace "+strconv.Itoa(id))
	if err != nil {
		return err
	}

	if answer := strings.TrimSpace(string(reply)); answer != "ok" {
		return fmt.Errorf("switch to workspace %d: %s", id, answer)
	}

	return nil
}
