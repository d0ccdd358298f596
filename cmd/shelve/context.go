package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"shelve/internal/config"
)

type commandContext struct {
	configFlag *string
	apiFlag    *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	client *http.Client
}

func newCommandContext(configFlag, apiFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		apiFlag:    apiFlag,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// apiBase resolves the daemon address: the --api flag wins, then the
// configured bind address.
func (c *commandContext) apiBase() (string, error) {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return strings.TrimSpace(*c.apiFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.APIBind, nil
}

func (c *commandContext) getJSON(path string, out any) error {
	base, err := c.apiBase()
	if err != nil {
		return err
	}
	resp, err := c.client.Get("http://" + base + path)
	if err != nil {
		return dialError(err, base)
	}
	return decodeResponse(resp, out)
}

func (c *commandContext) postJSON(path string, out any) error {
	base, err := c.apiBase()
	if err != nil {
		return err
	}
	resp, err := c.client.Post("http://"+base+path, "application/json", bytes.NewReader(nil))
	if err != nil {
		return dialError(err, base)
	}
	return decodeResponse(resp, out)
}

// statusError carries the HTTP status of a failed API call so commands can
// distinguish "not found" from real failures.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string { return e.message }

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		message := fmt.Sprintf("daemon returned %s", resp.Status)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			message = "daemon: " + apiErr.Error
		}
		return &statusError{code: resp.StatusCode, message: message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func dialError(err error, base string) error {
	return fmt.Errorf("connect to daemon at %s: %w (is shelved running?)", base, err)
}
