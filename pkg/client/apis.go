package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/moonframe/pkg/config"
	"github.com/charlie0129/moonframe/pkg/types"
)

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

func (c *Client) GetStatus() (*types.Status, error) {
	ret, err := c.Get("/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get status")
	}

	var s types.Status
	if err := json.Unmarshal([]byte(ret), &s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal status")
	}
	return &s, nil
}

// GetPhase asks the daemon for the moon phase at at, or at the device time
// when at is nil.
func (c *Client) GetPhase(at *types.Timestamp) (*types.PhaseInfo, error) {
	path := "/phase"
	if at != nil {
		path += "?at=" + url.QueryEscape(at.String())
	}

	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get moon phase")
	}

	var p types.PhaseInfo
	if err := json.Unmarshal([]byte(ret), &p); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal moon phase")
	}
	return &p, nil
}

// SendCommand runs one console command line on the device. A command the
// device rejected is returned as a reply with OK unset, not as an error.
func (c *Client) SendCommand(line string) (*types.CommandReply, error) {
	ret, sendErr := c.Put("/command", line)
	if sendErr != nil {
		var se *StatusError
		if !errors.As(sendErr, &se) || se.Code != http.StatusBadRequest {
			return nil, pkgerrors.Wrapf(sendErr, "failed to send command")
		}
	}

	var reply types.CommandReply
	if err := json.Unmarshal([]byte(ret), &reply); err != nil {
		if sendErr != nil {
			// The request itself was rejected, the body is not a reply.
			return nil, pkgerrors.Wrapf(sendErr, "failed to send command")
		}
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal command reply")
	}
	return &reply, nil
}

// SetDate sets the device clock.
func (c *Client) SetDate(ts types.Timestamp) (*types.CommandReply, error) {
	return c.SendCommand("setdate " + ts.String())
}
