package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/moonframe/pkg/astro"
	"github.com/charlie0129/moonframe/pkg/command"
	"github.com/charlie0129/moonframe/pkg/config"
	"github.com/charlie0129/moonframe/pkg/display"
	"github.com/charlie0129/moonframe/pkg/events"
	"github.com/charlie0129/moonframe/pkg/types"
	"github.com/charlie0129/moonframe/pkg/version"
)

// submitTimeout bounds how long an API command waits for the control loop.
const submitTimeout = 5 * time.Second

type api struct {
	conf     *config.Config
	dev      *Device
	loop     *Loop
	watchdog *Watchdog
	hub      *events.EventHub
}

func setupRoutes(a *api) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/version", a.getVersion)
	router.GET("/config", a.getConfig)
	router.GET("/status", a.getStatus)
	router.GET("/phase", a.getPhase)
	router.PUT("/command", a.putCommand)
	router.GET("/events", a.getEvents)

	return router
}

func (a *api) getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}

func (a *api) getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(a.conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func (a *api) getStatus(c *gin.Context) {
	s := a.dev.Status()
	if a.watchdog != nil {
		s.LoopIterations = a.watchdog.KicksIn(time.Minute)
	}
	c.IndentedJSON(http.StatusOK, s)
}

// PhaseInfo computes the lunar calendar data for at.
func PhaseInfo(at types.Timestamp) types.PhaseInfo {
	at = at.Normalize()
	f := display.Lunar(at)
	return types.PhaseInfo{
		At:       at,
		Phase:    f.Phase,
		Age:      astro.Age(at),
		Index:    f.Index,
		Path:     f.Path,
		Caption:  f.Caption,
		NextFull: f.NextFull.Timestamp(),
		NextNew:  f.NextNew.Timestamp(),
	}
}

func (a *api) getPhase(c *gin.Context) {
	var at types.Timestamp

	if q := c.Query("at"); q != "" {
		ts, err := types.ParseTimestamp(q)
		if err != nil {
			c.IndentedJSON(http.StatusBadRequest, err.Error())
			_ = c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		at = ts
	} else {
		now, err := a.dev.hw.Clock.GetTime()
		if err != nil {
			logrus.Errorf("getPhase failed: %v", err)
			c.IndentedJSON(http.StatusInternalServerError, err.Error())
			_ = c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		at = now
	}

	c.IndentedJSON(http.StatusOK, PhaseInfo(at))
}

func (a *api) putCommand(c *gin.Context) {
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	// Lines from the API obey the same bounds as the console.
	buf := command.NewLineBuffer(a.conf.CommandBufferSize)
	lines := buf.FeedAll([]byte(strings.TrimRight(string(b), "\r\n") + "\n"))
	if len(lines) != 1 {
		err := errors.New("expected exactly one command line")
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), submitTimeout)
	defer cancel()

	res, err := a.loop.Submit(ctx, lines[0])
	if err != nil {
		logrus.Errorf("putCommand failed: %v", err)
		c.IndentedJSON(http.StatusServiceUnavailable, err.Error())
		_ = c.AbortWithError(http.StatusServiceUnavailable, err)
		return
	}

	reply := types.CommandReply{
		Kind:    string(res.Command.Kind),
		Message: res.Message,
		OK:      res.Err == nil,
	}
	if res.Err != nil {
		c.IndentedJSON(http.StatusBadRequest, reply)
		_ = c.AbortWithError(http.StatusBadRequest, res.Err)
		return
	}

	c.IndentedJSON(http.StatusOK, reply)
}

func (a *api) getEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := a.hub.Subscribe()
	defer a.hub.Unsubscribe(ch)

	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		}
	})
}
