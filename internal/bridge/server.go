package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/purplebase/nip07-signer/internal/logger"
	"github.com/purplebase/nip07-signer/internal/web"
	"github.com/purplebase/nip07-signer/pkg/types"
)

// router builds the HTTP surface polled by the browser page:
//
//	GET  /                   the interactive page
//	GET  /api/state          {sessionId, mode, data}
//	GET  /api/shutdown       {shouldClose}
//	POST /public-key         resolves a publicKey operation
//	POST /signed-events      resolves a sign operation
//	POST /encryption-result  settles any encrypt/decrypt operation
//
// Anything else is 404, a wrong method on a known path 405.
func (s *Session) router() *gin.Engine {
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// The page is same-origin, but extension content scripts may fetch with
	// an extension origin.
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"*"},
	}))

	r.HandleMethodNotAllowed = true

	r.GET("/", s.handleIndex)
	r.GET("/api/state", s.handleState)
	r.GET("/api/shutdown", s.handleShutdown)
	r.POST("/public-key", s.handlePublicKey)
	r.POST("/signed-events", s.handleSignedEvents)
	r.POST("/encryption-result", s.handleEncryptionResult)

	return r
}

// requestLogger logs HTTP requests as [method] path - status (latency).
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Debugf("[%s] %s - %d (%v)", c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// GET /
func (s *Session) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(web.Page))
}

// GET /api/state
func (s *Session) handleState(c *gin.Context) {
	mode, data := s.snapshot()
	c.JSON(http.StatusOK, types.StateResponse{
		SessionID: s.id,
		Mode:      string(mode),
		Data:      data,
	})
}

// GET /api/shutdown
func (s *Session) handleShutdown(c *gin.Context) {
	c.JSON(http.StatusOK, types.ShutdownResponse{ShouldClose: s.ShouldClose()})
}

// stale reports whether the submission carries a session ID from a different
// run. Stale submissions are acknowledged with 200 and otherwise ignored, the
// same as duplicates.
func (s *Session) stale(c *gin.Context) bool {
	got := c.GetHeader(types.SessionIDHeader)
	if got != "" && got != s.id {
		logger.Debugf("ignoring submission from stale session %s", got)
		return true
	}
	return false
}

// POST /public-key
//
// Resolving never blocks the response: the completion settles through a
// closed channel, so a slow awaiting caller cannot stall the HTTP
// transaction.
func (s *Session) handlePublicKey(c *gin.Context) {
	if s.stale(c) {
		c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
		return
	}

	var body types.PublicKeyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	if !s.settle(
		func(m Mode) bool { return m == ModePublicKey },
		func(p *completion) { p.resolve(body.PublicKey) },
	) {
		logger.Debugf("public-key submission ignored (no matching pending operation)")
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}

// POST /signed-events
func (s *Session) handleSignedEvents(c *gin.Context) {
	if s.stale(c) {
		c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
		return
	}

	var events types.SignedEventsBody
	if err := c.ShouldBindJSON(&events); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	if !s.settle(
		func(m Mode) bool { return m == ModeSign },
		func(p *completion) { p.resolve([]json.RawMessage(events)) },
	) {
		logger.Debugf("signed-events submission ignored (no matching pending operation)")
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}

// POST /encryption-result
func (s *Session) handleEncryptionResult(c *gin.Context) {
	if s.stale(c) {
		c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
		return
	}

	var body types.EncryptionResultBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	switch {
	case body.Error != nil:
		s.settle(Mode.IsEncryption, func(p *completion) { p.reject(&SignerError{Message: *body.Error}) })
	case body.Result != nil:
		s.settle(Mode.IsEncryption, func(p *completion) { p.resolve(*body.Result) })
	default:
		// Neither result nor error: acknowledged no-op.
	}
	c.JSON(http.StatusOK, types.SuccessResponse{Success: true})
}
