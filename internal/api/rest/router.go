// Package rest provides the Gin-based HTTP surface of a peer: the inputs a
// window collaborator feeds in (rectangle, pointer) and the frames it draws.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0mlml/localstorage-window-sync/internal/election"
	"github.com/0mlml/localstorage-window-sync/internal/frame"
	"github.com/0mlml/localstorage-window-sync/internal/peer"
	"github.com/0mlml/localstorage-window-sync/internal/pointer"
	"github.com/0mlml/localstorage-window-sync/internal/registry"
	"github.com/0mlml/localstorage-window-sync/internal/spatial"
)

// PeerHandler is the peer behind the API.
type PeerHandler interface {
	Self() peer.ID
	Latest() (frame.Frame, bool)
	Authority(ctx context.Context) (election.Claim, bool, error)
	Peers(ctx context.Context) ([]registry.PeerRect, error)

	Resize(rect spatial.Rect) error
	PointerMove(local spatial.Vec2) error
	PointerButton(b pointer.Button, down bool) error
	PointerEnter() error
	PointerLeave() error
	Spawn(local spatial.Vec2) error
}

// Server is the REST API server.
type Server struct {
	engine *gin.Engine
	peer   PeerHandler
	hub    *Hub
	logger *zap.Logger
}

// New creates a REST Server.
func New(h PeerHandler, hub *Hub, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		peer:   h,
		hub:    hub,
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener is Serve on an already-open listener. Shutting down also
// closes the hub so open frame streams end with the server.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	srv.RegisterOnShutdown(s.hub.Close)
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("REST API listening", zap.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// registerRoutes sets up the /softsync context path.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/softsync")

	api.GET("/health", s.health)
	api.GET("/world", s.world)
	api.GET("/peers", s.peers)
	api.GET("/authority", s.authority)
	api.GET("/frames", s.frames)

	api.PUT("/window", s.resize)
	api.POST("/spawn", s.spawn)

	pointerGroup := api.Group("/pointer")
	{
		pointerGroup.POST("/move", s.pointerMove)
		pointerGroup.POST("/button", s.pointerButton)
		pointerGroup.POST("/enter", s.pointerEnter)
		pointerGroup.POST("/leave", s.pointerLeave)
	}
}

type positionRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

func (r positionRequest) vec() spatial.Vec2 { return spatial.V(*r.X, *r.Y) }

type buttonRequest struct {
	Button string `json:"button"`
	Down   bool   `json:"down"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"peer": s.peer.Self(), "subscribers": s.hub.SubscriberCount()})
}

func (s *Server) world(c *gin.Context) {
	f, ok := s.peer.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame rendered yet"})
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) peers(c *gin.Context) {
	peers, err := s.peer.Peers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, frame.Peers(s.peer.Self(), peers))
}

func (s *Server) authority(c *gin.Context) {
	claim, ok, err := s.peer.Authority(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"holder": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"holder":    claim.Holder,
		"claimedAt": claim.ClaimedAt.UnixMilli(),
		"epoch":     claim.Epoch,
		"self":      claim.Holder == s.peer.Self(),
	})
}

func (s *Server) resize(c *gin.Context) {
	var rect spatial.Rect
	if err := c.ShouldBindJSON(&rect); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, s.peer.Resize(rect))
}

func (s *Server) spawn(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, s.peer.Spawn(req.vec()))
}

func (s *Server) pointerMove(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, s.peer.PointerMove(req.vec()))
}

func (s *Server) pointerButton(c *gin.Context) {
	var req buttonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := pointer.ParseButton(req.Button)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, s.peer.PointerButton(b, req.Down))
}

func (s *Server) pointerEnter(c *gin.Context) { s.respond(c, s.peer.PointerEnter()) }

func (s *Server) pointerLeave(c *gin.Context) { s.respond(c, s.peer.PointerLeave()) }

// respond maps a queued-input result to a status code.
func (s *Server) respond(c *gin.Context, err error) {
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"result": true})
}
