package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"webflowcms/internal/engine"
	"webflowcms/internal/types"
	"webflowcms/internal/webflow"
)

// WebhookServer serves HTTP requests that trigger flows, plus the option
// loaders a form renderer calls to fill site, collection and field pickers.
type WebhookServer struct {
	engine  *engine.Engine
	flows   map[string]*types.FlowDef
	routes  map[string]*types.FlowDef // trigger path -> flow
	api     webflow.Requester
	secrets map[string]string
	log     *zap.SugaredLogger
}

type Option func(*WebhookServer)

// WithOptionsAPI enables the /options endpoints.
func WithOptionsAPI(api webflow.Requester) Option {
	return func(s *WebhookServer) { s.api = api }
}

// WithSecrets makes secrets available to triggered flows.
func WithSecrets(secrets map[string]string) Option {
	return func(s *WebhookServer) { s.secrets = secrets }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *WebhookServer) {
		if l != nil {
			s.log = l
		}
	}
}

// NewWebhookServer creates a new webhook server.
func NewWebhookServer(eng *engine.Engine, flows map[string]*types.FlowDef, opts ...Option) *WebhookServer {
	routes := make(map[string]*types.FlowDef)
	for _, f := range flows {
		if f.Trigger != nil && f.Trigger.Type == "webhook" && f.Trigger.Path != "" {
			routes[f.Trigger.Path] = f
		}
	}
	s := &WebhookServer{
		engine: eng,
		flows:  flows,
		routes: routes,
		log:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the gin router.
func (s *WebhookServer) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.handleHealth)
	r.GET("/flows", s.handleListFlows)

	options := r.Group("/options")
	{
		options.GET("/sites", s.handleSites)
		options.GET("/collections", s.handleCollections)
		options.GET("/fields", s.handleFields)
	}

	for path, flow := range s.routes {
		if !strings.HasPrefix(path, "/") || reservedPath(path) {
			s.log.Warnw("ignoring webhook trigger path", "flow", flow.Name, "path", path)
			continue
		}
		r.POST(path, s.handleTrigger(flow))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no flow mapped to path %q", c.Request.URL.Path)})
	})

	return r
}

func reservedPath(path string) bool {
	return path == "/health" || path == "/flows" || path == "/options" || strings.HasPrefix(path, "/options/")
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *WebhookServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server listening", "addr", addr, "webhooks", len(s.routes))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Infow("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *WebhookServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debugw("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *WebhookServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type flowInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TriggerPath string `json:"trigger_path,omitempty"`
	Input       any    `json:"input,omitempty"`
}

func (s *WebhookServer) handleListFlows(c *gin.Context) {
	infos := make([]flowInfo, 0, len(s.flows))
	for _, f := range s.flows {
		fi := flowInfo{
			Name:        f.Name,
			Description: f.Description,
		}
		if f.Input != nil {
			fi.Input = f.Input
		}
		if f.Trigger != nil {
			fi.TriggerPath = f.Trigger.Path
		}
		infos = append(infos, fi)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	c.JSON(http.StatusOK, infos)
}

func (s *WebhookServer) handleTrigger(flow *types.FlowDef) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := map[string]any{}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
				return
			}
		}

		result, err := s.engine.RunWithSecrets(c.Request.Context(), flow, input, s.secrets)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		statusCode := http.StatusOK
		if result.Status == types.StatusFailed {
			statusCode = http.StatusInternalServerError
		}
		c.JSON(statusCode, result)
	}
}

func (s *WebhookServer) handleSites(c *gin.Context) {
	s.serveOptions(c, func(ctx context.Context) ([]webflow.Option, error) {
		return webflow.LoadSites(ctx, s.api)
	})
}

func (s *WebhookServer) handleCollections(c *gin.Context) {
	siteID := c.Query("siteId")
	s.serveOptions(c, func(ctx context.Context) ([]webflow.Option, error) {
		return webflow.LoadCollections(ctx, s.api, siteID)
	})
}

func (s *WebhookServer) handleFields(c *gin.Context) {
	collectionID := c.Query("collectionId")
	s.serveOptions(c, func(ctx context.Context) ([]webflow.Option, error) {
		return webflow.LoadFields(ctx, s.api, collectionID)
	})
}

func (s *WebhookServer) serveOptions(c *gin.Context, load func(context.Context) ([]webflow.Option, error)) {
	if s.api == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "webflow credentials are not configured"})
		return
	}

	opts, err := load(c.Request.Context())
	if err != nil {
		s.log.Warnw("option loader failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, opts)
}
