// Package web provides the HTTP API of the bot on top of gin.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	apperrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/webhook"
)

// Per client IP, 100 requests a minute with bursts up to the full budget
const (
	rateWindow   = time.Minute
	rateRequests = 100
)

// Server is the gin engine plus the http.Server started by StartAsync
type Server struct {
	engine  *gin.Engine
	http    *http.Server
	hook    string
	hosts   *regexp.Regexp
	clients *expirable.LRU[string, *rate.Limiter]
}

// NewServer builds the engine. Requests are reported to hook when it is set.
// An empty allowedHosts pattern accepts every Host header.
func NewServer(hook, allowedHosts string) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:  gin.New(),
		hook:    hook,
		clients: expirable.NewLRU[string, *rate.Limiter](10000, nil, 10*time.Minute),
	}
	if allowedHosts != "" {
		re, err := regexp.Compile(allowedHosts)
		if err != nil {
			return nil, fmt.Errorf("allowed hosts pattern: %w", err)
		}
		s.hosts = re
	}

	s.engine.HandleMethodNotAllowed = true
	s.engine.Use(gin.Recovery(), s.filterHosts, s.limitClients)
	s.engine.NoRoute(notFound)
	s.engine.NoMethod(methodNotAllowed)
	return s, nil
}

// Engine returns the underlying gin engine
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// filterHosts logs every request and rejects hosts outside the allow-list
func (s *Server) filterHosts(c *gin.Context) {
	req := c.Request
	if s.hosts != nil && !s.hosts.MatchString(req.Host) {
		logger.Warn(fmt.Sprintf("Solicitud sospechosa: %s %s | %s", req.Method, req.URL.Path, c.ClientIP()), "WebServer")
		s.report(c, true)
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	logger.Info(fmt.Sprintf("Nueva solicitud: %s %s", req.Method, req.URL.Path), "WebServer")
	s.report(c, false)
	c.Next()
}

// report posts the request to the request webhook in the background
func (s *Server) report(c *gin.Context, suspicious bool) {
	if s.hook == "" {
		return
	}
	req := c.Request
	title, color := "💫 | Nueva solicitud "+req.Method, 0x00AE86
	if suspicious {
		title, color = fmt.Sprintf("💫 | Solicitud rechazada: %s %s", req.Method, req.URL.Path), 0xFFA500
	}
	query := req.URL.RawQuery
	if query == "" {
		query = "{}"
	}
	embed := webhook.Embed(title, fmt.Sprintf("> **Ruta:** `%s`\n> **IP:** `%s`\n> **Query:** ```%s```", req.URL.Path, c.ClientIP(), query), color)

	apperrors.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = webhook.Post(ctx, nil, s.hook, embed)
	})
}

// limitClients gives every client IP its own token bucket
func (s *Server) limitClients(c *gin.Context) {
	ip := c.ClientIP()
	limiter, ok := s.clients.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(rate.Every(rateWindow/rateRequests), rateRequests)
		s.clients.Add(ip, limiter)
	}
	if !limiter.Allow() {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Demasiadas solicitudes, por favor intente de nuevo más tarde.",
		})
		return
	}
	c.Next()
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not Found", "message": "La ruta solicitada no existe."})
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method Not Allowed", "message": "El método HTTP no está permitido para esta ruta."})
}

// StartAsync serves on port in a goroutine until Shutdown
func (s *Server) StartAsync(port string) {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("🚀 Servidor escuchando en el puerto "+port, "WebServer")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("El servidor web se detuvo: "+err.Error(), "WebServer")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Group creates a router group
func (s *Server) Group(path string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return s.engine.Group(path, handlers...)
}

// GET registers a GET route
func (s *Server) GET(path string, handlers ...gin.HandlerFunc) {
	s.engine.GET(path, handlers...)
}
