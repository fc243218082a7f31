// Package api exposes matching and discovery over HTTP for the main backend.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spigell/scholara/internal/discovery"
	"github.com/spigell/scholara/internal/matching"
	"github.com/spigell/scholara/internal/scholarship"
	"go.uber.org/zap"
)

const (
	ServiceName    = "scholara-ai"
	InternalKeyHdr = "X-INTERNAL-KEY"

	defaultVersion = "0.1.0"
)

// Matcher ranks scholarships for a profile.
type Matcher interface {
	Match(ctx context.Context, req *scholarship.MatchRequest) (*scholarship.MatchResponse, error)
}

// Discoverer proposes new scholarships for review.
type Discoverer interface {
	Discover(ctx context.Context, req scholarship.DiscoverRequest) (*scholarship.DiscoverResponse, error)
}

// Options configures the router.
type Options struct {
	InternalKey string
	Version     string
}

type server struct {
	matcher     Matcher
	discoverer  Discoverer
	internalKey string
	version     string
	logger      *zap.Logger
}

// NewRouter constructs a gin engine with every route registered.
func NewRouter(matcher Matcher, discoverer Discoverer, opts Options, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Version == "" {
		opts.Version = defaultVersion
	}

	s := &server{
		matcher:     matcher,
		discoverer:  discoverer,
		internalKey: opts.InternalKey,
		version:     opts.Version,
		logger:      log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/health", s.handleHealth)

	internal := r.Group("/", s.requireInternalKey())
	internal.POST("/match", s.handleMatch)
	internal.POST("/admin/discover", s.handleDiscover)

	return r
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "version": s.version, "service": ServiceName})
}

func (s *server) handleMatch(c *gin.Context) {
	var req scholarship.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("match request",
		zap.String("user", req.UserProfile.ID),
		zap.Int("scholarships", len(req.Scholarships)),
		zap.Int("limit", req.Limit),
	)

	resp, err := s.matcher.Match(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, matching.ErrInvalidLimit) {
			abortWithDetail(c, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("match failed", zap.Error(err))
		abortWithDetail(c, http.StatusInternalServerError, "match failed")
		return
	}

	topScore := 0
	if len(resp.Matches) > 0 {
		topScore = resp.Matches[0].Score
	}
	s.logger.Info("match complete",
		zap.Int("results", len(resp.Matches)),
		zap.Int("top_score", topScore),
		zap.Float64("profile_completeness", resp.ProfileCompleteness),
	)

	c.JSON(http.StatusOK, resp)
}

func (s *server) handleDiscover(c *gin.Context) {
	var req scholarship.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.discoverer.Discover(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, discovery.ErrInvalidMaxResults) || errors.Is(err, discovery.ErrEmptyQuery) {
			abortWithDetail(c, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("discovery failed", zap.Error(err))
		abortWithDetail(c, http.StatusInternalServerError, "discovery failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// requireInternalKey rejects requests whose key header does not match. An empty
// configured key rejects everything.
func (s *server) requireInternalKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(InternalKeyHdr)
		if s.internalKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.internalKey)) != 1 {
			abortWithDetail(c, http.StatusUnauthorized, "Invalid or missing internal API key")
			return
		}
		c.Next()
	}
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}
