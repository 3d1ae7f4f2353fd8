// Package server exposes the AI over HTTP: single moves, full move
// evaluations, and a websocket stream of AI-vs-AI games.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/game"
	"github.com/brensch/tactic/rules"
)

const Version = "1.0.0"

type InfoResponse struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Modes      []string `json:"modes"`
	Difficulty float64  `json:"default_difficulty"`
}

type PositionJSON struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func toPosition(p game.Position) PositionJSON {
	return PositionJSON{Row: p.Row, Col: p.Col}
}

type CandidateJSON struct {
	Position PositionJSON `json:"position"`
	Score    float64      `json:"score"`
}

func toCandidates(cs []ai.Candidate) []CandidateJSON {
	out := make([]CandidateJSON, len(cs))
	for i, c := range cs {
		out[i] = CandidateJSON{Position: toPosition(c.Position), Score: c.Score}
	}
	return out
}

// MoveRequest asks the AI to play one move. Side defaults to whoever is
// next to move and Difficulty to ai.DefaultDifficulty.
type MoveRequest struct {
	Board      string   `json:"board" binding:"required"`
	Side       string   `json:"side"`
	Difficulty *float64 `json:"difficulty"`
	Mode       string   `json:"mode"`
	Seed       *uint64  `json:"seed"`
}

type MoveResponse struct {
	Board      string          `json:"board"`
	Position   PositionJSON    `json:"position"`
	Score      float64         `json:"score"`
	Mistake    bool            `json:"mistake"`
	Roll       float64         `json:"roll"`
	Candidates []CandidateJSON `json:"candidates"`
	Outcome    string          `json:"outcome"`
	Finished   bool            `json:"finished"`
}

type EvaluateRequest struct {
	Board       string `json:"board" binding:"required"`
	Perspective string `json:"perspective"`
	Mode        string `json:"mode"`
}

type EvaluateResponse struct {
	Perspective string          `json:"perspective"`
	Candidates  []CandidateJSON `json:"candidates"`
}

type Option func(s *Server)

// WithWatchDelay sets the pause between frames of /watch.
func WithWatchDelay(d time.Duration) Option {
	return func(s *Server) {
		s.watchDelay = d
	}
}

// WithSeed seeds the generator used for requests without their own seed.
func WithSeed(seed uint64) Option {
	return func(s *Server) {
		s.seeds = rand.New(rand.NewSource(seed))
	}
}

type Server struct {
	watchDelay time.Duration
	archiveDir string
	upgrader   websocket.Upgrader

	mu    sync.Mutex
	seeds *rand.Rand
}

func New(opts ...Option) *Server {
	s := &Server{
		watchDelay: 300 * time.Millisecond,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		seeds: rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// rng returns a generator private to one request.
func (s *Server) rng(seed *uint64) ai.Rand {
	if seed != nil {
		return ai.NewRand(*seed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ai.NewRand(s.seeds.Uint64())
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleIndex)
	r.POST("/move", s.handleMove)
	r.POST("/evaluate", s.handleEvaluate)
	r.GET("/watch", s.handleWatch)
	s.registerArchive(r)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Name:       "tactic",
		Version:    Version,
		Modes:      []string{rules.Classic.String(), rules.Reverse.String()},
		Difficulty: ai.DefaultDifficulty,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseSide falls back to the side whose turn it is.
func parseSide(s string, b game.Board) (game.Side, error) {
	if s == "" {
		return rules.NextToMove(b), nil
	}
	return game.ParseSide(s)
}

func (s *Server) handleMove(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid move request"})
		return
	}

	b, err := game.ParseBoard(req.Board)
	if err != nil {
		badRequest(c, err)
		return
	}
	side, err := parseSide(req.Side, b)
	if err != nil {
		badRequest(c, err)
		return
	}
	mode, err := rules.ParseMode(req.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}
	difficulty := ai.DefaultDifficulty
	if req.Difficulty != nil {
		difficulty = *req.Difficulty
	}
	policy, err := ai.NewPolicy(difficulty, ai.WithMode(mode))
	if err != nil {
		badRequest(c, err)
		return
	}

	d, err := policy.Choose(b, side, s.rng(req.Seed))
	switch {
	case errors.Is(err, ai.ErrGameFinished):
		c.JSON(http.StatusConflict, gin.H{"error": "game finished"})
		return
	case err != nil:
		log.Error().Err(err).Str("board", b.Compact()).Msg("move failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome := mode.Classify(d.Board)
	log.Info().
		Str("board", b.Compact()).
		Str("side", side.String()).
		Str("position", d.Chosen.Position.String()).
		Bool("mistake", d.Mistake).
		Msg("move")

	c.JSON(http.StatusOK, MoveResponse{
		Board:      d.Board.Compact(),
		Position:   toPosition(d.Chosen.Position),
		Score:      d.Chosen.Score,
		Mistake:    d.Mistake,
		Roll:       d.Roll,
		Candidates: toCandidates(d.Candidates),
		Outcome:    outcome.String(),
		Finished:   outcome.Finished(),
	})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid evaluate request"})
		return
	}

	b, err := game.ParseBoard(req.Board)
	if err != nil {
		badRequest(c, err)
		return
	}
	side, err := parseSide(req.Perspective, b)
	if err != nil {
		badRequest(c, err)
		return
	}
	mode, err := rules.ParseMode(req.Mode)
	if err != nil {
		badRequest(c, err)
		return
	}
	if mode.Classify(b).Finished() {
		c.JSON(http.StatusConflict, gin.H{"error": "game finished"})
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{
		Perspective: side.String(),
		Candidates:  toCandidates(ai.Evaluator{Mode: mode}.EvaluateMoves(b, side)),
	})
}

func queryDifficulty(c *gin.Context, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return ai.DefaultDifficulty, nil
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
