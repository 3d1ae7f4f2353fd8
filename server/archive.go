package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/store"
)

// WithArchiveDir serves the parquet archive in dir under /api/games.
func WithArchiveDir(dir string) Option {
	return func(s *Server) {
		s.archiveDir = dir
	}
}

type GamesResponse struct {
	Total int                 `json:"total"`
	Games []store.GameSummary `json:"games"`
}

func (s *Server) registerArchive(r *gin.Engine) {
	if s.archiveDir == "" {
		return
	}
	r.GET("/api/games", s.handleGames)
	r.GET("/api/games/:id", s.handleGameTurns)
}

func (s *Server) loadArchive(c *gin.Context) ([]store.TurnRow, map[string]string, bool) {
	rows, files, err := store.LoadDir(s.archiveDir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.archiveDir).Msg("archive read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive unavailable"})
		return nil, nil, false
	}
	return rows, files, true
}

func (s *Server) handleGames(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	rows, files, ok := s.loadArchive(c)
	if !ok {
		return
	}
	games := store.Summarize(rows, files)
	total := len(games)
	start := min(offset, total)
	end := start + min(limit, total-start)
	games = games[start:end]
	c.JSON(http.StatusOK, GamesResponse{Total: total, Games: games})
}

func (s *Server) handleGameTurns(c *gin.Context) {
	rows, _, ok := s.loadArchive(c)
	if !ok {
		return
	}
	turns := store.GameTurns(rows, c.Param("id"))
	if len(turns) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, turns)
}
