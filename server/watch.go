package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/brensch/tactic/ai"
	"github.com/brensch/tactic/match"
	"github.com/brensch/tactic/rules"
)

// Frame is one turn of a watched game. The last frame has Finished set.
type Frame struct {
	Turn     int          `json:"turn"`
	Side     string       `json:"side"`
	Position PositionJSON `json:"position"`
	Score    float64      `json:"score"`
	Mistake  bool         `json:"mistake"`
	Board    string       `json:"board"`
	Outcome  string       `json:"outcome"`
	Finished bool         `json:"finished"`
}

type watchParams struct {
	x, o *ai.Policy
	mode rules.Mode
	seed *uint64
}

func parseWatchParams(c *gin.Context) (watchParams, error) {
	var p watchParams
	mode, err := rules.ParseMode(c.Query("mode"))
	if err != nil {
		return p, err
	}
	p.mode = mode

	for key, dst := range map[string]**ai.Policy{"difficulty_x": &p.x, "difficulty_o": &p.o} {
		d, err := queryDifficulty(c, key)
		if err != nil {
			return p, err
		}
		policy, err := ai.NewPolicy(d, ai.WithMode(mode))
		if err != nil {
			return p, fmt.Errorf("%s: %w", key, err)
		}
		*dst = policy
	}

	if raw := c.Query("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return p, err
		}
		p.seed = &seed
	}
	return p, nil
}

func (s *Server) handleWatch(c *gin.Context) {
	params, err := parseWatchParams(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	session, err := match.NewSession(match.AIPlayer(params.x), match.AIPlayer(params.o), params.mode,
		match.Limit{Mode: match.TotalGames, Value: 1}, s.rng(params.seed))
	if err != nil {
		badRequest(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("watch upgrade failed")
		return
	}
	defer conn.Close()

	for !session.Outcome().Finished() {
		side := session.Active()
		d, err := session.PlayAI()
		if err != nil {
			log.Error().Err(err).Msg("watch game failed")
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
			return
		}

		outcome := session.Outcome()
		frame := Frame{
			Turn:     session.Turn(),
			Side:     side.String(),
			Position: toPosition(d.Chosen.Position),
			Score:    d.Chosen.Score,
			Mistake:  d.Mistake,
			Board:    session.Board().Compact(),
			Outcome:  outcome.String(),
			Finished: outcome.Finished(),
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug().Err(err).Msg("watcher went away")
			return
		}
		if !frame.Finished && s.watchDelay > 0 {
			time.Sleep(s.watchDelay)
		}
	}
	session.Record()

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
}
