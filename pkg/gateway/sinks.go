package gateway

import (
	"github.com/teslashibe/go-poseperfect/pkg/game"
	"github.com/teslashibe/go-poseperfect/pkg/protocol"
	"github.com/teslashibe/go-poseperfect/pkg/track"
	"github.com/teslashibe/go-poseperfect/pkg/trainer"
)

// Emit broadcasts an obstacle intent to scene renderers.
func (g *Gateway) Emit(i track.Intent) {
	msg, err := protocol.NewObstacleMessage(ObstacleData(i))
	if err != nil {
		g.logger.Error("obstacle message", "error", err)
		return
	}
	g.Broadcast(msg)
}

// OnStatus broadcasts a session snapshot, or the final stats once the game is over.
func (g *Gateway) OnStatus(st game.Stats) {
	build := protocol.NewStatusMessage
	if st.Over() {
		build = protocol.NewGameOverMessage
	}
	msg, err := build(StatusData(st))
	if err != nil {
		g.logger.Error("status message", "error", err)
		return
	}
	g.Broadcast(msg)
}

// Feedback broadcasts training feedback.
func (g *Gateway) Feedback(fb trainer.Feedback) {
	msg, err := protocol.NewFeedbackMessage(FeedbackData(fb))
	if err != nil {
		g.logger.Error("feedback message", "error", err)
		return
	}
	g.Broadcast(msg)
}

// ObstacleData converts a track intent to its wire form.
func ObstacleData(i track.Intent) protocol.ObstacleData {
	return protocol.ObstacleData{
		Kind:       string(i.Kind),
		ID:         i.ObstacleID,
		Position:   i.Position,
		Delta:      i.Delta,
		Pose:       i.Pose,
		Resolution: i.Resolution,
	}
}

// StatusData converts session stats to their wire form.
func StatusData(st game.Stats) protocol.StatusData {
	return protocol.StatusData{
		SessionID:      st.SessionID,
		Score:          st.Score,
		TotalPassed:    st.TotalPassed,
		TotalMissed:    st.TotalMissed,
		ElapsedSeconds: st.ElapsedSeconds,
		Status:         st.Status.String(),
		Reason:         st.Reason,
	}
}

// FeedbackData converts training feedback to its wire form.
func FeedbackData(fb trainer.Feedback) protocol.FeedbackData {
	return protocol.FeedbackData{
		Pose:     fb.Pose,
		Matched:  fb.Matched,
		Detected: fb.Detected,
		Message:  fb.Message(),
		Streak:   fb.Streak,
		Best:     fb.Best,
		Results:  fb.Results,
	}
}
