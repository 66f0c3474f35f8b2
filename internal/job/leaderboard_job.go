// Package job schedules the daily leaderboard post.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"invitetrack/lib/sl"
)

const postTimeout = 30 * time.Second

// Poster publishes the daily leaderboard. Implemented by bot.Bot.
type Poster interface {
	PostDailyLeaderboard(ctx context.Context) error
}

// Readiness gates the job: a tick that fires before startup caching has
// finished must not post from an empty engine.
type Readiness interface {
	Ready() bool
}

type DailyLeaderboard struct {
	engine  *cron.Cron
	poster  Poster
	tracker Readiness
	log     *slog.Logger
}

func NewDailyLeaderboard(poster Poster, tracker Readiness, log *slog.Logger) *DailyLeaderboard {
	return &DailyLeaderboard{
		engine:  cron.New(),
		poster:  poster,
		tracker: tracker,
		log:     log.With(sl.Module("job.leaderboard")),
	}
}

// Start schedules the post at the given wall-clock time, formatted HH:MM.
func (j *DailyLeaderboard) Start(at string) error {
	postTime, err := time.Parse("15:04", at)
	if err != nil {
		return fmt.Errorf("invalid leaderboard time %q: %w", at, err)
	}
	spec := fmt.Sprintf("%d %d * * *", postTime.Minute(), postTime.Hour())
	if _, err = j.engine.AddFunc(spec, j.run); err != nil {
		return fmt.Errorf("scheduling leaderboard post: %w", err)
	}
	j.engine.Start()
	j.log.With(slog.String("at", at)).Info("daily leaderboard scheduled")
	return nil
}

func (j *DailyLeaderboard) Stop() {
	<-j.engine.Stop().Done()
}

func (j *DailyLeaderboard) run() {
	if !j.tracker.Ready() {
		j.log.Warn("skipping daily leaderboard, invite cache not ready")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()
	if err := j.poster.PostDailyLeaderboard(ctx); err != nil {
		j.log.Error("posting daily leaderboard", sl.Err(err))
	}
}
