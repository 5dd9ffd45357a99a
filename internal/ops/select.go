package ops

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
	"github.com/zlormann/giveaway-linux/internal/giveaway"
)

// PickInput contains parameters for the PickDay operation.
type PickInput struct {
	Date      string    // optional, default: today in the configured time zone
	Now       time.Time // optional, default: time.Now()
	Scheduled bool      // only run when local time equals cfg.ScheduleTime
}

// PickOutput contains the result of the PickDay operation.
type PickOutput struct {
	Pick    *giveaway.Pick `json:"pick,omitempty"`
	Path    string         `json:"path,omitempty"`
	Skipped bool           `json:"skipped,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// DailySeed derives the generator seed for a date key:
// the first 8 bytes of SHA-256(date), big-endian.
func DailySeed(date string) uint64 {
	sum := sha256.Sum256([]byte(date))
	return binary.BigEndian.Uint64(sum[:8])
}

// Select chooses the software and game for date. The choice depends only on
// date and the two lists, so reruns on the same day give the same pick.
func Select(date string, refs *References, generatedAt time.Time, site string) (giveaway.Pick, error) {
	if _, err := time.Parse(giveaway.DateLayout, date); err != nil {
		return giveaway.Pick{}, errors.NewInvalidRequest(fmt.Sprintf("date %q must be YYYY-MM-DD", date))
	}
	if refs == nil {
		return giveaway.Pick{}, errors.NewInvalidRequest("reference lists are required")
	}
	if err := giveaway.RequireNonEmpty(giveaway.SoftwareFile, refs.Software); err != nil {
		return giveaway.Pick{}, err
	}
	if err := giveaway.RequireNonEmpty(giveaway.GamesFile, refs.Games); err != nil {
		return giveaway.Pick{}, err
	}

	r := rand.New(rand.NewPCG(DailySeed(date), 0))
	software := refs.Software[r.IntN(len(refs.Software))]
	game := refs.Games[r.IntN(len(refs.Games))]

	return giveaway.Pick{
		Date:        date,
		SoftwareID:  software.ID,
		GameID:      game.ID,
		GeneratedAt: giveaway.FormatTimestamp(generatedAt),
		Site:        site,
	}, nil
}

// PickDay selects today's pick and writes it to picks.json.
func PickDay(layout Layout, cfg *config.Config, input PickInput) (*PickOutput, error) {
	output, err := planPick(layout, cfg, input)
	if err != nil || output.Skipped {
		return output, err
	}
	if err := writePick(output); err != nil {
		return nil, err
	}
	return output, nil
}

// planPick applies the schedule gate and selects the pick without writing it.
func planPick(layout Layout, cfg *config.Config, input PickInput) (*PickOutput, error) {
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := cfg.Location()

	if input.Scheduled {
		if local := now.In(loc).Format("15:04"); local != cfg.ScheduleTime {
			reason := fmt.Sprintf("now in %s is %s, not %s", cfg.TimeZone, local, cfg.ScheduleTime)
			log.Printf("skip pick: %s", reason)
			return &PickOutput{Skipped: true, Reason: reason}, nil
		}
	}

	date := input.Date
	if date == "" {
		date = giveaway.DateKey(now, loc)
	}

	refs, err := LoadReferences(layout)
	if err != nil {
		return nil, err
	}

	pick, err := Select(date, refs, now, cfg.SiteURL)
	if err != nil {
		return nil, err
	}
	return &PickOutput{Pick: &pick, Path: layout.PicksPath()}, nil
}

func writePick(output *PickOutput) error {
	if err := writeJSON(output.Path, output.Pick); err != nil {
		return err
	}
	p := output.Pick
	log.Printf("updated %s: %s + %s for %s", giveaway.PicksFile, p.SoftwareID, p.GameID, p.Date)
	return nil
}
