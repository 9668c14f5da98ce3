// Package config loads the tournament description from its JSON file and
// maps it onto the runtime components.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"tourney/internal/book"
	"tourney/internal/clock"
	"tourney/internal/engine"
	"tourney/internal/game"
	"tourney/internal/tour"
)

type TimeControl struct {
	Mode      string  `json:"mode"`
	Moves     int     `json:"moves,omitempty"`
	Base      float64 `json:"base,omitempty"` // seconds; for movetime, seconds per move
	Increment float64 `json:"increment,omitempty"`
	Depth     int     `json:"depth,omitempty"`
}

type Engine struct {
	Name          string            `json:"name"`
	Command       string            `json:"command"`
	Args          []string          `json:"args,omitempty"`
	WorkingFolder string            `json:"workingFolder,omitempty"`
	Protocol      string            `json:"protocol"` // uci or wb
	Ponderable    bool              `json:"ponderable,omitempty"`
	Options       map[string]string `json:"options,omitempty"`
}

type BookBase struct {
	SelectType     string `json:"selectType,omitempty"`
	AllOneFen      string `json:"allOneFen,omitempty"`
	AllOneSanMoves string `json:"allOneSanMoves,omitempty"`
	Seed           int64  `json:"seed"` // negative seeds from the clock
}

type BookEntry struct {
	Type   string `json:"type"` // epd, pgn, polyglot
	Path   string `json:"path"`
	Mode   bool   `json:"mode"`
	MaxPly int    `json:"maxPly,omitempty"`
	Top100 int    `json:"top100,omitempty"`
}

type OpeningBooks struct {
	Base  BookBase    `json:"base"`
	Books []BookEntry `json:"books,omitempty"`
}

type Adjudication struct {
	ResignScore int `json:"resignScore,omitempty"`
	ResignPly   int `json:"resignPly,omitempty"`
	DrawScore   int `json:"drawScore,omitempty"`
	DrawPly     int `json:"drawPly,omitempty"`
	DrawMinPly  int `json:"drawMinPly,omitempty"`
	MaxPly      int `json:"maxPly,omitempty"`
}

type Config struct {
	Event          string       `json:"event,omitempty"`
	Site           string       `json:"site,omitempty"`
	Concurrency    int          `json:"concurrency,omitempty"`
	Ponder         bool         `json:"ponder,omitempty"`
	GamesPerPair   int          `json:"gamesPerPair,omitempty"`
	Rounds         int          `json:"rounds,omitempty"`
	GauntletSeed   int          `json:"gauntletSeed,omitempty"`
	ResultFile     string       `json:"resultFile,omitempty"`
	PgnFile        string       `json:"pgnFile,omitempty"`
	LogFile        string       `json:"logFile,omitempty"`
	TournamentType string       `json:"tournamentType,omitempty"`
	TimeControl    TimeControl  `json:"timeControl"`
	Engines        []Engine     `json:"engines"`
	Players        []string     `json:"players,omitempty"`
	OpeningBooks   OpeningBooks `json:"openingBooks"`
	Adjudication   Adjudication `json:"adjudication"`
}

// Default returns the zero config with non-zero defaults filled in.
func Default() Config {
	return Config{
		Concurrency:  1,
		GamesPerPair: 2,
		TimeControl:  TimeControl{Mode: "infinite"},
		OpeningBooks: OpeningBooks{Base: BookBase{Seed: -1}},
	}
}

// Load reads and validates a config file. Unknown keys are configuration
// errors, not typos to ignore.
func Load(path string) (Config, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg = Default()
	var dec = json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Serialize() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func (c Config) Validate() error {
	if len(c.Engines) == 0 {
		return fmt.Errorf("config: no engines defined")
	}
	var names = map[string]bool{}
	for _, eng := range c.Engines {
		if eng.Name == "" || eng.Command == "" {
			return fmt.Errorf("config: engine needs name and command")
		}
		if names[eng.Name] {
			return fmt.Errorf("config: duplicate engine name %q", eng.Name)
		}
		names[eng.Name] = true
		switch eng.Protocol {
		case "", "uci", "wb", "xboard":
		default:
			return fmt.Errorf("config: engine %v: unknown protocol %q", eng.Name, eng.Protocol)
		}
	}
	for _, player := range c.Players {
		if !names[player] {
			return fmt.Errorf("config: player %q is not a defined engine", player)
		}
	}
	switch c.TournamentType {
	case "", "roundrobin", "gauntlet", "knockout", "swiss":
	default:
		return fmt.Errorf("config: unknown tournament type %q", c.TournamentType)
	}
	switch c.TimeControl.Mode {
	case "", "infinite":
	case "depth":
		if c.TimeControl.Depth <= 0 {
			return fmt.Errorf("config: depth time control needs depth > 0")
		}
	case "movetime", "standard":
		if c.TimeControl.Base <= 0 {
			return fmt.Errorf("config: %v time control needs base > 0", c.TimeControl.Mode)
		}
	default:
		return fmt.Errorf("config: unknown time control mode %q", c.TimeControl.Mode)
	}
	for _, entry := range c.OpeningBooks.Books {
		switch entry.Type {
		case "epd", "pgn", "polyglot":
		default:
			return fmt.Errorf("config: unknown book type %q", entry.Type)
		}
	}
	return nil
}

// participants returns the engines taking part: the players subset when
// given, every defined engine otherwise.
func (c Config) participants() []Engine {
	if len(c.Players) == 0 {
		return c.Engines
	}
	var selected []Engine
	for _, name := range c.Players {
		for _, eng := range c.Engines {
			if eng.Name == name {
				selected = append(selected, eng)
				break
			}
		}
	}
	return selected
}

func (c Config) buildTimeControl() *clock.TimeController {
	switch c.TimeControl.Mode {
	case "depth":
		return clock.NewDepth(c.TimeControl.Depth)
	case "movetime":
		return clock.NewMoveTime(time.Duration(c.TimeControl.Base * float64(time.Second)))
	case "standard":
		return clock.NewStandard(
			c.TimeControl.Moves,
			time.Duration(c.TimeControl.Base*float64(time.Second)),
			time.Duration(c.TimeControl.Increment*float64(time.Second)))
	}
	return clock.NewInfinite()
}

// BookOptions maps the openingBooks section onto the book manager.
func (c Config) BookOptions() book.Options {
	var opts = book.Options{
		SelectType:     c.OpeningBooks.Base.SelectType,
		AllOneFen:      c.OpeningBooks.Base.AllOneFen,
		AllOneSanMoves: c.OpeningBooks.Base.AllOneSanMoves,
		Seed:           c.OpeningBooks.Base.Seed,
	}
	for _, entry := range c.OpeningBooks.Books {
		opts.Books = append(opts.Books, book.BookOptions{
			Type:   entry.Type,
			Path:   entry.Path,
			Mode:   entry.Mode,
			MaxPly: entry.MaxPly,
			Top100: entry.Top100,
		})
	}
	return opts
}

// TourConfig maps the file onto the tournament runtime config.
func (c Config) TourConfig() tour.Config {
	var engines []engine.Config
	for _, eng := range c.participants() {
		engines = append(engines, engine.Config{
			Name:       eng.Name,
			Path:       eng.Command,
			Args:       eng.Args,
			Dir:        eng.WorkingFolder,
			Protocol:   eng.Protocol,
			Ponderable: eng.Ponderable,
			Options:    eng.Options,
		})
	}
	return tour.Config{
		Event:        c.Event,
		Site:         c.Site,
		Type:         c.TournamentType,
		GamesPerPair: c.GamesPerPair,
		Rounds:       c.Rounds,
		GauntletSeed: c.GauntletSeed,
		Concurrency:  c.Concurrency,
		Ponder:       c.Ponder,
		TimeControl:  c.buildTimeControl(),
		Adjudication: game.Adjudication{
			ResignScore: c.Adjudication.ResignScore,
			ResignPly:   c.Adjudication.ResignPly,
			DrawScore:   c.Adjudication.DrawScore,
			DrawPly:     c.Adjudication.DrawPly,
			DrawMinPly:  c.Adjudication.DrawMinPly,
			MaxPly:      c.Adjudication.MaxPly,
		},
		Engines:    engines,
		PgnPath:    c.PgnFile,
		ResultPath: c.ResultFile,
	}
}
