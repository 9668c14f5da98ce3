package config

import (
	"reflect"
	"testing"
)

func sampleConfig() Config {
	var cfg = Default()
	cfg.Event = "test gauntlet"
	cfg.Site = "lab"
	cfg.Concurrency = 2
	cfg.Ponder = true
	cfg.TournamentType = "gauntlet"
	cfg.PgnFile = "out.pgn"
	cfg.TimeControl = TimeControl{Mode: "standard", Moves: 40, Base: 120, Increment: 1}
	cfg.Engines = []Engine{
		{Name: "alpha", Command: "/bin/alpha", Protocol: "uci",
			Ponderable: true, Options: map[string]string{"Hash": "64"}},
		{Name: "beta", Command: "/bin/beta", Args: []string{"-xboard"}, Protocol: "wb"},
	}
	cfg.Players = []string{"alpha", "beta"}
	cfg.OpeningBooks = OpeningBooks{
		Base: BookBase{SelectType: "samepair", Seed: 42},
		Books: []BookEntry{
			{Type: "polyglot", Path: "book.bin", Mode: true, MaxPly: 10, Top100: 10},
		},
	}
	cfg.Adjudication = Adjudication{ResignScore: 800, ResignPly: 6, DrawScore: 10, DrawPly: 12, MaxPly: 300}
	return cfg
}

func TestConfigRoundTrip(t *testing.T) {
	var cfg = sampleConfig()
	var data, err = cfg.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, parsed) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", cfg, parsed)
	}
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	var _, err = Parse([]byte(`{"engines":[{"name":"a","command":"a"}],"bogusKey":1}`))
	if err == nil {
		t.Error("unknown key accepted")
	}
}

func TestConfigValidation(t *testing.T) {
	var bad = []func(*Config){
		func(c *Config) { c.Engines = nil },
		func(c *Config) { c.Engines[1].Name = "alpha" },
		func(c *Config) { c.Engines[0].Command = "" },
		func(c *Config) { c.Engines[0].Protocol = "telnet" },
		func(c *Config) { c.Players = []string{"ghost"} },
		func(c *Config) { c.TournamentType = "ladder" },
		func(c *Config) { c.TimeControl = TimeControl{Mode: "warp"} },
		func(c *Config) { c.TimeControl = TimeControl{Mode: "depth"} },
		func(c *Config) { c.TimeControl = TimeControl{Mode: "standard"} },
		func(c *Config) { c.OpeningBooks.Books[0].Type = "abk" },
	}
	for i, mutate := range bad {
		var cfg = sampleConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %v: invalid config accepted", i)
		}
	}
	var good = sampleConfig()
	if err := good.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestTourConfigMapping(t *testing.T) {
	var cfg = sampleConfig()
	var tc = cfg.TourConfig()
	if len(tc.Engines) != 2 {
		t.Fatalf("engines = %v, want 2", len(tc.Engines))
	}
	if tc.Engines[0].Name != "alpha" || tc.Engines[0].Options["Hash"] != "64" {
		t.Errorf("engine mapping broken: %+v", tc.Engines[0])
	}
	if tc.Type != "gauntlet" || !tc.Ponder || tc.Concurrency != 2 {
		t.Errorf("tour mapping broken: %+v", tc)
	}
	if tc.TimeControl.String() != "40/120+1" {
		t.Errorf("time control = %v", tc.TimeControl.String())
	}
	if tc.Adjudication.ResignScore != 800 || tc.Adjudication.MaxPly != 300 {
		t.Errorf("adjudication mapping broken: %+v", tc.Adjudication)
	}
}

func TestPlayersSubset(t *testing.T) {
	var cfg = sampleConfig()
	cfg.Engines = append(cfg.Engines, Engine{Name: "gamma", Command: "/bin/gamma", Protocol: "uci"})
	cfg.Players = []string{"alpha", "gamma"}
	var tc = cfg.TourConfig()
	if len(tc.Engines) != 2 || tc.Engines[1].Name != "gamma" {
		t.Errorf("players subset broken: %+v", tc.Engines)
	}
}
