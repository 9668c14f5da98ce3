package tour

import (
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tourney/internal/engine"
)

var errEngineDisabled = errors.New("tour: engine disabled")

// playerPool hands out engine players per PlayerId and takes them back
// when a game ends. Players are reused across games; a crashed player is
// dropped and a fresh process is spawned lazily on the next acquire.
// A spawn failure disables the engine for the rest of the event.
type playerPool struct {
	log  zerolog.Logger
	cfgs []engine.Config
	free [][]engine.Player
	out  []int
	dead []bool
}

func newPlayerPool(cfgs []engine.Config, log zerolog.Logger) *playerPool {
	return &playerPool{
		log:  log,
		cfgs: cfgs,
		free: make([][]engine.Player, len(cfgs)),
		out:  make([]int, len(cfgs)),
		dead: make([]bool, len(cfgs)),
	}
}

func (p *playerPool) disabled(pid PlayerId) bool {
	return p.dead[pid]
}

func (p *playerPool) disable(pid PlayerId) {
	if !p.dead[pid] {
		p.log.Warn().Str("engine", p.cfgs[pid].Name).Msg("engine disabled for the event")
		p.dead[pid] = true
	}
}

// acquire returns a free player for pid, spawning a new instance when all
// existing ones are busy in other games.
func (p *playerPool) acquire(pid PlayerId) (engine.Player, error) {
	if p.dead[pid] {
		return nil, errEngineDisabled
	}
	if n := len(p.free[pid]); n > 0 {
		var player = p.free[pid][n-1]
		p.free[pid] = p.free[pid][:n-1]
		p.out[pid]++
		return player, nil
	}
	var player = engine.New(p.cfgs[pid], p.log)
	if err := player.KickStart(); err != nil {
		p.log.Error().Err(err).Str("engine", p.cfgs[pid].Name).Msg("spawn failed")
		p.disable(pid)
		return nil, err
	}
	p.out[pid]++
	return player, nil
}

func (p *playerPool) release(pid PlayerId, player engine.Player) {
	if player == nil {
		return
	}
	p.out[pid]--
	switch player.State() {
	case engine.StateCrashed, engine.StateStopped, engine.StateNone:
		player.Quit()
	default:
		p.free[pid] = append(p.free[pid], player)
	}
}

// quitAll says goodbye to every idle player in parallel; each Quit waits
// out its own per-process timeout.
func (p *playerPool) quitAll() {
	var g errgroup.Group
	for pid := range p.free {
		for _, player := range p.free[pid] {
			var player = player
			g.Go(func() error {
				player.Quit()
				return nil
			})
		}
		p.free[pid] = nil
	}
	g.Wait()
}
