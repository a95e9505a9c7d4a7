package predictor

import (
	"errors"
	"fmt"
	"io"

	"github.com/Brownie44l1/quorum-sorter/internal/config"
	"github.com/Brownie44l1/quorum-sorter/internal/engine"
	"github.com/Brownie44l1/quorum-sorter/internal/errs"
	"github.com/samber/lo"
)

// Member is one configured predictor of the pool.
type Member struct {
	Config    config.PredictorConfig
	Targets   map[string]struct{}
	Predictor Predictor
}

// Pool holds the predictors in configuration order. It is read-only once
// built and may be shared between goroutines.
type Pool struct {
	members []Member
}

// Build loads one predictor per config, in order. Any failure closes what was
// already loaded and returns a ConfigurationError.
func Build(loader Loader, eng engine.Engine, configs []config.PredictorConfig) (*Pool, error) {
	if len(configs) == 0 {
		return nil, errs.Configuration("build pool", errs.ErrEmptyPool)
	}

	pool := &Pool{members: make([]Member, 0, len(configs))}
	for i, cfg := range configs {
		p, err := loader.Load(cfg.ModelID, eng)
		if err != nil {
			_ = pool.Close()
			return nil, errs.Configuration(fmt.Sprintf("load predictor %d (%s)", i, cfg.ModelID), err)
		}
		pool.members = append(pool.members, Member{
			Config:    cfg,
			Targets:   lo.Keyify(cfg.TargetLabels),
			Predictor: p,
		})
	}
	return pool, nil
}

func (p *Pool) Len() int {
	return len(p.members)
}

// Members returns a copy of the pool entries in configuration order.
func (p *Pool) Members() []Member {
	return append([]Member(nil), p.members...)
}

// ModelIDs lists the loaded model identifiers in pool order.
func (p *Pool) ModelIDs() []string {
	return lo.Map(p.members, func(m Member, _ int) string { return m.Predictor.ModelID() })
}

// Close releases predictors holding native resources.
func (p *Pool) Close() error {
	var errList []error
	for _, m := range p.members {
		if c, ok := m.Predictor.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close %s: %w", m.Config.ModelID, err))
			}
		}
	}
	return errors.Join(errList...)
}
